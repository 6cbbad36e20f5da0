package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/events"
	"github.com/dmitrijs2005/gophlock/internal/preferences"
)

// Authenticate verifies passcode against the stored credential.
//
// Format errors, lockout, a missing credential and a missing salt are all
// reported before any hashing and never count as failed attempts. Only a
// digest mismatch is recorded by the limiter.
func (c *Core) Authenticate(ctx context.Context, passcode string) (Result, error) {
	if err := c.acquire(ctx); err != nil {
		return Result{}, err
	}
	defer c.release()

	if err := c.validate(passcode); err != nil {
		return c.result(), err
	}

	if c.limiter.IsLockedOut() {
		return c.result(), common.ErrLockedOut
	}

	stored, err := c.creds.LoadHash(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return c.result(), common.ErrCredentialNotFound
	}
	if err != nil {
		return c.result(), err
	}

	salt, err := c.creds.LoadSalt(ctx)
	if err != nil {
		c.mu.Lock()
		c.forceReset = true
		c.mu.Unlock()
		c.log.Warn(ctx, "salt unavailable, passcode reset required", "error", err)
		if errors.Is(err, common.ErrorNotFound) {
			return c.result(), common.ErrSaltUnavailable
		}
		return c.result(), fmt.Errorf("%w: %w", common.ErrSaltUnavailable, err)
	}

	c.mu.Lock()
	c.verifying = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.verifying = false
		c.mu.Unlock()
	}()

	digest, err := c.hash(ctx, passcode, salt)
	if err != nil {
		return c.result(), err
	}

	if subtle.ConstantTimeCompare([]byte(digest), []byte(stored)) == 1 {
		c.limiter.RecordSuccess(ctx)
		return c.succeed(ctx, "passcode")
	}

	tripped := c.limiter.RecordFailure(ctx)
	if tripped {
		c.mu.Lock()
		c.session.clear()
		c.mu.Unlock()
	}

	res := c.result()
	c.log.Info(ctx, "passcode rejected", "remaining_attempts", res.RemainingAttempts, "locked_out", tripped)
	c.bus.Publish(events.TopicAuthenticationFailed, events.AuthenticationFailed{
		RemainingAttempts: res.RemainingAttempts,
		LockedOut:         tripped,
	})
	return res, common.ErrIncorrectPasscode
}

// AuthenticateWithBiometrics asks the biometric evaluator and issues a token
// on success. It never touches the attempt limiter. An empty reason uses the
// configured prompt.
func (c *Core) AuthenticateWithBiometrics(ctx context.Context, reason string) (Result, error) {
	if reason == "" {
		reason = c.cfg.BiometricReason
	}

	has, err := c.creds.HasCredential(ctx)
	if err != nil {
		return c.result(), err
	}
	if !has {
		return c.result(), common.ErrCredentialNotFound
	}

	ok, err := c.biometric.Evaluate(ctx, reason)
	if err != nil {
		c.log.Warn(ctx, "biometric evaluation failed", "error", err)
		return c.result(), fmt.Errorf("%w: %w", common.ErrBiometricUnavailable, err)
	}
	if !ok {
		c.log.Info(ctx, "biometric authentication denied")
		return c.result(), common.ErrBiometricDenied
	}

	return c.succeed(ctx, "biometric")
}

// Revoke invalidates the current token and reports whether there was one.
// A user without an auth method cannot be signed out.
func (c *Core) Revoke(ctx context.Context) bool {
	if c.AuthMethod() == preferences.AuthMethodNone {
		c.log.Debug(ctx, "revoke ignored, no auth method configured")
		return false
	}
	tok, ok := c.tokens.InvalidateCurrent()
	if ok {
		c.log.Info(ctx, "token revoked", "token_id", tok.ID)
	}
	return ok
}

// succeed issues a token with the preferred lifetime and announces it.
func (c *Core) succeed(ctx context.Context, method string) (Result, error) {
	tok, err := c.tokens.Issue(c.tokenLifetime(ctx))
	if err != nil {
		c.log.Error(ctx, "failed to issue token", "error", err)
		return c.result(), err
	}

	c.log.Info(ctx, "authenticated", "method", method, "token_id", tok.ID, "expires_at", tok.ExpiresAt)
	c.bus.Publish(events.TopicAuthenticationSucceeded, events.AuthenticationSucceeded{
		Method:    method,
		TokenID:   tok.ID,
		ExpiresAt: tok.ExpiresAt,
	})

	res := c.result()
	res.Authenticated = true
	res.Token = tok
	return res, nil
}
