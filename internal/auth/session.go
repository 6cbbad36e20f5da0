package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/preferences"
)

// resetSession holds a passcode that was entered once and still has to be
// confirmed. It never outlives the process.
type resetSession struct {
	pendingHash      string
	pendingSalt      []byte
	verificationHash string
	resetInProgress  bool
	initialSetup     bool
}

func (s *resetSession) pending() bool {
	return s.pendingHash != ""
}

func (s *resetSession) clear() {
	common.WipeByteArray(s.pendingSalt)
	*s = resetSession{}
}

// SetPasscode hashes a new passcode with a fresh salt and parks it until
// VerifyNewPasscode confirms it. It is allowed only when no credential
// exists or a reset was requested.
func (c *Core) SetPasscode(ctx context.Context, passcode string) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	if err := c.validate(passcode); err != nil {
		return err
	}

	has, err := c.creds.HasCredential(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	allowed := !has || c.session.resetInProgress || c.forceReset
	c.mu.Unlock()
	if !allowed {
		return common.ErrPasscodeAlreadySet
	}

	salt, err := c.hasher.NewSalt()
	if err != nil {
		c.log.Error(ctx, "failed to generate salt", "error", err)
		if !errors.Is(err, common.ErrHashingFailure) {
			err = fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
		}
		return err
	}

	digest, err := c.hash(ctx, passcode, salt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.session.clear()
	c.session = resetSession{
		pendingHash:     digest,
		pendingSalt:     salt,
		resetInProgress: true,
		initialSetup:    !has,
	}
	c.mu.Unlock()

	c.log.Debug(ctx, "new passcode pending verification", "initial_setup", !has)
	return nil
}

// VerifyNewPasscode confirms the pending passcode. A match commits hash and
// salt together, resets the limiter and leaves the caller authenticated. A
// mismatch keeps the pending passcode and is never counted as a failed
// attempt.
func (c *Core) VerifyNewPasscode(ctx context.Context, passcode string) (Result, error) {
	if err := c.acquire(ctx); err != nil {
		return Result{}, err
	}
	defer c.release()

	if err := c.validate(passcode); err != nil {
		return c.result(), err
	}

	c.mu.Lock()
	if !c.session.pending() {
		c.mu.Unlock()
		return c.result(), common.ErrNoPendingPasscode
	}
	pendingHash := c.session.pendingHash
	salt := append([]byte(nil), c.session.pendingSalt...)
	c.mu.Unlock()

	digest, err := c.hash(ctx, passcode, salt)
	if err != nil {
		return c.result(), err
	}

	c.mu.Lock()
	c.session.verificationHash = digest
	c.mu.Unlock()

	if subtle.ConstantTimeCompare([]byte(digest), []byte(pendingHash)) != 1 {
		c.log.Info(ctx, "new passcode confirmation did not match")
		return c.result(), common.ErrPasscodeMismatch
	}

	if err := c.creds.Commit(ctx, digest, salt); err != nil {
		c.log.Error(ctx, "failed to commit new passcode", "error", err)
		return c.result(), err
	}

	c.mu.Lock()
	c.session.clear()
	c.forceReset = false
	c.mu.Unlock()

	c.limiter.Reset(ctx)
	c.log.Info(ctx, "new passcode committed")

	if c.AuthMethod() == preferences.AuthMethodNone {
		if err := c.setAuthMethod(ctx, preferences.AuthMethodPasscode); err != nil {
			c.log.Warn(ctx, "passcode committed but auth method not saved", "error", err)
		}
	}

	// The confirmation digest was just produced from the committed salt, so
	// it stands in for a fresh authentication.
	return c.succeed(ctx, "passcode")
}

// ResetPasscode starts an explicit passcode change. The caller must be
// authenticated unless the stored credential is unusable or missing.
// Without an auth method no token is needed, except during a lockout.
func (c *Core) ResetPasscode(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	has, err := c.creds.HasCredential(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	forced := c.forceReset
	c.mu.Unlock()

	if has && !forced && !c.mayReset() {
		return common.ErrUnauthorized
	}

	c.mu.Lock()
	c.session.clear()
	c.session.resetInProgress = true
	c.session.initialSetup = !has
	c.mu.Unlock()

	c.log.Info(ctx, "passcode reset started", "forced", forced)
	return nil
}

// CancelReset drops the pending passcode without committing. Cancelling a
// first-time set-up also clears the attempt counter.
func (c *Core) CancelReset(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	initial := c.session.initialSetup
	active := c.session.resetInProgress
	c.session.clear()
	c.mu.Unlock()

	if initial {
		c.limiter.Reset(ctx)
	}
	if active {
		c.log.Info(ctx, "passcode reset cancelled", "initial_setup", initial)
	}
	return nil
}

// RemovePasscode deletes the stored credential of a signed-in user and
// returns to the initial state: no token, no attempt history and no auth
// method.
func (c *Core) RemovePasscode(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	has, err := c.creds.HasCredential(ctx)
	if err != nil {
		return err
	}
	if !has {
		return common.ErrCredentialNotFound
	}
	if !c.tokens.IsAuthenticated() {
		return common.ErrUnauthorized
	}

	if err := c.creds.Clear(ctx); err != nil {
		c.log.Error(ctx, "failed to remove credential", "error", err)
		return err
	}

	c.mu.Lock()
	c.session.clear()
	c.forceReset = false
	c.mu.Unlock()

	c.tokens.InvalidateCurrent()
	c.limiter.Reset(ctx)
	if err := c.setAuthMethod(ctx, preferences.AuthMethodNone); err != nil {
		c.log.Warn(ctx, "credential removed but auth method not saved", "error", err)
	}

	c.log.Info(ctx, "passcode removed")
	return nil
}

func (c *Core) mayReset() bool {
	if c.tokens.IsAuthenticated() {
		return true
	}
	return c.AuthMethod() == preferences.AuthMethodNone && !c.limiter.IsLockedOut()
}
