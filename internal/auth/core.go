package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/credentials"
	"github.com/dmitrijs2005/gophlock/internal/events"
	"github.com/dmitrijs2005/gophlock/internal/lockout"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/dmitrijs2005/gophlock/internal/preferences"
	"github.com/dmitrijs2005/gophlock/internal/tokens"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMinPasscodeLength = 4
	DefaultMaxPasscodeLength = 6
	DefaultTokenLifetime     = 15 * time.Minute
	DefaultBiometricReason   = "Unlock with biometrics"
)

// Hasher derives the stored digest. cryptox.Hasher implements it.
type Hasher interface {
	Hash(ctx context.Context, passcode []byte, salt []byte) (string, error)
	NewSalt() ([]byte, error)
}

type Config struct {
	MinPasscodeLength    int
	MaxPasscodeLength    int
	DigitsOnly           bool
	DefaultTokenLifetime time.Duration
	BiometricReason      string
}

// DefaultConfig is a 4 to 6 digit passcode with a 15 minute default token.
func DefaultConfig() Config {
	return Config{
		MinPasscodeLength:    DefaultMinPasscodeLength,
		MaxPasscodeLength:    DefaultMaxPasscodeLength,
		DigitsOnly:           true,
		DefaultTokenLifetime: DefaultTokenLifetime,
		BiometricReason:      DefaultBiometricReason,
	}
}

type Deps struct {
	Hasher      Hasher
	Credentials *credentials.Store
	Preferences *preferences.Store
	Limiter     *lockout.Limiter
	Tokens      *tokens.Lifecycle
	Biometric   biometric.Evaluator
	Bus         *events.Bus
	Logger      logging.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Hasher == nil:
		return errors.New("auth: hasher is required")
	case d.Credentials == nil:
		return errors.New("auth: credential store is required")
	case d.Preferences == nil:
		return errors.New("auth: preference store is required")
	case d.Limiter == nil:
		return errors.New("auth: limiter is required")
	case d.Tokens == nil:
		return errors.New("auth: token lifecycle is required")
	case d.Bus == nil:
		return errors.New("auth: event bus is required")
	}
	return nil
}

// Phase is the externally visible step of the passcode workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSettingPasscode
	PhaseAwaitingVerification
	PhaseVerifying
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSettingPasscode:
		return "setting_passcode"
	case PhaseAwaitingVerification:
		return "awaiting_verification"
	case PhaseVerifying:
		return "verifying"
	default:
		return "unknown"
	}
}

// Result is the UI-facing state after an operation.
type Result struct {
	Authenticated     bool
	Token             tokens.Token
	RemainingAttempts int
	LockedOut         bool
	LockoutRemaining  time.Duration
	ResetRequired     bool
}

type Core struct {
	cfg       Config
	hasher    Hasher
	creds     *credentials.Store
	prefs     *preferences.Store
	limiter   *lockout.Limiter
	tokens    *tokens.Lifecycle
	biometric biometric.Evaluator
	bus       *events.Bus
	log       logging.Logger

	// sem serializes every operation that reads or writes the credential.
	sem *semaphore.Weighted

	mu         sync.Mutex
	session    resetSession
	forceReset bool
	verifying  bool
	method     preferences.AuthMethod
}

// New builds the core, restores a persisted lockout and checks that a stored
// credential still has its salt.
func New(ctx context.Context, cfg Config, deps Deps) (*Core, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	def := DefaultConfig()
	if cfg.MinPasscodeLength <= 0 {
		cfg.MinPasscodeLength = def.MinPasscodeLength
	}
	if cfg.MaxPasscodeLength <= 0 {
		cfg.MaxPasscodeLength = max(def.MaxPasscodeLength, cfg.MinPasscodeLength)
	}
	if cfg.MaxPasscodeLength < cfg.MinPasscodeLength {
		return nil, fmt.Errorf("auth: max passcode length %d is below min %d", cfg.MaxPasscodeLength, cfg.MinPasscodeLength)
	}
	if cfg.DefaultTokenLifetime <= 0 {
		cfg.DefaultTokenLifetime = def.DefaultTokenLifetime
	}
	if cfg.BiometricReason == "" {
		cfg.BiometricReason = def.BiometricReason
	}

	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	bio := deps.Biometric
	if bio == nil {
		bio = biometric.Unavailable{}
	}

	c := &Core{
		cfg:       cfg,
		hasher:    deps.Hasher,
		creds:     deps.Credentials,
		prefs:     deps.Preferences,
		limiter:   deps.Limiter,
		tokens:    deps.Tokens,
		biometric: bio,
		bus:       deps.Bus,
		log:       log.With("component", "auth"),
		sem:       semaphore.NewWeighted(1),
		method:    preferences.AuthMethodNone,
	}

	method, err := c.prefs.AuthMethod(ctx)
	if err != nil {
		c.log.Warn(ctx, "failed to load auth method, using none", "error", err)
	} else {
		c.method = method
	}

	c.limiter.Restore(ctx)
	c.checkSalt(ctx)

	return c, nil
}

// checkSalt fails closed when a hash is stored without a readable salt.
func (c *Core) checkSalt(ctx context.Context) {
	has, err := c.creds.HasCredential(ctx)
	if err != nil {
		c.log.Warn(ctx, "failed to check credential", "error", err)
		return
	}
	if !has {
		return
	}
	if _, err := c.creds.LoadSalt(ctx); err != nil {
		c.log.Warn(ctx, "stored credential has no usable salt, passcode reset required", "error", err)
		c.mu.Lock()
		c.forceReset = true
		c.mu.Unlock()
	}
}

// validate checks the local passcode format rules.
func (c *Core) validate(passcode string) error {
	n := len([]rune(passcode))
	if n < c.cfg.MinPasscodeLength || n > c.cfg.MaxPasscodeLength {
		return fmt.Errorf("%w: passcode must be %d to %d characters", common.ErrValidation, c.cfg.MinPasscodeLength, c.cfg.MaxPasscodeLength)
	}
	if c.cfg.DigitsOnly {
		for _, r := range passcode {
			if !unicode.IsDigit(r) {
				return fmt.Errorf("%w: passcode must contain digits only", common.ErrValidation)
			}
		}
	}
	return nil
}

func (c *Core) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.sem.Acquire(ctx, 1)
}

func (c *Core) release() {
	c.sem.Release(1)
}

// hash runs the hasher and makes sure a primitive failure carries
// common.ErrHashingFailure. Context errors pass through unchanged.
func (c *Core) hash(ctx context.Context, passcode string, salt []byte) (string, error) {
	pw := []byte(passcode)
	defer common.WipeByteArray(pw)

	digest, err := c.hasher.Hash(ctx, pw, salt)
	if err == nil {
		return digest, nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return "", err
	}
	if !errors.Is(err, common.ErrHashingFailure) {
		err = fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
	}
	c.log.Error(ctx, "passcode hashing failed", "error", err)
	return "", err
}

func (c *Core) result() Result {
	c.mu.Lock()
	reset := c.forceReset
	c.mu.Unlock()

	return Result{
		Authenticated:     c.IsAuthenticated(),
		RemainingAttempts: c.limiter.RemainingAttempts(),
		LockedOut:         c.limiter.IsLockedOut(),
		LockoutRemaining:  c.limiter.Remaining(),
		ResetRequired:     reset,
	}
}

// IsAuthenticated reports whether a current unexpired token exists. A user
// without a configured auth method is always authenticated.
func (c *Core) IsAuthenticated() bool {
	if c.AuthMethod() == preferences.AuthMethodNone {
		return true
	}
	return c.tokens.IsAuthenticated()
}

func (c *Core) RemainingAttempts() int {
	return c.limiter.RemainingAttempts()
}

func (c *Core) IsLockedOut() bool {
	return c.limiter.IsLockedOut()
}

func (c *Core) LockoutSecondsRemaining() int {
	return c.limiter.SecondsRemaining()
}

// ResetRequired reports that the stored credential became unusable and a
// new passcode has to be set.
func (c *Core) ResetRequired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forceReset
}

// SessionHistory returns recently ended sessions, oldest first.
func (c *Core) SessionHistory() []tokens.Token {
	return c.tokens.History()
}

func (c *Core) HasCredential(ctx context.Context) (bool, error) {
	return c.creds.HasCredential(ctx)
}

func (c *Core) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.verifying:
		return PhaseVerifying
	case c.session.pending():
		return PhaseAwaitingVerification
	case c.session.resetInProgress || c.forceReset:
		return PhaseSettingPasscode
	default:
		return PhaseIdle
	}
}

func (c *Core) AuthMethod() preferences.AuthMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

// SetAuthMethod persists m. Once a passcode exists the caller needs a live
// token; switching to none does not count as signing in. The in-memory value
// is updated even when the write fails; the error is still returned.
func (c *Core) SetAuthMethod(ctx context.Context, m preferences.AuthMethod) error {
	if _, err := preferences.ParseAuthMethod(string(m)); err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	return c.setAuthMethod(ctx, m)
}

func (c *Core) setAuthMethod(ctx context.Context, m preferences.AuthMethod) error {
	c.mu.Lock()
	c.method = m
	c.mu.Unlock()

	if err := c.prefs.SetAuthMethod(ctx, m); err != nil {
		c.log.Warn(ctx, "failed to persist auth method", "error", err)
		return err
	}
	return nil
}

func (c *Core) TokenLifetime(ctx context.Context) (preferences.TokenLifetime, error) {
	return c.prefs.TokenLifetime(ctx)
}

// SetTokenLifetime persists l under the same rule as SetAuthMethod.
func (c *Core) SetTokenLifetime(ctx context.Context, l preferences.TokenLifetime) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	return c.prefs.SetTokenLifetime(ctx, l)
}

// requireSession returns ErrUnauthorized when a credential exists and no
// unexpired token was issued for it.
func (c *Core) requireSession(ctx context.Context) error {
	has, err := c.creds.HasCredential(ctx)
	if err != nil {
		return err
	}
	if has && !c.tokens.IsAuthenticated() {
		return common.ErrUnauthorized
	}
	return nil
}

// tokenLifetime resolves the preferred lifetime, falling back to the
// configured default when none is stored or it cannot be read.
func (c *Core) tokenLifetime(ctx context.Context) time.Duration {
	l, err := c.prefs.TokenLifetime(ctx)
	if err != nil {
		c.log.Warn(ctx, "failed to load token lifetime, using default", "error", err)
		l = preferences.LifetimeUnset
	}
	return l.Duration(c.cfg.DefaultTokenLifetime)
}

// ValidateToken checks a token previously returned by an authentication.
func (c *Core) ValidateToken(signed string) (tokens.Token, error) {
	return c.tokens.Validate(signed)
}

func (c *Core) SubscribeLockoutStarted(fn func(events.LockoutStarted)) (func(), error) {
	return c.bus.OnLockoutStarted(fn)
}

func (c *Core) SubscribeLockoutTick(fn func(events.LockoutTick)) (func(), error) {
	return c.bus.OnLockoutTick(fn)
}

func (c *Core) SubscribeLockoutEnded(fn func(events.LockoutEnded)) (func(), error) {
	return c.bus.OnLockoutEnded(fn)
}

func (c *Core) SubscribeTokenExpired(fn func(events.TokenExpired)) (func(), error) {
	return c.bus.OnTokenExpired(fn)
}

func (c *Core) SubscribeAuthenticationSucceeded(fn func(events.AuthenticationSucceeded)) (func(), error) {
	return c.bus.OnAuthenticationSucceeded(fn)
}

func (c *Core) SubscribeAuthenticationFailed(fn func(events.AuthenticationFailed)) (func(), error) {
	return c.bus.OnAuthenticationFailed(fn)
}

// Close stops the countdown and token expiry tickers.
func (c *Core) Close() {
	c.limiter.Stop()
	c.tokens.Stop()
}
