// Package lockout implements the bounded-attempt limiter: a run of failed
// passcode attempts locks authentication for a cooldown that survives
// process restarts.
package lockout

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/clock"
	"github.com/dmitrijs2005/gophlock/internal/events"
	"github.com/dmitrijs2005/gophlock/internal/logging"
)

const (
	DefaultMaxAttempts  = 5
	DefaultCooldown     = 300 * time.Second
	DefaultTickInterval = time.Second
)

type State int

const (
	StateClear State = iota
	StateCounting
	StateLockedOut
)

func (s State) String() string {
	switch s {
	case StateClear:
		return "clear"
	case StateCounting:
		return "counting"
	case StateLockedOut:
		return "locked_out"
	default:
		return "unknown"
	}
}

// Persister stores the lockout expiration. preferences.Store implements it.
type Persister interface {
	LockoutExpiresAt(ctx context.Context) (time.Time, bool, error)
	SetLockoutExpiresAt(ctx context.Context, t time.Time) error
	ClearLockoutExpiresAt(ctx context.Context) error
}

// Publisher is the subset of events.Bus the limiter needs.
type Publisher interface {
	Publish(topic string, payload any)
}

type Config struct {
	MaxAttempts  int
	Cooldown     time.Duration
	TickInterval time.Duration
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	return c
}

// Limiter counts consecutive failures. Only the lockout expiration is
// persisted; the in-progress count restarts from zero on a new process.
type Limiter struct {
	cfg   Config
	clock clock.Clock
	store Persister
	bus   Publisher
	log   logging.Logger

	mu         sync.Mutex
	count      int
	expiresAt  time.Time
	cancelTick func()
}

func New(cfg Config, clk clock.Clock, store Persister, bus Publisher, log logging.Logger) *Limiter {
	return &Limiter{
		cfg:   cfg.withDefaults(),
		clock: clk,
		store: store,
		bus:   bus,
		log:   log.With("component", "lockout"),
	}
}

// Restore re-enters the lockout if a persisted expiration still lies in the
// future and drops a stale one. An expiration that cannot be read locks for
// a full cooldown.
func (l *Limiter) Restore(ctx context.Context) {
	now := l.clock.Now()

	expiresAt, ok, err := l.store.LockoutExpiresAt(ctx)
	if err != nil {
		l.log.Warn(ctx, "failed to load lockout expiration, locking", "error", err)
		expiresAt = now.Add(l.cfg.Cooldown)
		if err := l.store.SetLockoutExpiresAt(ctx, expiresAt); err != nil {
			l.log.Warn(ctx, "failed to persist lockout expiration", "error", err)
		}
		ok = true
	}
	if !ok {
		return
	}

	if !now.Before(expiresAt) {
		l.log.Debug(ctx, "dropping stale lockout", "expires_at", expiresAt)
		l.clearPersisted(ctx)
		return
	}

	l.mu.Lock()
	l.count = l.cfg.MaxAttempts
	l.expiresAt = expiresAt
	l.startTickLocked()
	l.mu.Unlock()

	remaining := expiresAt.Sub(now)
	l.log.Info(ctx, "lockout restored", "remaining", remaining)
	l.bus.Publish(events.TopicLockoutStarted, events.LockoutStarted{ExpiresAt: expiresAt, Remaining: remaining})
}

// RecordFailure counts one failed attempt and reports whether it tripped the
// lockout. A call made while already locked out changes nothing.
func (l *Limiter) RecordFailure(ctx context.Context) bool {
	l.expireIfDue(ctx)

	l.mu.Lock()
	if !l.expiresAt.IsZero() {
		l.mu.Unlock()
		return true
	}
	l.count++
	if l.count < l.cfg.MaxAttempts {
		l.mu.Unlock()
		return false
	}
	now := l.clock.Now()
	expiresAt := now.Add(l.cfg.Cooldown)
	l.expiresAt = expiresAt
	l.startTickLocked()
	l.mu.Unlock()

	if err := l.store.SetLockoutExpiresAt(ctx, expiresAt); err != nil {
		l.log.Warn(ctx, "failed to persist lockout expiration", "error", err)
	}
	l.log.Info(ctx, "lockout started", "expires_at", expiresAt)
	l.bus.Publish(events.TopicLockoutStarted, events.LockoutStarted{ExpiresAt: expiresAt, Remaining: l.cfg.Cooldown})
	return true
}

// RecordSuccess clears the count and any lockout.
func (l *Limiter) RecordSuccess(ctx context.Context) {
	l.Reset(ctx)
}

// Reset clears the count and any lockout unconditionally.
func (l *Limiter) Reset(ctx context.Context) {
	l.mu.Lock()
	wasLocked := !l.expiresAt.IsZero()
	l.count = 0
	l.expiresAt = time.Time{}
	l.stopTickLocked()
	l.mu.Unlock()

	l.clearPersisted(ctx)
	if wasLocked {
		l.bus.Publish(events.TopicLockoutEnded, events.LockoutEnded{At: l.clock.Now()})
	}
}

// Tick is the countdown callback. It publishes the remaining time, or ends
// the lockout once the cooldown has elapsed.
func (l *Limiter) Tick() {
	ctx := context.Background()
	if l.expireIfDue(ctx) {
		return
	}

	l.mu.Lock()
	if l.expiresAt.IsZero() {
		l.mu.Unlock()
		return
	}
	remaining := l.expiresAt.Sub(l.clock.Now())
	l.mu.Unlock()

	l.bus.Publish(events.TopicLockoutTick, events.LockoutTick{Remaining: remaining})
}

// IsLockedOut evaluates expiry first, so a lockout whose cooldown has passed
// is never reported even if a tick was missed.
func (l *Limiter) IsLockedOut() bool {
	l.expireIfDue(context.Background())

	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.expiresAt.IsZero()
}

func (l *Limiter) RemainingAttempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return max(0, l.cfg.MaxAttempts-l.count)
}

// Remaining is the time left in the current lockout, zero when not locked.
func (l *Limiter) Remaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.expiresAt.IsZero() {
		return 0
	}
	return max(0, l.expiresAt.Sub(l.clock.Now()))
}

// SecondsRemaining rounds Remaining up to whole seconds.
func (l *Limiter) SecondsRemaining() int {
	return int(math.Ceil(l.Remaining().Seconds()))
}

func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case !l.expiresAt.IsZero():
		return StateLockedOut
	case l.count > 0:
		return StateCounting
	default:
		return StateClear
	}
}

// Stop cancels the countdown without touching the lockout state.
func (l *Limiter) Stop() {
	l.mu.Lock()
	l.stopTickLocked()
	l.mu.Unlock()
}

// expireIfDue ends a lockout whose cooldown has elapsed and reports whether
// it did.
func (l *Limiter) expireIfDue(ctx context.Context) bool {
	l.mu.Lock()
	now := l.clock.Now()
	if l.expiresAt.IsZero() || now.Before(l.expiresAt) {
		l.mu.Unlock()
		return false
	}
	l.count = 0
	l.expiresAt = time.Time{}
	l.stopTickLocked()
	l.mu.Unlock()

	l.clearPersisted(ctx)
	l.log.Info(ctx, "lockout ended")
	l.bus.Publish(events.TopicLockoutEnded, events.LockoutEnded{At: now})
	return true
}

func (l *Limiter) clearPersisted(ctx context.Context) {
	if err := l.store.ClearLockoutExpiresAt(ctx); err != nil {
		l.log.Warn(ctx, "failed to clear lockout expiration", "error", err)
	}
}

func (l *Limiter) startTickLocked() {
	l.stopTickLocked()
	l.cancelTick = l.clock.Every(l.cfg.TickInterval, l.Tick)
}

func (l *Limiter) stopTickLocked() {
	if l.cancelTick != nil {
		l.cancelTick()
		l.cancelTick = nil
	}
}
