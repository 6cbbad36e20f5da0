// Package events publishes authentication state changes on an
// asaskevich/EventBus so the UI subscribes instead of polling.
//
// Handlers run synchronously on the publishing goroutine and must not
// publish or subscribe from inside a handler.
package events

import (
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Topics.
const (
	TopicLockoutStarted          = "auth:lockout_started"
	TopicLockoutTick             = "auth:lockout_tick"
	TopicLockoutEnded            = "auth:lockout_ended"
	TopicTokenExpired            = "auth:token_expired"
	TopicAuthenticationSucceeded = "auth:authentication_succeeded"
	TopicAuthenticationFailed    = "auth:authentication_failed"
)

// LockoutStarted is published when the attempt limit is reached.
type LockoutStarted struct {
	ExpiresAt time.Time
	Remaining time.Duration
}

// LockoutTick is published once per tick while locked out.
type LockoutTick struct {
	Remaining time.Duration
}

// LockoutEnded is published when the cooldown has elapsed or the limiter was reset.
type LockoutEnded struct {
	At time.Time
}

// TokenExpired is published when the current token reaches its expiration.
type TokenExpired struct {
	TokenID   string
	ExpiredAt time.Time
}

// AuthenticationSucceeded is published on every passcode or biometric success.
type AuthenticationSucceeded struct {
	Method    string
	TokenID   string
	ExpiresAt time.Time
}

// AuthenticationFailed is published when a passcode is rejected.
type AuthenticationFailed struct {
	RemainingAttempts int
	LockedOut         bool
}

// Bus wraps evbus.Bus with typed subscribe helpers.
type Bus struct {
	bus evbus.Bus
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish sends payload to every subscriber of topic.
func (b *Bus) Publish(topic string, payload any) {
	b.bus.Publish(topic, payload)
}

func (b *Bus) OnLockoutStarted(fn func(LockoutStarted)) (func(), error) {
	return b.subscribe(TopicLockoutStarted, fn)
}

func (b *Bus) OnLockoutTick(fn func(LockoutTick)) (func(), error) {
	return b.subscribe(TopicLockoutTick, fn)
}

func (b *Bus) OnLockoutEnded(fn func(LockoutEnded)) (func(), error) {
	return b.subscribe(TopicLockoutEnded, fn)
}

func (b *Bus) OnTokenExpired(fn func(TokenExpired)) (func(), error) {
	return b.subscribe(TopicTokenExpired, fn)
}

func (b *Bus) OnAuthenticationSucceeded(fn func(AuthenticationSucceeded)) (func(), error) {
	return b.subscribe(TopicAuthenticationSucceeded, fn)
}

func (b *Bus) OnAuthenticationFailed(fn func(AuthenticationFailed)) (func(), error) {
	return b.subscribe(TopicAuthenticationFailed, fn)
}

// subscribe registers fn and returns a func that removes it again.
func (b *Bus) subscribe(topic string, fn any) (func(), error) {
	if err := b.bus.Subscribe(topic, fn); err != nil {
		return nil, err
	}
	return func() { _ = b.bus.Unsubscribe(topic, fn) }, nil
}
