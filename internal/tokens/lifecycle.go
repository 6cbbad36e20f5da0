// Package tokens tracks the single current authorization token and its
// expiry. Tokens are opaque to callers; they are HS256 JWTs signed with a
// secret that lives only as long as the process.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/clock"
	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/events"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultHistorySize  = 32
	DefaultTickInterval = time.Second
	secretLength        = 32
)

type Token struct {
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Signed    string
}

// ExpiredAt reports whether the token is no longer valid at now.
func (t Token) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Publisher is the subset of events.Bus the lifecycle needs.
type Publisher interface {
	Publish(topic string, payload any)
}

type Config struct {
	TickInterval time.Duration
	HistorySize  int
}

type Lifecycle struct {
	cfg    Config
	clock  clock.Clock
	bus    Publisher
	log    logging.Logger
	secret []byte

	mu         sync.Mutex
	current    *Token
	history    []Token
	cancelTick func()
}

func New(cfg Config, clk clock.Clock, bus Publisher, log logging.Logger) (*Lifecycle, error) {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}

	secret, err := common.RandomBytes(secretLength)
	if err != nil {
		return nil, fmt.Errorf("generate token secret: %w", err)
	}

	return &Lifecycle{
		cfg:    cfg,
		clock:  clk,
		bus:    bus,
		log:    log.With("component", "tokens"),
		secret: secret,
	}, nil
}

// Issue replaces the current token with a new one valid for lifetime.
func (l *Lifecycle) Issue(lifetime time.Duration) (Token, error) {
	if lifetime <= 0 {
		return Token{}, fmt.Errorf("%w: token lifetime must be positive", common.ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.invalidateLocked()

	now := l.clock.Now()
	tok := Token{
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(lifetime),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tok.ID,
		IssuedAt:  jwt.NewNumericDate(tok.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(tok.ExpiresAt),
	}).SignedString(l.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	tok.Signed = signed

	l.current = &tok
	l.cancelTick = l.clock.Every(l.cfg.TickInterval, l.Tick)
	return tok, nil
}

// InvalidateCurrent moves the current token to history. It reports false
// when there was none.
func (l *Lifecycle) InvalidateCurrent() (Token, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.invalidateLocked()
}

// Tick drops the current token once it has expired and publishes TokenExpired.
func (l *Lifecycle) Tick() {
	l.mu.Lock()
	if l.current == nil {
		l.mu.Unlock()
		return
	}
	now := l.clock.Now()
	if !l.current.ExpiredAt(now) {
		l.mu.Unlock()
		return
	}
	tok, _ := l.invalidateLocked()
	l.mu.Unlock()

	l.log.Info(context.Background(), "token expired", "token_id", tok.ID)
	l.bus.Publish(events.TopicTokenExpired, events.TokenExpired{TokenID: tok.ID, ExpiredAt: tok.ExpiresAt})
}

// IsAuthenticated reports whether an unexpired current token exists.
func (l *Lifecycle) IsAuthenticated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil && !l.current.ExpiredAt(l.clock.Now())
}

func (l *Lifecycle) Current() (Token, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return Token{}, false
	}
	return *l.current, true
}

// History returns invalidated tokens, oldest first.
func (l *Lifecycle) History() []Token {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Token, len(l.history))
	copy(out, l.history)
	return out
}

// Validate accepts a signed token only if it verifies, has not expired and
// is still the current token.
func (l *Lifecycle) Validate(signed string) (Token, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return l.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(l.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Token{}, common.ErrTokenExpired
		}
		return Token{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil || l.current.ID != claims.ID {
		return Token{}, common.ErrInvalidToken
	}
	if l.current.ExpiredAt(l.clock.Now()) {
		return Token{}, common.ErrTokenExpired
	}
	return *l.current, nil
}

// Stop cancels the expiry ticker. The current token stays in place.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopTickLocked()
}

func (l *Lifecycle) invalidateLocked() (Token, bool) {
	l.stopTickLocked()
	if l.current == nil {
		return Token{}, false
	}
	tok := *l.current
	l.current = nil

	l.history = append(l.history, tok)
	if over := len(l.history) - l.cfg.HistorySize; over > 0 {
		l.history = append([]Token(nil), l.history[over:]...)
	}
	return tok, true
}

func (l *Lifecycle) stopTickLocked() {
	if l.cancelTick != nil {
		l.cancelTick()
		l.cancelTick = nil
	}
}
