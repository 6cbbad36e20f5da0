package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophlock/internal/auth"
	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/dmitrijs2005/gophlock/internal/clock"
	"github.com/dmitrijs2005/gophlock/internal/config"
	"github.com/dmitrijs2005/gophlock/internal/credentials"
	"github.com/dmitrijs2005/gophlock/internal/cryptox"
	"github.com/dmitrijs2005/gophlock/internal/dbx"
	"github.com/dmitrijs2005/gophlock/internal/events"
	"github.com/dmitrijs2005/gophlock/internal/filex"
	"github.com/dmitrijs2005/gophlock/internal/lockout"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/dmitrijs2005/gophlock/internal/preferences"
	"github.com/dmitrijs2005/gophlock/internal/repositories/kv"
	"github.com/dmitrijs2005/gophlock/internal/tokens"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	core   *auth.Core
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	closers []func() error
}

// syncWriter serializes writes from the REPL and from event handlers that
// run on ticker goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// NewApp builds the full authentication stack described by c. Logs go to
// stderr; the REPL reads in and writes out.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	return newApp(ctx, c, in, out, os.Stderr, clock.Real{})
}

func newApp(ctx context.Context, c *config.Config, in io.Reader, out, logOut io.Writer, clk clock.Clock) (_ *App, err error) {
	a := &App{
		config: c,
		log:    logging.New(logOut, c.LogLevel, c.LogFormat),
		reader: bufio.NewReader(in),
		out:    &syncWriter{w: out},
	}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	secureRepo, prefsRepo, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := cryptox.NewHasher(hashParams(c))
	if err != nil {
		return nil, err
	}

	bus := events.New()
	prefs := preferences.NewStore(prefsRepo)

	limiter := lockout.New(lockout.Config{
		MaxAttempts:  c.MaxAttempts,
		Cooldown:     c.Cooldown,
		TickInterval: c.TickInterval,
	}, clk, prefs, bus, a.log)

	lifecycle, err := tokens.New(tokens.Config{TickInterval: c.TickInterval}, clk, bus, a.log)
	if err != nil {
		return nil, err
	}

	bio, err := biometric.New(c.Biometric, a.reader, a.out)
	if err != nil {
		return nil, err
	}

	a.core, err = auth.New(ctx, auth.Config{
		MinPasscodeLength:    c.PasscodeMinLength,
		MaxPasscodeLength:    c.PasscodeMaxLength,
		DigitsOnly:           c.PasscodeDigitsOnly,
		DefaultTokenLifetime: c.DefaultTokenLifetime,
	}, auth.Deps{
		Hasher:      hasher,
		Credentials: credentials.NewStore(secureRepo),
		Preferences: prefs,
		Limiter:     limiter,
		Tokens:      lifecycle,
		Biometric:   bio,
		Bus:         bus,
		Logger:      a.log,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { a.core.Close(); return nil })

	if err := a.subscribe(); err != nil {
		return nil, err
	}
	return a, nil
}

// openStores opens the secure and preference repositories on the
// configured driver. Only the secure namespace is sealed.
func (a *App) openStores(ctx context.Context) (secure, prefs kv.Repository, err error) {
	c := a.config

	var sealKey []byte
	if c.SealKeyPath != "" {
		sealKey, err = filex.LoadOrCreateKey(c.SealKeyPath, cryptox.SealKeyLength)
		if err != nil {
			return nil, nil, err
		}
	}

	var deps kv.Dependencies
	switch c.StoreDriver {
	case kv.DriverSQLite, "":
		db, err := dbx.OpenSQLite(ctx, c.DatabasePath, a.log)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		deps.SQLiteDB = db
	case kv.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis %s: %w", c.RedisAddr, err)
		}
		deps.Redis = client
	}

	secure, err = kv.New(kv.Config{
		Driver:      c.StoreDriver,
		Namespace:   kv.NamespaceSecure,
		RedisPrefix: c.RedisPrefix,
		SealKey:     sealKey,
	}, deps)
	if err != nil {
		return nil, nil, err
	}

	prefs, err = kv.New(kv.Config{
		Driver:      c.StoreDriver,
		Namespace:   kv.NamespacePreferences,
		RedisPrefix: c.RedisPrefix,
	}, deps)
	if err != nil {
		return nil, nil, err
	}

	a.log.Debug(ctx, "stores opened", "driver", c.StoreDriver, "sealed", sealKey != nil)
	return secure, prefs, nil
}

// hashParams maps the KDF settings onto cryptox.Params. argon2id defaults to
// a 32 byte key unless KeyLength says otherwise.
func hashParams(c *config.Config) cryptox.Params {
	p := cryptox.DefaultParams()
	p.KDF = c.KDF
	p.N = c.ScryptN
	p.R = c.ScryptR
	p.P = c.ScryptP
	p.Time = c.Argon2Time
	p.MemoryKiB = c.Argon2MemoryKiB
	p.Threads = c.Argon2Threads
	if c.KDF == cryptox.KDFArgon2id {
		p.KeyLength = 32
	}
	if c.KeyLength > 0 {
		p.KeyLength = c.KeyLength
	}
	if c.SaltLength > 0 {
		p.SaltLength = c.SaltLength
	}
	return p
}

// subscribe reports lockout and token events as they happen. Handlers only
// print their payload; they must not call back into the core.
func (a *App) subscribe() error {
	if _, err := a.core.SubscribeLockoutStarted(func(e events.LockoutStarted) {
		fmt.Fprintf(a.out, "\nToo many failed attempts. Locked for %s.\n", formatSeconds(e.Remaining))
	}); err != nil {
		return err
	}
	if _, err := a.core.SubscribeLockoutTick(func(e events.LockoutTick) {
		if s := ceilSeconds(e.Remaining); s <= 5 || s%60 == 0 {
			fmt.Fprintf(a.out, "\nLocked: %s remaining.\n", formatSeconds(e.Remaining))
		}
	}); err != nil {
		return err
	}
	if _, err := a.core.SubscribeLockoutEnded(func(events.LockoutEnded) {
		fmt.Fprintln(a.out, "\nLockout ended. You can try again.")
	}); err != nil {
		return err
	}
	if _, err := a.core.SubscribeTokenExpired(func(events.TokenExpired) {
		fmt.Fprintln(a.out, "\nSession expired. Please log in again.")
	}); err != nil {
		return err
	}
	return nil
}

// Run starts the REPL and releases every resource when it returns.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to gophlock (type 'help' for commands)")
	runREPL(ctx, a, a.prompt, a.reader, a.out)
}

// Close stops background tickers and closes the stores.
func (a *App) Close() {
	a.closeResources()
}

func (a *App) closeResources() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn(context.Background(), "failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
