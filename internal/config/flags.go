package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// os.Args is first narrowed with flagx.FilterArgs so -c/-config and any
// flags owned by other loaders do not trip this FlagSet. The cooldown is
// given in whole seconds and only replaces the configured value when the
// flag is present; the token lifetime is a Go duration string.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-d", "-r", "-k", "-l", "-m", "-w", "-t", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.StoreDriver, "s", config.StoreDriver, "storage driver (sqlite, memory, redis)")
	fs.StringVar(&config.DatabasePath, "d", config.DatabasePath, "sqlite database path")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.SealKeyPath, "k", config.SealKeyPath, "seal key file (empty disables sealing)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.MaxAttempts, "m", config.MaxAttempts, "failed attempts before lockout")

	cooldown := fs.Int("w", int(config.Cooldown.Seconds()), "lockout cooldown (in seconds)")
	fs.DurationVar(&config.DefaultTokenLifetime, "t", config.DefaultTokenLifetime, "default token lifetime")

	fs.StringVar(&config.Biometric, "b", config.Biometric, "biometric mode (unavailable, console, allow, deny)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "w" {
			config.Cooldown = time.Duration(*cooldown) * time.Second
		}
	})
}
