package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GOPHLOCK_"

// dotEnvFile is loaded before the environment is read. Variables that are
// already set win over the file.
var dotEnvFile = ".env"

// parseEnv overlays GOPHLOCK_* environment variables onto config.
func parseEnv(config *Config) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load %s: %w", dotEnvFile, err))
	}

	envString("STORE_DRIVER", &config.StoreDriver)
	envString("DATABASE_PATH", &config.DatabasePath)
	envString("REDIS_ADDR", &config.RedisAddr)
	envString("REDIS_PASSWORD", &config.RedisPassword)
	envInt("REDIS_DB", &config.RedisDB)
	envString("REDIS_PREFIX", &config.RedisPrefix)
	envString("SEAL_KEY_PATH", &config.SealKeyPath)

	envString("LOG_LEVEL", &config.LogLevel)
	envString("LOG_FORMAT", &config.LogFormat)

	envInt("MAX_ATTEMPTS", &config.MaxAttempts)
	envDuration("COOLDOWN", &config.Cooldown)
	envDuration("TICK_INTERVAL", &config.TickInterval)

	envInt("PASSCODE_MIN_LENGTH", &config.PasscodeMinLength)
	envInt("PASSCODE_MAX_LENGTH", &config.PasscodeMaxLength)
	envBool("PASSCODE_DIGITS_ONLY", &config.PasscodeDigitsOnly)

	envString("KDF", &config.KDF)
	envInt("SCRYPT_N", &config.ScryptN)
	envInt("KEY_LENGTH", &config.KeyLength)
	envInt("SALT_LENGTH", &config.SaltLength)

	envDuration("DEFAULT_TOKEN_LIFETIME", &config.DefaultTokenLifetime)
	envString("BIOMETRIC", &config.Biometric)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
	}
	*dst = n
}

func envBool(name string, dst *bool) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
	}
	*dst = b
}

func envDuration(name string, dst *time.Duration) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
	}
	*dst = d
}
