package config

import (
	"time"
)

// Config holds runtime settings for the gophlock CLI.
type Config struct {
	StoreDriver   string
	DatabasePath  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	SealKeyPath   string

	LogLevel  string
	LogFormat string

	MaxAttempts  int
	Cooldown     time.Duration
	TickInterval time.Duration

	PasscodeMinLength  int
	PasscodeMaxLength  int
	PasscodeDigitsOnly bool

	// KDF is "scrypt" or "argon2id". KeyLength 0 picks the KDF's default.
	KDF             string
	ScryptN         int
	ScryptR         int
	ScryptP         int
	Argon2Time      uint32
	Argon2MemoryKiB uint32
	Argon2Threads   uint8
	KeyLength       int
	SaltLength      int

	DefaultTokenLifetime time.Duration
	Biometric            string
}

// LoadDefaults populates c with the values used when nothing is configured.
func (c *Config) LoadDefaults() {
	c.StoreDriver = "sqlite"
	c.DatabasePath = "gophlock.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPrefix = "gophlock:"

	c.LogLevel = "info"
	c.LogFormat = "text"

	c.MaxAttempts = 5
	c.Cooldown = 300 * time.Second
	c.TickInterval = time.Second

	c.PasscodeMinLength = 4
	c.PasscodeMaxLength = 6
	c.PasscodeDigitsOnly = true

	c.KDF = "scrypt"
	c.ScryptN = 1 << 15
	c.ScryptR = 8
	c.ScryptP = 1
	c.Argon2Time = 1
	c.Argon2MemoryKiB = 64 * 1024
	c.Argon2Threads = 4
	c.SaltLength = 32

	c.DefaultTokenLifetime = 15 * time.Minute
	c.Biometric = "unavailable"
}

// LoadConfig builds a Config from defaults, the config file, the environment
// and flags, in that order. It panics on an unreadable or malformed source.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
