package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophlock/internal/flagx"
	"github.com/dmitrijs2005/gophlock/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Zero values are
// treated as "not set" so a file only needs the keys it changes.
type FileConfig struct {
	StoreDriver   string `json:"store_driver" yaml:"store_driver"`
	DatabasePath  string `json:"database_path" yaml:"database_path"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `json:"redis_prefix" yaml:"redis_prefix"`
	SealKeyPath   string `json:"seal_key_path" yaml:"seal_key_path"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`

	MaxAttempts  int            `json:"max_attempts" yaml:"max_attempts"`
	Cooldown     timex.Duration `json:"cooldown" yaml:"cooldown"`
	TickInterval timex.Duration `json:"tick_interval" yaml:"tick_interval"`

	PasscodeMinLength  int   `json:"passcode_min_length" yaml:"passcode_min_length"`
	PasscodeMaxLength  int   `json:"passcode_max_length" yaml:"passcode_max_length"`
	PasscodeDigitsOnly *bool `json:"passcode_digits_only" yaml:"passcode_digits_only"`

	KDF             string `json:"kdf" yaml:"kdf"`
	ScryptN         int    `json:"scrypt_n" yaml:"scrypt_n"`
	ScryptR         int    `json:"scrypt_r" yaml:"scrypt_r"`
	ScryptP         int    `json:"scrypt_p" yaml:"scrypt_p"`
	Argon2Time      uint32 `json:"argon2_time" yaml:"argon2_time"`
	Argon2MemoryKiB uint32 `json:"argon2_memory_kib" yaml:"argon2_memory_kib"`
	Argon2Threads   uint8  `json:"argon2_threads" yaml:"argon2_threads"`
	KeyLength       int    `json:"key_length" yaml:"key_length"`
	SaltLength      int    `json:"salt_length" yaml:"salt_length"`

	DefaultTokenLifetime timex.Duration `json:"default_token_lifetime" yaml:"default_token_lifetime"`
	Biometric            string         `json:"biometric" yaml:"biometric"`
}

// parseFile overlays the file named by flagx.ConfigFile onto config.
// Nothing happens when no file is configured.
func parseFile(config *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	fc, err := readFile(path)
	if err != nil {
		panic(err)
	}
	fc.apply(config)
}

func readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.StoreDriver, fc.StoreDriver)
	setString(&c.DatabasePath, fc.DatabasePath)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.RedisPassword, fc.RedisPassword)
	setNumber(&c.RedisDB, fc.RedisDB)
	setString(&c.RedisPrefix, fc.RedisPrefix)
	setString(&c.SealKeyPath, fc.SealKeyPath)

	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)

	setNumber(&c.MaxAttempts, fc.MaxAttempts)
	setNumber(&c.Cooldown, fc.Cooldown.Duration)
	setNumber(&c.TickInterval, fc.TickInterval.Duration)

	setNumber(&c.PasscodeMinLength, fc.PasscodeMinLength)
	setNumber(&c.PasscodeMaxLength, fc.PasscodeMaxLength)
	if fc.PasscodeDigitsOnly != nil {
		c.PasscodeDigitsOnly = *fc.PasscodeDigitsOnly
	}

	setString(&c.KDF, fc.KDF)
	setNumber(&c.ScryptN, fc.ScryptN)
	setNumber(&c.ScryptR, fc.ScryptR)
	setNumber(&c.ScryptP, fc.ScryptP)
	setNumber(&c.Argon2Time, fc.Argon2Time)
	setNumber(&c.Argon2MemoryKiB, fc.Argon2MemoryKiB)
	setNumber(&c.Argon2Threads, fc.Argon2Threads)
	setNumber(&c.KeyLength, fc.KeyLength)
	setNumber(&c.SaltLength, fc.SaltLength)

	setNumber(&c.DefaultTokenLifetime, fc.DefaultTokenLifetime.Duration)
	setString(&c.Biometric, fc.Biometric)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

type number interface {
	~int | ~int64 | ~uint8 | ~uint32
}

func setNumber[T number](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}
