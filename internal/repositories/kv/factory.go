package kv

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Driver identifiers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects the driver for a namespace.
type Config struct {
	Driver      string
	Namespace   string
	RedisPrefix string
	// SealKey, when set, wraps the repository in AES-GCM sealing.
	SealKey []byte
}

// Dependencies carries the handles that only some drivers need.
type Dependencies struct {
	SQLiteDB *sql.DB
	Redis    redis.UniversalClient
}

// New creates a repository for cfg.Namespace on the configured driver.
func New(cfg Config, deps Dependencies) (Repository, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		repo Repository
		err  error
	)

	switch driver {
	case DriverSQLite:
		if deps.SQLiteDB == nil {
			return nil, fmt.Errorf("sqlite driver requires database handle")
		}
		repo, err = NewSQLiteRepository(deps.SQLiteDB, cfg.Namespace)
	case DriverMemory:
		if _, ok := tables[cfg.Namespace]; !ok {
			return nil, fmt.Errorf("unknown kv namespace %q", cfg.Namespace)
		}
		repo = NewMemoryRepository()
	case DriverRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis driver requires client")
		}
		repo, err = NewRedisRepository(deps.Redis, cfg.RedisPrefix, cfg.Namespace)
	default:
		return nil, fmt.Errorf("unsupported kv driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}

	if len(cfg.SealKey) > 0 {
		return NewSealedRepository(repo, cfg.SealKey)
	}
	return repo, nil
}
