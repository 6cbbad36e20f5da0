// Package config loads runtime configuration for the gophlock CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c / -config or $GOPHLOCK_CONFIG.
//     Files ending in .yaml or .yml are read as YAML, anything else as JSON.
//  3. Environment: a .env file in the working directory is loaded first if
//     present, then GOPHLOCK_* variables are applied.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-s string   storage driver: sqlite, memory or redis
//	-d string   sqlite database path
//	-r string   redis address (host:port)
//	-k string   seal key file; empty disables sealing
//	-l string   log level: debug, info, warn, error
//	-m int      failed attempts before lockout
//	-w int      lockout cooldown (seconds)
//	-t string   default token lifetime (e.g. "15m")
//	-b string   biometric mode: unavailable, console, allow, deny
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "300s" or
// integer nanoseconds:
//
//	{
//	  "store_driver": "sqlite",
//	  "database_path": "gophlock.db",
//	  "max_attempts": 5,
//	  "cooldown": "300s",
//	  "default_token_lifetime": "15m",
//	  "kdf": "scrypt"
//	}
//
// The same keys work in YAML.
package config
