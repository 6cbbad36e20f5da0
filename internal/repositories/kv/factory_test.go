package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Drivers(t *testing.T) {
	_, client := newRedis(t)
	db := setupDB(t)

	tests := []struct {
		name    string
		cfg     Config
		deps    Dependencies
		want    any
		wantErr string
	}{
		{name: "default is sqlite", cfg: Config{Namespace: NamespaceSecure}, deps: Dependencies{SQLiteDB: db}, want: &SQLiteRepository{}},
		{name: "memory", cfg: Config{Driver: DriverMemory, Namespace: NamespacePreferences}, want: &MemoryRepository{}},
		{name: "redis", cfg: Config{Driver: DriverRedis, Namespace: NamespaceSecure}, deps: Dependencies{Redis: client}, want: &RedisRepository{}},
		{name: "sealed", cfg: Config{Driver: DriverMemory, Namespace: NamespaceSecure, SealKey: sealKey()}, want: &SealedRepository{}},
		{name: "sqlite without db", cfg: Config{Driver: DriverSQLite, Namespace: NamespaceSecure}, wantErr: "requires database handle"},
		{name: "redis without client", cfg: Config{Driver: DriverRedis, Namespace: NamespaceSecure}, wantErr: "requires client"},
		{name: "unknown driver", cfg: Config{Driver: "etcd", Namespace: NamespaceSecure}, wantErr: "unsupported kv driver"},
		{name: "unknown namespace", cfg: Config{Driver: DriverMemory, Namespace: "sessions"}, wantErr: "unknown kv namespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := New(tt.cfg, tt.deps)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, repo)
		})
	}
}
