package cache

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/storage/cache/filecache"
	"github.com/trezcool/masomo/storage/cache/memcache"
	"github.com/trezcool/masomo/storage/cache/sqlcache"
)

func TestOpen(t *testing.T) {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	tests := []struct {
		name    string
		driver  string
		db      *sqlx.DB
		want    enrollment.DurableCache
		wantErr string
	}{
		{name: "memory", driver: DriverMemory, want: &memcache.Cache{}},
		{name: "file", driver: DriverFile, want: &filecache.Cache{}},
		{name: "default", driver: "", want: &filecache.Cache{}},
		{name: "sql", driver: DriverSQL, db: db, want: &sqlcache.Cache{}},
		{name: "sql without db", driver: DriverSQL, wantErr: "needs a database"},
		{name: "unknown", driver: "redis", wantErr: `unknown cache driver "redis"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &core.Config{Cache: core.CacheConfig{Driver: tt.driver, Path: t.TempDir(), ProfileKey: "test"}}

			c, err := Open(conf, tt.db)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)

			require.NoError(t, c.Set(enrollment.NewIDSet(3)))
			assert.True(t, c.Get().Has(3))
		})
	}
}
