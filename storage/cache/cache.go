package cache

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/storage/cache/filecache"
	"github.com/trezcool/masomo/storage/cache/memcache"
	"github.com/trezcool/masomo/storage/cache/sqlcache"
)

// Drivers
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQL    = "sql"
)

// Open returns the DurableCache selected by conf.Cache.Driver. db is only used by the sql driver.
func Open(conf *core.Config, db *sqlx.DB) (enrollment.DurableCache, error) {
	switch conf.Cache.Driver {
	case DriverMemory:
		return memcache.New(), nil
	case DriverFile, "":
		return filecache.New(conf.Cache.Path, conf.Cache.ProfileKey), nil
	case DriverSQL:
		if db == nil {
			return nil, errors.New("sql cache driver needs a database")
		}
		if err := sqlcache.EnsureSchema(db); err != nil {
			return nil, err
		}
		return sqlcache.New(db, conf.Cache.ProfileKey), nil
	default:
		return nil, errors.Errorf("unknown cache driver %q", conf.Cache.Driver)
	}
}
