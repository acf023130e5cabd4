package sqlcache

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo/core/enrollment"
)

const schema = `
CREATE TABLE IF NOT EXISTS local_request_marks (
	profile_key   VARCHAR(255) PRIMARY KEY,
	formation_ids TEXT         NOT NULL,
	updated_at    TIMESTAMP    NULL
)`

type markRow struct {
	ProfileKey   string    `db:"profile_key"`
	FormationIDs string    `db:"formation_ids"`
	UpdatedAt    null.Time `db:"updated_at"`
}

// Cache stores the marks of one profile as a JSON array in the local_request_marks table.
type Cache struct {
	db  *sqlx.DB
	key string
}

var _ enrollment.DurableCache = (*Cache)(nil) // interface compliance check

func New(db *sqlx.DB, profileKey string) *Cache {
	return &Cache{db: db, key: profileKey}
}

// EnsureSchema creates the marks table if needed.
func EnsureSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "creating local_request_marks")
	}
	return nil
}

func (c *Cache) row() (markRow, error) {
	var r markRow
	q := c.db.Rebind(`SELECT profile_key, formation_ids, updated_at FROM local_request_marks WHERE profile_key = ?`)
	if err := c.db.Get(&r, q, c.key); err != nil {
		return markRow{}, err
	}
	return r, nil
}

// Load reads the stored marks. A missing row is an empty set.
func (c *Cache) Load() (enrollment.IDSet, error) {
	r, err := c.row()
	if err == sql.ErrNoRows {
		return enrollment.NewIDSet(), nil
	} else if err != nil {
		return nil, errors.Wrap(err, "querying request marks")
	}
	return enrollment.UnmarshalIDs([]byte(r.FormationIDs))
}

// Get is Load with unreadable or corrupt data read as an empty set.
func (c *Cache) Get() enrollment.IDSet {
	ids, err := c.Load()
	if err != nil {
		return enrollment.NewIDSet()
	}
	return ids
}

func (c *Cache) Set(ids enrollment.IDSet) error {
	data, err := enrollment.MarshalIDs(ids)
	if err != nil {
		return err
	}
	q := c.db.Rebind(`
		INSERT INTO local_request_marks (profile_key, formation_ids, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (profile_key) DO UPDATE SET formation_ids = excluded.formation_ids, updated_at = excluded.updated_at`)
	if _, err = c.db.Exec(q, c.key, string(data), null.TimeFrom(time.Now().UTC())); err != nil {
		return errors.Wrap(err, "saving request marks")
	}
	return nil
}

// UpdatedAt returns the time of the last Set; invalid when nothing was stored.
func (c *Cache) UpdatedAt() null.Time {
	r, err := c.row()
	if err != nil {
		return null.Time{}
	}
	return r.UpdatedAt
}
