package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		conf core.DatabaseConfig
		want string
	}{
		{
			name: "sqlite",
			conf: core.DatabaseConfig{Engine: "sqlite3", Name: "/tmp/masomo.db"},
			want: "/tmp/masomo.db",
		},
		{
			name: "postgres",
			conf: core.DatabaseConfig{Engine: "postgres", Host: "db", Port: 5432, Name: "masomo", User: "amani", Password: "s3cr3t"},
			want: "postgres://amani:s3cr3t@db:5432/masomo?sslmode=require&timezone=utc",
		},
		{
			name: "postgres without tls",
			conf: core.DatabaseConfig{Engine: "postgres", Host: "localhost", Port: 5433, Name: "masomo", User: "amani", DisableTLS: true},
			want: "postgres://amani:@localhost:5433/masomo?sslmode=disable&timezone=utc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DSN(tt.conf))
		})
	}
}

func TestOpen_sqlite(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{Engine: "sqlite3", Name: filepath.Join(t.TempDir(), "masomo.db")}}
	db, err := Open(conf)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)
}
