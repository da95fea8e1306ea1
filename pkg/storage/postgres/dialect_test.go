package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDialect_UpsertSQL(t *testing.T) {
	sql := NewPostgresDialect().UpsertSQL("t", []string{"id", "name"}, "id", []string{"name"})
	assert.Equal(t, "INSERT INTO t (id, name) VALUES (:id, :name) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name", sql)
}

func TestPostgresDialect_CreateTableSQL(t *testing.T) {
	ddl := NewPostgresDialect().CreateTableSQL("create_time DATETIME NOT NULL")
	assert.Equal(t, "create_time TIMESTAMP NOT NULL", ddl)
}

func TestNormalizeDSN(t *testing.T) {
	kv := "host=localhost dbname=captree sslmode=disable"
	got, err := NormalizeDSN(kv)
	require.NoError(t, err)
	assert.Equal(t, kv, got)

	got, err = NormalizeDSN("postgres://u:p@localhost:5432/captree?sslmode=disable")
	require.NoError(t, err)
	assert.Contains(t, got, "dbname=captree")
	assert.Contains(t, got, "host=localhost")
}
