package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/annotation-engine/internal/config"
)

func TestSchemaFor(t *testing.T) {
	sqlite := schemaFor("sqlite")
	assert.Contains(t, sqlite, "source_pdf BLOB")
	assert.Contains(t, sqlite, "TIMESTAMP NOT NULL")

	// Postgres has no BLOB type; blob-carrying columns must be BYTEA so
	// []byte parameters bind, and the migration must parse server-side.
	postgres := schemaFor("postgres")
	assert.NotContains(t, postgres, "BLOB")
	assert.Contains(t, postgres, "source_pdf BYTEA")
	assert.Contains(t, postgres, "template   BYTEA NOT NULL")
	assert.Contains(t, postgres, "TIMESTAMPTZ NOT NULL")

	assert.Equal(t, sqlite, schemaFor(""), "sqlite DDL is the fallback")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
