package db

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups), "every up migration needs a down migration")

	b, err := fs.ReadFile(migrationsFS, "migrations/000001_create_uploads.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "CREATE TABLE IF NOT EXISTS uploads")
}
