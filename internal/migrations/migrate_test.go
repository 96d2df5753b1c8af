package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anvoria/sessionly/internal/config"
)

// TestRunMigrations_InvalidConfig tests migration with an unreachable database
func TestRunMigrations_InvalidConfig(t *testing.T) {
	t.Run("unreachable database", func(t *testing.T) {
		cfg := &config.Config{
			Database: config.DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     1,
				User:     "invalid",
				Password: "invalid",
				DBName:   "invalid",
				SSLMode:  "disable",
			},
		}

		err := RunMigrations(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create migrate instance")
	})

	t.Run("nil config", func(t *testing.T) {
		assert.Error(t, RunMigrations(nil))
	})
}

func TestMigrationFiles(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "sql")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		assert.Regexp(t, `^\d{6}_[a-z_]+\.(up|down)\.sql$`, name)
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	assert.Len(t, ups, 3)
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
}

func TestMigrationSQL_SessionsTable(t *testing.T) {
	raw, err := fs.ReadFile(migrationFS, "sql/000002_create_sessions_table.up.sql")
	require.NoError(t, err)
	sql := string(raw)

	assert.Contains(t, sql, "idx_sessions_account_token ON sessions (account_id, session_token)")
	assert.Contains(t, sql, "WHERE active", "active session tokens must be unique per account")
	assert.Contains(t, sql, "refresh_token_hash IS NULL", "inactive rows must have no refresh token")
}
