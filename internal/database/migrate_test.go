package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		base := strings.TrimPrefix(n, "migrations/")
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			ups[strings.TrimSuffix(base, ".up.sql")] = true
		case strings.HasSuffix(base, ".down.sql"):
			downs[strings.TrimSuffix(base, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", base)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrationsHoldOneStatement(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	for _, n := range names {
		b, err := migrationsFS.ReadFile(n)
		require.NoError(t, err)
		body := strings.TrimSpace(string(b))
		assert.Equal(t, 1, strings.Count(body, ";"), n)
		assert.True(t, strings.HasSuffix(body, ";"), n)
	}
}

func TestSchemaKeepsUniqueKeyNames(t *testing.T) {
	users, err := migrationsFS.ReadFile("migrations/000001_create_users.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(users), "uq_users_username")
	assert.Contains(t, string(users), "uq_users_email")

	stadiums, err := migrationsFS.ReadFile("migrations/000002_create_stadiums.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(stadiums), "uq_stadiums_name")
}

func TestDSN(t *testing.T) {
	dsn := Config{User: "goal", Pass: "pw", Host: "db", Port: "3306", Name: "goaltime"}.DSN()
	assert.True(t, strings.HasPrefix(dsn, "goal:pw@tcp(db:3306)/goaltime?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
