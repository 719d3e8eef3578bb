package store

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"callcenter-platform/migrations"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"000002_calls.up.sql":  {Data: []byte("CREATE TABLE calls (id UUID)")},
		"000001_init.up.sql":   {Data: []byte("CREATE TABLE tenants (id UUID)")},
		"000001_init.down.sql": {Data: []byte("DROP TABLE tenants")},
		"README.md":            {Data: []byte("notes")},
	}
}

func TestLoadMigrations_SortedUpFilesOnly(t *testing.T) {
	got, err := LoadMigrations(testMigrations())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "000001", got[0].Version)
	assert.Equal(t, "000001_init", got[0].Name)
	assert.Equal(t, "000002_calls", got[1].Name)
}

func TestLoadMigrations_EmbeddedSchemaIsTenantScoped(t *testing.T) {
	got, err := LoadMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, table := range []string{"leads", "campaigns", "campaign_leads", "calls", "ai_configurations", "audit_events"} {
		re := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \(.*?tenant_id\s+UUID NOT NULL (UNIQUE )?REFERENCES tenants\(id\) ON DELETE CASCADE`)
		assert.True(t, re.MatchString(got[0].SQL), "table %s must carry tenant_id", table)
	}
}

func TestMigrator_UpAppliesPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version, applied_at FROM schema_migrations")).
		WillReturnRows(pgxmock.NewRows([]string{"version", "applied_at"}).AddRow("000001", time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE calls (id UUID)")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")).
		WithArgs("000002").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	applied, err := NewMigrator(mock, testMigrations()).Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_calls"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_Status(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version, applied_at FROM schema_migrations")).
		WillReturnRows(pgxmock.NewRows([]string{"version", "applied_at"}).AddRow("000001", at))

	st, err := NewMigrator(mock, testMigrations()).Status(context.Background())
	require.NoError(t, err)
	require.Len(t, st, 2)
	require.NotNil(t, st[0].AppliedAt)
	assert.True(t, st[0].AppliedAt.Equal(at))
	assert.Nil(t, st[1].AppliedAt)
}
