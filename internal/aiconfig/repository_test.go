package aiconfig

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_SaveUpsertsOnTenant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	d := Defaults()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO ai_configurations \(.*\) VALUES \(.*\) ON CONFLICT \(tenant_id\) DO UPDATE SET intent_actions = EXCLUDED.intent_actions, language = EXCLUDED.language, .* voice = EXCLUDED.voice, wait_for_greeting = EXCLUDED.wait_for_greeting, updated_at = NOW\(\) RETURNING id, tenant_id`).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			"a1", tenantX, "", "", "nat", "normal", "professional", "en-US",
			300, 0.7, true, true, d.IntentActions, now, now))

	c, err := NewPostgresRepo(mock).Save(context.Background(), scopeOf(t, tenantX), d)
	require.NoError(t, err)
	assert.Equal(t, "a1", c.ID)
	assert.Equal(t, "log_and_end", c.IntentActions["not_interested"].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_GetIsScoped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .* FROM ai_configurations WHERE tenant_id = \$1 LIMIT 1`).
		WithArgs(tenantY).
		WillReturnRows(pgxmock.NewRows(columns))

	_, err = NewPostgresRepo(mock).Get(context.Background(), scopeOf(t, tenantY))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
