package pgengine_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobsterload/lobsterload/workload/pgengine"
)

// integrationDSN needs a live Postgres. The DSN must name a throwaway
// database: the bootstrapper drops and recreates it.
func integrationDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("LOBSTERLOAD_TEST_DSN")
	if dsn == "" {
		t.Skip("set LOBSTERLOAD_TEST_DSN to run database integration tests")
	}

	return dsn
}

func Test_Bootstrap_RunningTwice_YieldsSameSchemaState(t *testing.T) {
	dsn := integrationDSN(t)
	ctx := context.Background()

	require.NoError(t, pgengine.Bootstrap(ctx, dsn, "original", nil))
	first := describeSchema(t, ctx, dsn)

	require.NoError(t, pgengine.Bootstrap(ctx, dsn, "original", nil))
	second := describeSchema(t, ctx, dsn)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func Test_Bootstrap_LeavesEmptyTablesAndTheSeedTag(t *testing.T) {
	dsn := integrationDSN(t)
	ctx := context.Background()

	require.NoError(t, pgengine.Bootstrap(ctx, dsn, "original", nil))

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = conn.Close(ctx) }()

	var tag string
	require.NoError(t, conn.QueryRow(ctx, "SELECT tag FROM tags").Scan(&tag))
	assert.Equal(t, "test", tag)

	for _, table := range []string{"users", "stories", "comments", "votes", "keystores"} {
		var count int
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		require.NoError(t, conn.QueryRow(ctx, query).Scan(&count))
		assert.Zero(t, count, table)
	}
}

// describeSchema lists every column and view of the public schema plus
// the seeded tag rows, enough to tell two bootstrap outcomes apart.
func describeSchema(t *testing.T, ctx context.Context, dsn string) []string {
	t.Helper()

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = conn.Close(ctx) }()

	var entries []string

	rows, err := conn.Query(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`)
	require.NoError(t, err)
	for rows.Next() {
		var table, column, dataType string
		require.NoError(t, rows.Scan(&table, &column, &dataType))
		entries = append(entries, table+"."+column+" "+dataType)
	}
	require.NoError(t, rows.Err())

	rows, err = conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.views
		WHERE table_schema = 'public'
		ORDER BY table_name`)
	require.NoError(t, err)
	for rows.Next() {
		var view string
		require.NoError(t, rows.Scan(&view))
		entries = append(entries, "view "+view)
	}
	require.NoError(t, rows.Err())

	rows, err = conn.Query(ctx, "SELECT tag FROM tags ORDER BY tag")
	require.NoError(t, err)
	for rows.Next() {
		var tag string
		require.NoError(t, rows.Scan(&tag))
		entries = append(entries, "tag "+tag)
	}
	require.NoError(t, rows.Err())

	return entries
}
