package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := DatabaseConfig{File: filepath.Join(t.TempDir(), "db", "chcrawler.db")}.OpenDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(context.Background(), db)
	require.NoError(t, err)
	return store
}

func TestStoreSave(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	report := sampleReport()

	require.NoError(t, store.Save(ctx, report))

	runs, err := store.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "a1b2c3d4", runs[0].ID)
	require.Equal(t, 2, runs[0].Queries)
	require.Equal(t, 1, runs[0].Matches)
	require.Equal(t, report.Elapsed, runs[0].Elapsed)
	require.True(t, report.StartedAt.Equal(runs[0].StartedAt))

	var histories, officers int
	require.NoError(t, store.db.QueryRowContext(ctx, "select count(*) from histories where run_id = ?", "a1b2c3d4").Scan(&histories))
	require.NoError(t, store.db.QueryRowContext(ctx, "select count(*) from officers where run_id = ?", "a1b2c3d4").Scan(&officers))
	require.Equal(t, 6, histories)
	require.Equal(t, 2, officers)

	var dissolved, failure *string
	require.NoError(t, store.db.QueryRowContext(ctx, "select dissolved from records where run_id = ? and number = 1", "a1b2c3d4").Scan(&dissolved))
	require.Nil(t, dissolved)
	require.NoError(t, store.db.QueryRowContext(ctx, "select failure from queries where run_id = ? and position = 1", "a1b2c3d4").Scan(&failure))
	require.NotNil(t, failure)
	require.Contains(t, *failure, "connection reset")
}

func TestStoreSaveDuplicateRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, sampleReport()))
	err := store.Save(ctx, sampleReport())
	require.True(t, errors.Is(err, ErrOutput))

	// the failed transaction leaves nothing behind
	var records int
	require.NoError(t, store.db.QueryRowContext(ctx, "select count(*) from records").Scan(&records))
	require.Equal(t, 1, records)
}

func TestNewStoreIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	_, err := NewStore(context.Background(), store.db)
	require.NoError(t, err)
}

func TestParseDatabase(t *testing.T) {
	testCases := []struct {
		input    string
		expected DatabaseConfig
	}{
		{input: "out/chcrawler.db", expected: DatabaseConfig{File: "out/chcrawler.db"}},
		{input: " libsql://crawls-acme.turso.io ", expected: DatabaseConfig{Url: "libsql://crawls-acme.turso.io"}},
		{input: "http://127.0.0.1:8080", expected: DatabaseConfig{Url: "http://127.0.0.1:8080"}},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, ParseDatabase(test.input), test.input)
	}

	_, err := DatabaseConfig{}.OpenDB()
	require.Error(t, err)
}
