package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "tx.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = sqlDB.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	logger, _ := zap.NewDevelopment()
	return NewDB(sqlDB, logger)
}

func count(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
	return n
}

func TestWithTransaction_Commit(t *testing.T) {
	db := newTestDB(t)

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		_, err := Executor(ctx, db.DB).ExecContext(ctx, "INSERT INTO items (name) VALUES ('a')")
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	boom := errors.New("boom")

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := Executor(ctx, db.DB).ExecContext(ctx, "INSERT INTO items (name) VALUES ('a')"); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db))
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	db := newTestDB(t)

	assert.Panics(t, func() {
		_ = db.WithTransaction(context.Background(), func(ctx context.Context) error {
			_, _ = Executor(ctx, db.DB).ExecContext(ctx, "INSERT INTO items (name) VALUES ('a')")
			panic("kaboom")
		})
	})
	assert.Equal(t, 0, count(t, db))
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	db := newTestDB(t)

	err := db.WithTransaction(context.Background(), func(outer context.Context) error {
		outerTx := extractTx(outer)
		return db.WithTransaction(outer, func(inner context.Context) error {
			assert.Same(t, outerTx, extractTx(inner))
			return nil
		})
	})
	require.NoError(t, err)
}

func TestExecutor_WithoutTransaction(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, Querier(db.DB), Executor(context.Background(), db.DB))
}
