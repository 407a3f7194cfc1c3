package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))

	var n int
	require.NoError(t, db.Client.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('administrators','activities','students','check_ins')`))
	assert.Equal(t, 4, n)
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.Client.ExecContext(ctx, `INSERT INTO administrators (username, password_hash, email) VALUES ('admin', 'x', 'admin@example.com')`)
	require.NoError(t, err)

	_, err = db.Client.ExecContext(ctx, `INSERT INTO administrators (username, password_hash, email) VALUES ('admin', 'y', 'other@example.com')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}

func TestIsUniqueViolationPostgres(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "uq_check_ins_activity_student"}, true},
		{"wrapped unique violation", fmt.Errorf("insert check-in: %w", &pgconn.PgError{Code: "23505"}), true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"wrapped not-null violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23502"}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err))
		})
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Client.ExecContext(context.Background(),
		`INSERT INTO activities (name, start_time, end_time, created_by) VALUES ('x', '2024-01-01 00:00:00', '2024-01-01 01:00:00', 99)`)
	assert.Error(t, err)
}

func TestRunInTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO administrators (username, password_hash, email) VALUES ('a', 'x', 'a@example.com')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.Client.Get(&n, `SELECT COUNT(*) FROM administrators`))
	assert.Equal(t, 0, n)
}

func TestNilRedisIsUnhealthy(t *testing.T) {
	r := NewRedis("")
	assert.Nil(t, r)
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())
}
