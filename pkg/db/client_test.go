package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

type bakeBatch struct {
	ID     int
	Flavor string
}

func openSQLite(t *testing.T, name string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&bakeBatch{}))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func countBatches(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&bakeBatch{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	conn := openSQLite(t, "withtx_commit")
	client := NewFromGorm(conn)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&bakeBatch{Flavor: "vanilla"}).Error
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, countBatches(t, conn))
}

func TestWithTxRollsBackOnErrorAndPanic(t *testing.T) {
	conn := openSQLite(t, "withtx_rollback")
	client := NewFromGorm(conn)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&bakeBatch{Flavor: "lemon"}).Error)
		return errors.New("oven failure")
	})
	require.EqualError(t, err, "oven failure")
	require.Zero(t, countBatches(t, conn))

	require.Panics(t, func() {
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&bakeBatch{Flavor: "mocha"}).Error)
			panic("dropped tray")
		})
	})
	require.Zero(t, countBatches(t, conn))
}

func TestPing(t *testing.T) {
	client := NewFromGorm(openSQLite(t, "ping"))
	require.NoError(t, client.Ping(context.Background()))
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	ql := newQueryLogger(logg, 50*time.Millisecond)
	stmt := func() (string, int64) { return "SELECT * FROM products", 3 }
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), stmt, nil)
	require.Zero(t, buf.Len(), "fast successful queries stay quiet")

	ql.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	require.Zero(t, buf.Len(), "record not found is not a failure")

	ql.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	require.Contains(t, buf.String(), "db.query_slow")
	require.Contains(t, buf.String(), "SELECT * FROM products")

	buf.Reset()
	ql.Trace(ctx, time.Now(), stmt, errors.New("relation missing"))
	require.Contains(t, buf.String(), "db.query_failed")

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("relation missing"))
	require.Zero(t, buf.Len(), "silent mode drops everything")
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_cart_lines_user_product"}

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"wrapped pgx", fmt.Errorf("insert: %w", pgErr), "", true},
		{"named constraint", pgErr, "idx_cart_lines_user_product", true},
		{"other constraint", pgErr, "users_email_key", false},
		{"lib/pq", &pq.Error{Code: "23505"}, "", true},
		{"sqlite", errors.New("UNIQUE constraint failed: newsletter_subscribers.email"), "", true},
		{"serialization", &pgconn.PgError{Code: "40001"}, "", false},
		{"nil", nil, "", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsUniqueViolation(tc.err, tc.constraint), tc.name)
	}
}

func TestIsTransientConflict(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"pq serialization", &pq.Error{Code: "40001"}, true},
		{"unique", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite locked", errors.New("database is locked"), true},
		{"sqlite table locked", errors.New("database table is locked: cart_lines"), true},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsTransientConflict(tc.err), tc.name)
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"pgx", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), true},
		{"lib/pq", &pq.Error{Code: "23503"}, true},
		{"sqlite", errors.New("FOREIGN KEY constraint failed"), true},
		{"unique", &pgconn.PgError{Code: "23505"}, false},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsForeignKeyViolation(tc.err), tc.name)
	}
}
