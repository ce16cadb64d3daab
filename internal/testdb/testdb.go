// Package testdb opens migrated SQLite databases for repository tests.
package testdb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/cakeshop-backend/pkg/db"
	"github.com/angelmondragon/cakeshop-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
)

var seq atomic.Int64

// Open returns a client over a private in-memory database with every
// migration applied. The pool is pinned to one connection so the database
// lives as long as the test.
func Open(t testing.TB) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, seq.Add(1))
	return open(t, dsn, 1)
}

// OpenFile returns a client over a WAL-mode database file in a temp dir whose
// pool holds up to conns connections, so statements from different goroutines
// really do run on separate connections.
func OpenFile(t testing.TB, conns int) *db.Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cakeshop.db")
	dsn := "file:" + path + "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000"
	return open(t, dsn, conns)
}

func open(t testing.TB, dsn string, conns int) *db.Client {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if _, err := migrate.UpEmbedded(context.Background(), sqlDB, "sqlite3"); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db.NewFromGorm(conn)
}

// SeedUser inserts a user row and returns it.
func SeedUser(t testing.TB, conn *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedProduct inserts a product with the given decimal price string.
func SeedProduct(t testing.TB, conn *gorm.DB, title, price, category string) models.Product {
	t.Helper()
	product := models.Product{
		ID:       uuid.New(),
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Image:    "https://img.example.com/" + strings.ToLower(strings.ReplaceAll(title, " ", "-")) + ".jpg",
		Category: category,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}
