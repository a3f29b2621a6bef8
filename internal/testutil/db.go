package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/product_catalog/internal/db"
	"github.com/Skotchmaster/product_catalog/internal/models"
)

// OpenDB returns a migrated in-memory sqlite store with foreign keys enforced.
// A single connection keeps every query on the same in-memory database.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), db.GormConfig())
	require.NoError(t, err, "failed to connect to in-memory db")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb), "failed to migrate tables")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func SeedCategory(t testing.TB, gdb *gorm.DB, name string) *models.Category {
	t.Helper()

	c := &models.Category{Name: name, Description: name + " description"}
	require.NoError(t, gdb.Create(c).Error)
	return c
}

// SeedProduct inserts a product with an explicit created_at so tests that
// depend on recency ordering are deterministic.
func SeedProduct(t testing.TB, gdb *gorm.DB, name string, price float64, categoryID uint, createdAt time.Time) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:       name,
		Price:      price,
		Stock:      5,
		CategoryID: categoryID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}
