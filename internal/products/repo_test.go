package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/pagination"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS teams (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  league TEXT,
  badge_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT,
  team_id TEXT,
  category TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  shipping_price NUMERIC,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS patches (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  image TEXT NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range splitStatements(schema) {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func splitStatements(schema string) []string {
	var out []string
	start := 0
	for i := 0; i < len(schema); i++ {
		if schema[i] == ';' {
			out = append(out, schema[start:i+1])
			start = i + 1
		}
	}
	return out
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Slug:          "jersey-" + uuid.NewString()[:8],
		Name:          "home jersey",
		Price:         decimal.RequireFromString("89.90"),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestDecrementStock(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 5)

	ok, err := repo.DecrementStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.StockQuantity)
}

func TestDecrementStockRejectsInsufficient(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 5)

	ok, err := repo.DecrementStock(ctx, product.ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.StockQuantity)
}

func TestIncrementStock(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 1)
	require.NoError(t, repo.IncrementStock(ctx, product.ID, 4))

	stored, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.StockQuantity)
}

func TestListPaginatesWithCursor(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedProduct(t, db, 10)
	}

	first, err := repo.List(ctx, pagination.Params{Limit: 2}, ListFilters{OnlyActive: true})
	require.NoError(t, err)
	assert.Len(t, first.Products, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, pagination.Params{Limit: 10, Cursor: first.NextCursor}, ListFilters{OnlyActive: true})
	require.NoError(t, err)
	assert.Len(t, second.Products, 3)
	assert.False(t, second.HasMore)

	seen := map[uuid.UUID]struct{}{}
	for _, p := range append(first.Products, second.Products...) {
		_, dup := seen[p.ID]
		assert.False(t, dup)
		seen[p.ID] = struct{}{}
	}
}

func TestFindPatchesByCodes(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	patch := &models.Patch{
		ID:    uuid.New(),
		Code:  "UCL24",
		Name:  "Champions League",
		Image: "/patches/ucl24.png",
		Price: decimal.RequireFromString("5.00"),
	}
	require.NoError(t, db.Create(patch).Error)

	patches, err := repo.FindPatchesByCodes(ctx, []string{"UCL24"})
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, "Champions League", patches[0].Name)
}
