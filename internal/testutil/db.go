// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/storepro/internal/domain"
)

// NewDB opens a private in-memory sqlite database with the schema migrated.
// A single connection serialises transactions the same way row locks do on postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SeedProduct inserts an active product priced in sale currency.
func SeedProduct(t testing.TB, db *gorm.DB, name string, sell string, qty int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:        name,
		Category:    "general",
		BuyPriceUSD: Dec("1"),
		SellPrice:   Dec(sell),
		Quantity:    qty,
		Active:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
