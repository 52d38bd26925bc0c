package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/internal/testutil"
)

func TestProductCreateAppliesPricing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := &domain.Product{Name: "cable", BuyPriceUSD: testutil.Dec("10"), SellPrice: testutil.Dec("50"), Quantity: 4, Active: true}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.BuyPriceSAR.Equal(testutil.Dec("37.5")))
	assert.True(t, got.Profit.Equal(testutil.Dec("12.5")))

	got.SellPrice = testutil.Dec("40")
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Profit.Equal(testutil.Dec("2.5")))
}

func TestProductGetMissing(t *testing.T) {
	repo := NewGormProductRepository(testutil.NewDB(t))
	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	free := testutil.SeedProduct(t, db, "free", "10", 1)
	sold := testutil.SeedProduct(t, db, "sold", "10", 3)
	require.NoError(t, db.Create(&domain.PurchaseItem{PurchaseID: 1, ProductID: sold.ID, Quantity: 1}).Error)

	hard, err := repo.Delete(ctx, free.ID)
	require.NoError(t, err)
	assert.True(t, hard)
	_, err = repo.GetByID(ctx, free.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	hard, err = repo.Delete(ctx, sold.ID)
	require.NoError(t, err)
	assert.False(t, hard)
	got, err := repo.GetByID(ctx, sold.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, 0, got.Quantity)

	_, err = repo.Delete(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductListing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	for i, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta"} {
		testutil.SeedProduct(t, db, name, []string{"10", "20", "30", "40", "50", "60", "70"}[i], i+1)
	}
	hidden := testutil.SeedProduct(t, db, "Hidden", "999", 5)
	require.NoError(t, db.Model(hidden).UpdateColumn("active", false).Error)
	testutil.SeedProduct(t, db, "Empty", "500", 0)

	rows, total, err := repo.List(ctx, ProductFilter{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 8, total)
	assert.Len(t, rows, 8)

	rows, total, err = repo.List(ctx, ProductFilter{IncludeAll: true, SortField: "sell_price", SortOrder: "asc"}, 1, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 9, total)
	require.Len(t, rows, 3)
	assert.Equal(t, "Alpha", rows[0].Name)

	rows, _, err = repo.List(ctx, ProductFilter{Query: "ETA"}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, rows, 3) // Beta, Zeta, Eta

	sellable, err := repo.ListSellable(ctx)
	require.NoError(t, err)
	assert.Len(t, sellable, 7)

	low, err := repo.ListLowStock(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, low, 5)

	top, err := repo.TopBySellPrice(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 5)
	assert.Equal(t, "Eta", top[0].Name)
}

func TestPurchaseQueries(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPurchaseRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		p := &domain.Purchase{
			CustomerName: "c",
			TotalPrice:   testutil.Dec("100"),
			Discount:     testutil.Dec("10"),
			FinalAmount:  testutil.Dec("90"),
			Date:         base.AddDate(0, 0, i),
			Items: []domain.PurchaseItem{
				{ProductID: 1, ProductName: "x", UnitPrice: testutil.Dec("50"), LineTotal: testutil.Dec("100"), Quantity: 2},
			},
		}
		require.NoError(t, db.Create(p).Error)
	}

	rows, total, err := repo.List(ctx, PurchaseFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Date.After(rows[2].Date), "newest first")

	rows, total, err = repo.List(ctx, PurchaseFilter{From: base.AddDate(0, 0, 1)}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)

	got, err := repo.GetByID(ctx, rows[0].ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)

	_, err = repo.GetByID(ctx, 1000)
	assert.ErrorIs(t, err, ErrNotFound)

	amounts, err := repo.FinalAmounts(ctx)
	require.NoError(t, err)
	assert.Len(t, amounts, 3)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
