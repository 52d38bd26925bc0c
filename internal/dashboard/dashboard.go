package dashboard

import (
	"context"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/internal/repository"
)

const topProductsLimit = 5

// Summary is the read only overview shown on the dashboard
type Summary struct {
	TotalProducts         int               `json:"total_products"`
	TotalQuantity         int               `json:"total_quantity"`
	TotalRevenuePotential decimal.Decimal   `json:"total_revenue_potential"`
	TotalProfitPotential  decimal.Decimal   `json:"total_profits"`
	TotalSales            decimal.Decimal   `json:"total_sales"`
	PurchaseCount         int               `json:"purchase_count"`
	AverageSale           float64           `json:"average_sale"`
	MedianSale            float64           `json:"median_sale"`
	TopProducts           []*domain.Product `json:"top_products"`
	LowStock              []*domain.Product `json:"low_stock"`
	TopNames              []string          `json:"top_names"`
	TopPrices             []decimal.Decimal `json:"top_prices"`
	TopProfits            []decimal.Decimal `json:"profits_data"`
}

// Builder aggregates catalog and ledger state
type Builder struct {
	products          repository.ProductRepository
	purchases         repository.PurchaseRepository
	lowStockThreshold int
}

func NewBuilder(products repository.ProductRepository, purchases repository.PurchaseRepository, lowStockThreshold int) *Builder {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 5
	}
	return &Builder{products: products, purchases: purchases, lowStockThreshold: lowStockThreshold}
}

// Build computes the summary. Empty stores yield zero values.
func (b *Builder) Build(ctx context.Context) (*Summary, error) {
	var (
		inStock, top, low []*domain.Product
		amounts           []decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		inStock, err = b.products.ListSellable(gctx)
		return err
	})
	g.Go(func() (err error) {
		top, err = b.products.TopBySellPrice(gctx, topProductsLimit)
		return err
	})
	g.Go(func() (err error) {
		low, err = b.products.ListLowStock(gctx, b.lowStockThreshold)
		return err
	})
	g.Go(func() (err error) {
		amounts, err = b.purchases.FinalAmounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Summary{
		TotalProducts:         len(inStock),
		TotalRevenuePotential: decimal.Zero,
		TotalProfitPotential:  decimal.Zero,
		TotalSales:            decimal.Zero,
		TopProducts:           nonNil(top),
		LowStock:              nonNil(low),
		TopNames:              make([]string, 0, len(top)),
		TopPrices:             make([]decimal.Decimal, 0, len(top)),
		TopProfits:            make([]decimal.Decimal, 0, len(top)),
	}
	for _, p := range inStock {
		qty := decimal.NewFromInt(int64(p.Quantity))
		s.TotalQuantity += p.Quantity
		s.TotalRevenuePotential = s.TotalRevenuePotential.Add(p.SellPrice.Mul(qty))
		s.TotalProfitPotential = s.TotalProfitPotential.Add(p.Profit.Mul(qty))
	}
	for _, p := range top {
		s.TopNames = append(s.TopNames, p.Name)
		s.TopPrices = append(s.TopPrices, p.SellPrice)
		s.TopProfits = append(s.TopProfits, p.Profit)
	}

	data := make(stats.Float64Data, 0, len(amounts))
	for _, a := range amounts {
		s.TotalSales = s.TotalSales.Add(a)
		data = append(data, a.InexactFloat64())
	}
	s.PurchaseCount = len(amounts)
	if len(data) > 0 {
		// both only fail on empty input
		s.AverageSale, _ = stats.Round(mustFloat(data.Mean()), 2)
		s.MedianSale, _ = stats.Round(mustFloat(data.Median()), 2)
	}
	return s, nil
}

func mustFloat(v float64, err error) float64 {
	if err != nil {
		return 0
	}
	return v
}

func nonNil(ps []*domain.Product) []*domain.Product {
	if ps == nil {
		return []*domain.Product{}
	}
	return ps
}
