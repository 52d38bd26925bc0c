package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/internal/testutil"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	db := testutil.NewDB(t)
	svc := NewService(db, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, db
}

func request(discount string, items ...CartItem) Request {
	return Request{
		CustomerName: "Ahmed",
		Discount:     testutil.Dec(discount),
		Items:        items,
		Operator:     "admin",
	}
}

func reload(t *testing.T, db *gorm.DB, id int64) domain.Product {
	var p domain.Product
	require.NoError(t, db.First(&p, id).Error)
	return p
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCheckoutDepletesProduct(t *testing.T) {
	svc, db := newService(t)
	p := testutil.SeedProduct(t, db, "router", "100", 2)

	purchase, err := svc.Checkout(context.Background(), request("20", CartItem{ID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	assert.True(t, purchase.TotalPrice.Equal(testutil.Dec("200")))
	assert.True(t, purchase.FinalAmount.Equal(testutil.Dec("180")))
	require.Len(t, purchase.Items, 1)
	assert.Equal(t, "router", purchase.Items[0].ProductName)
	assert.True(t, purchase.Items[0].UnitPrice.Equal(testutil.Dec("100")))

	got := reload(t, db, p.ID)
	assert.Equal(t, 0, got.Quantity)
	assert.False(t, got.Active)

	var listed int64
	require.NoError(t, db.Model(&domain.Product{}).Where("active = ?", true).Count(&listed).Error)
	assert.Zero(t, listed)
}

func TestCheckoutTotalsFromCatalog(t *testing.T) {
	svc, db := newService(t)
	a := testutil.SeedProduct(t, db, "a", "12.5", 10)
	b := testutil.SeedProduct(t, db, "b", "3.2", 10)

	purchase, err := svc.Checkout(context.Background(), request("0",
		CartItem{ID: a.ID, Quantity: 3},
		CartItem{ID: b.ID, Quantity: 5},
		CartItem{ID: a.ID, Quantity: 1},
	))
	require.NoError(t, err)

	// 12.5*3 + 3.2*5 + 12.5*1
	assert.True(t, purchase.TotalPrice.Equal(testutil.Dec("66")), purchase.TotalPrice.String())
	sum := decimal.Zero
	for _, it := range purchase.Items {
		sum = sum.Add(it.LineTotal)
	}
	assert.True(t, sum.Equal(purchase.TotalPrice))
	assert.True(t, purchase.FinalAmount.Equal(purchase.TotalPrice.Sub(purchase.Discount)))

	assert.Equal(t, 6, reload(t, db, a.ID).Quantity)
	assert.Equal(t, 5, reload(t, db, b.ID).Quantity)
	assert.EqualValues(t, 3, countRows(t, db, &domain.PurchaseItem{}))
}

func TestCheckoutDiscountAboveTotal(t *testing.T) {
	svc, db := newService(t)
	p := testutil.SeedProduct(t, db, "cap", "10", 5)

	purchase, err := svc.Checkout(context.Background(), request("25", CartItem{ID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.True(t, purchase.FinalAmount.Equal(testutil.Dec("-15")))
}

func TestCheckoutInsufficientStock(t *testing.T) {
	svc, db := newService(t)
	p := testutil.SeedProduct(t, db, "switch", "100", 2)

	_, err := svc.Checkout(context.Background(), request("0", CartItem{ID: p.ID, Quantity: 3}))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, IsIntegrityError(err))

	assert.Equal(t, 2, reload(t, db, p.ID).Quantity)
	assert.Zero(t, countRows(t, db, &domain.Purchase{}))
	assert.Zero(t, countRows(t, db, &domain.PurchaseItem{}))
}

func TestCheckoutRepeatedLinesExceedStock(t *testing.T) {
	svc, db := newService(t)
	p := testutil.SeedProduct(t, db, "switch", "100", 3)

	_, err := svc.Checkout(context.Background(), request("0",
		CartItem{ID: p.ID, Quantity: 2},
		CartItem{ID: p.ID, Quantity: 2},
	))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, reload(t, db, p.ID).Quantity)
}

func TestCheckoutMissingProductRollsBack(t *testing.T) {
	svc, db := newService(t)
	p := testutil.SeedProduct(t, db, "lamp", "40", 4)

	_, err := svc.Checkout(context.Background(), request("0",
		CartItem{ID: p.ID, Quantity: 1},
		CartItem{ID: 9999, Quantity: 1},
	))
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, 4, reload(t, db, p.ID).Quantity)
	assert.Zero(t, countRows(t, db, &domain.Purchase{}))
}

func TestCheckoutRejectsTamperedPrice(t *testing.T) {
	svc, db := newService(t)
	p := testutil.SeedProduct(t, db, "lamp", "40", 4)

	cheap := testutil.Dec("1")
	_, err := svc.Checkout(context.Background(), request("0", CartItem{ID: p.ID, Price: &cheap, Quantity: 1}))
	assert.ErrorIs(t, err, ErrPriceMismatch)
	assert.Equal(t, 4, reload(t, db, p.ID).Quantity)

	exact := testutil.Dec("40.00")
	purchase, err := svc.Checkout(context.Background(), request("0", CartItem{ID: p.ID, Price: &exact, Quantity: 1}))
	require.NoError(t, err)
	assert.True(t, purchase.TotalPrice.Equal(testutil.Dec("40")))
}

func TestCheckoutInactiveProduct(t *testing.T) {
	svc, db := newService(t)
	p := testutil.SeedProduct(t, db, "old", "40", 4)
	require.NoError(t, db.Model(p).UpdateColumn("active", false).Error)

	_, err := svc.Checkout(context.Background(), request("0", CartItem{ID: p.ID, Quantity: 1}))
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCheckoutValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no operator", Request{CustomerName: "x", Items: []CartItem{{ID: 1, Quantity: 1}}}, ErrUnauthenticated},
		{"no customer", Request{CustomerName: "  ", Operator: "admin", Items: []CartItem{{ID: 1, Quantity: 1}}}, ErrMissingCustomer},
		{"negative discount", Request{CustomerName: "x", Operator: "admin", Discount: testutil.Dec("-1"), Items: []CartItem{{ID: 1, Quantity: 1}}}, ErrInvalidDiscount},
		{"empty cart", Request{CustomerName: "x", Operator: "admin"}, ErrInvalidCart},
		{"zero quantity", Request{CustomerName: "x", Operator: "admin", Items: []CartItem{{ID: 1, Quantity: 0}}}, ErrInvalidCart},
		{"bad id", Request{CustomerName: "x", Operator: "admin", Items: []CartItem{{ID: 0, Quantity: 1}}}, ErrInvalidCart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Checkout(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckoutFailureOnLastItemLeavesStoresUntouched(t *testing.T) {
	svc, db := newService(t)
	a := testutil.SeedProduct(t, db, "a", "10", 5)
	b := testutil.SeedProduct(t, db, "b", "20", 5)
	c := testutil.SeedProduct(t, db, "c", "30", 1)

	injected := errors.New("injected failure")
	var items int
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_last_item", func(tx *gorm.DB) {
		if tx.Statement.Table == (domain.PurchaseItem{}).TableName() {
			items++
			if items == 3 {
				_ = tx.AddError(injected)
			}
		}
	}))

	_, err := svc.Checkout(context.Background(), request("5",
		CartItem{ID: a.ID, Quantity: 2},
		CartItem{ID: b.ID, Quantity: 1},
		CartItem{ID: c.ID, Quantity: 1},
	))
	assert.ErrorIs(t, err, injected)

	assert.Equal(t, 5, reload(t, db, a.ID).Quantity)
	assert.Equal(t, 5, reload(t, db, b.ID).Quantity)
	gotC := reload(t, db, c.ID)
	assert.Equal(t, 1, gotC.Quantity)
	assert.True(t, gotC.Active)
	assert.Zero(t, countRows(t, db, &domain.Purchase{}))
	assert.Zero(t, countRows(t, db, &domain.PurchaseItem{}))
}

func TestCheckoutConcurrentLastUnit(t *testing.T) {
	svc, db := newService(t)
	p := testutil.SeedProduct(t, db, "last", "50", 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), request("0", CartItem{ID: p.ID, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else {
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrInsufficientStock)
	assert.Equal(t, 0, reload(t, db, p.ID).Quantity)
	assert.EqualValues(t, 1, countRows(t, db, &domain.Purchase{}))
}

func TestCheckoutPublishesEvents(t *testing.T) {
	db := testutil.NewDB(t)
	bus := EventBus.New()
	svc := NewService(db, bus)
	p := testutil.SeedProduct(t, db, "last", "50", 1)
	q := testutil.SeedProduct(t, db, "more", "5", 10)

	var created []*domain.Purchase
	var depleted []*domain.Product
	require.NoError(t, bus.Subscribe(TopicPurchaseCreated, func(p *domain.Purchase) { created = append(created, p) }))
	require.NoError(t, bus.Subscribe(TopicProductDepleted, func(p *domain.Product) { depleted = append(depleted, p) }))

	_, err := svc.Checkout(context.Background(), request("0",
		CartItem{ID: p.ID, Quantity: 1},
		CartItem{ID: q.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Len(t, depleted, 1)
	assert.Equal(t, p.ID, depleted[0].ID)
}

func TestParseCart(t *testing.T) {
	items, err := ParseCart(`[{"id":3,"price":12.5,"quantity":2},{"id":4,"quantity":1}]`)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.EqualValues(t, 3, items[0].ID)
	require.NotNil(t, items[0].Price)
	assert.True(t, items[0].Price.Equal(testutil.Dec("12.5")))
	assert.Nil(t, items[1].Price)

	items, err = ParseCart("  ")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = ParseCart(`{"id":1}`)
	assert.ErrorIs(t, err, ErrInvalidCart)

	_, err = ParseCart(`[{"id":1,"quantity":1.5}]`)
	assert.ErrorIs(t, err, ErrInvalidCart)
}
