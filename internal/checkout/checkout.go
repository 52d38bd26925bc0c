package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talkincode/storepro/internal/domain"
)

const (
	// TopicPurchaseCreated is published with the committed *domain.Purchase.
	TopicPurchaseCreated = "purchase:created"
	// TopicProductDepleted is published with each *domain.Product whose stock reached zero.
	TopicProductDepleted = "product:depleted"
)

// Service runs the checkout transaction against the catalog and ledger stores.
type Service struct {
	db  *gorm.DB
	bus EventBus.BusPublisher
	now func() time.Time
}

// NewService creates a checkout service. bus may be nil.
func NewService(db *gorm.DB, bus EventBus.BusPublisher) *Service {
	return &Service{db: db, bus: bus, now: time.Now}
}

type pricedLine struct {
	product  *domain.Product
	quantity int
	total    decimal.Decimal
}

// Checkout converts a cart into a purchase, its line items and the matching
// stock decrements. Everything is committed in one transaction or not at all.
func (s *Service) Checkout(ctx context.Context, req Request) (*domain.Purchase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		purchase *domain.Purchase
		depleted []*domain.Product
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines, err := priceLines(tx, req.Items)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.total)
		}

		now := s.now()
		purchase = &domain.Purchase{
			CustomerName: strings.TrimSpace(req.CustomerName),
			TotalPrice:   total,
			Discount:     req.Discount,
			FinalAmount:  total.Sub(req.Discount),
			Date:         now,
			Operator:     req.Operator,
		}
		if err := tx.Omit(clause.Associations).Create(purchase).Error; err != nil {
			return errors.Wrap(err, "create purchase")
		}

		for _, l := range lines {
			item := domain.PurchaseItem{
				PurchaseID:  purchase.ID,
				ProductID:   l.product.ID,
				ProductName: l.product.Name,
				UnitPrice:   l.product.SellPrice,
				LineTotal:   l.total,
				Quantity:    l.quantity,
			}
			if err := tx.Create(&item).Error; err != nil {
				return errors.Wrapf(err, "create purchase item for product %d", l.product.ID)
			}
			purchase.Items = append(purchase.Items, item)

			left, err := decrementStock(tx, l.product, l.quantity, now)
			if err != nil {
				return err
			}
			if left <= 0 {
				if err := deactivate(tx, l.product.ID, now); err != nil {
					return err
				}
				l.product.Quantity = 0
				l.product.Active = false
				depleted = append(depleted, l.product)
			}
		}
		return nil
	})
	if err != nil {
		zap.L().Warn("checkout aborted",
			zap.String("customer", req.CustomerName),
			zap.String("operator", req.Operator),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("checkout committed",
		zap.Int64("purchase_id", purchase.ID),
		zap.String("customer", purchase.CustomerName),
		zap.String("final_amount", purchase.FinalAmount.String()),
		zap.Int("items", len(purchase.Items)))

	if s.bus != nil {
		s.bus.Publish(TopicPurchaseCreated, purchase)
		for _, p := range depleted {
			s.bus.Publish(TopicProductDepleted, p)
		}
	}
	return purchase, nil
}

// priceLines locks every referenced product and prices each line from the
// catalog. Repeated product ids share one locked row.
func priceLines(tx *gorm.DB, items []CartItem) ([]pricedLine, error) {
	products := make(map[int64]*domain.Product, len(items))
	requested := make(map[int64]int, len(items))
	lines := make([]pricedLine, 0, len(items))

	for _, it := range items {
		p, ok := products[it.ID]
		if !ok {
			p = new(domain.Product)
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(p, it.ID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.Wrapf(ErrProductNotFound, "product %d", it.ID)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "load product %d", it.ID)
			}
			products[it.ID] = p
		}

		if it.Price != nil && !it.Price.Equal(p.SellPrice) {
			return nil, errors.Wrapf(ErrPriceMismatch, "product %d (%s): cart %s, catalog %s",
				p.ID, p.Name, it.Price.String(), p.SellPrice.String())
		}

		requested[it.ID] += it.Quantity
		if !p.Active || requested[it.ID] > p.Quantity {
			available := p.Quantity
			if !p.Active {
				available = 0
			}
			return nil, errors.Wrapf(ErrInsufficientStock, "product %d (%s): requested %d, available %d",
				p.ID, p.Name, requested[it.ID], available)
		}

		lines = append(lines, pricedLine{
			product:  p,
			quantity: it.Quantity,
			total:    p.SellPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return lines, nil
}

// decrementStock applies quantity = quantity - n only while enough stock is
// left and returns the remaining quantity.
func decrementStock(tx *gorm.DB, p *domain.Product, n int, now time.Time) (int, error) {
	res := tx.Model(&domain.Product{}).
		Where("id = ? AND active = ? AND quantity >= ?", p.ID, true, n).
		UpdateColumns(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", n),
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "decrement stock of product %d", p.ID)
	}
	if res.RowsAffected == 0 {
		return 0, errors.Wrapf(ErrInsufficientStock, "product %d (%s): requested %d", p.ID, p.Name, n)
	}

	var left int
	if err := tx.Model(&domain.Product{}).Select("quantity").Where("id = ?", p.ID).Scan(&left).Error; err != nil {
		return 0, errors.Wrapf(err, "read stock of product %d", p.ID)
	}
	p.Quantity = left
	return left, nil
}

func deactivate(tx *gorm.DB, id int64, now time.Time) error {
	err := tx.Model(&domain.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"quantity":   0,
			"active":     false,
			"updated_at": now,
		}).Error
	return errors.Wrapf(err, "deactivate product %d", id)
}
