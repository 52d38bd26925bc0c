package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/talkincode/storepro/internal/domain"
)

// PurchaseFilter narrows invoice listings by date, zero values are open bounds
type PurchaseFilter struct {
	From     time.Time
	To       time.Time
	Customer string
}

// PurchaseRepository is the read side of the ledger store. Writes go
// through the checkout transaction only.
type PurchaseRepository interface {
	// GetByID retrieves a purchase with its items
	GetByID(ctx context.Context, id int64) (*domain.Purchase, error)

	// List retrieves purchases newest first with pagination
	List(ctx context.Context, filter PurchaseFilter, page, pageSize int) ([]*domain.Purchase, int64, error)

	// All retrieves every purchase in id order
	All(ctx context.Context) ([]*domain.Purchase, error)

	// FinalAmounts returns final_amount of every purchase
	FinalAmounts(ctx context.Context) ([]decimal.Decimal, error)
}

// GormPurchaseRepository is the GORM implementation of PurchaseRepository
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GORM-based repository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

func (r *GormPurchaseRepository) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	var p domain.Purchase
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get purchase %d", id)
	}
	return &p, nil
}

func (r *GormPurchaseRepository) List(ctx context.Context, filter PurchaseFilter, page, pageSize int) ([]*domain.Purchase, int64, error) {
	var purchases []*domain.Purchase
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Purchase{})
	if !filter.From.IsZero() {
		query = query.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("date <= ?", filter.To)
	}
	if filter.Customer != "" {
		query = query.Where("customer_name = ?", filter.Customer)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count purchases")
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("date DESC").
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&purchases).Error
	return purchases, total, errors.Wrap(err, "list purchases")
}

func (r *GormPurchaseRepository) All(ctx context.Context) ([]*domain.Purchase, error) {
	var purchases []*domain.Purchase
	err := r.db.WithContext(ctx).Order("id ASC").Find(&purchases).Error
	return purchases, errors.Wrap(err, "list all purchases")
}

func (r *GormPurchaseRepository) FinalAmounts(ctx context.Context) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&domain.Purchase{}).
		Order("id ASC").
		Pluck("final_amount", &amounts).Error
	return amounts, errors.Wrap(err, "list purchase amounts")
}
