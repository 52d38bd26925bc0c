package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/talkincode/storepro/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ProductFilter narrows product listings
type ProductFilter struct {
	Query      string // name substring
	Category   string
	IncludeAll bool // include deactivated products
	SortField  string
	SortOrder  string
}

// ProductRepository handles the catalog store
type ProductRepository interface {
	// Create inserts a new product
	Create(ctx context.Context, p *domain.Product) error

	// Update saves every column of an existing product
	Update(ctx context.Context, p *domain.Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// Delete removes a product; products referenced by sales are deactivated instead.
	// The returned bool is true for a hard delete.
	Delete(ctx context.Context, id int64) (bool, error)

	// List retrieves products with pagination
	List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]*domain.Product, int64, error)

	// ListSellable retrieves active products with quantity > 0
	ListSellable(ctx context.Context) ([]*domain.Product, error)

	// ListLowStock retrieves sellable products with quantity <= threshold
	ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error)

	// TopBySellPrice retrieves the n most expensive sellable products
	TopBySellPrice(ctx context.Context, n int) ([]*domain.Product, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM-based repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

var productSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"category":   "category",
	"sell_price": "sell_price",
	"profit":     "profit",
	"quantity":   "quantity",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func (r *GormProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(p).Error, "create product")
}

func (r *GormProductRepository) Update(ctx context.Context, p *domain.Product) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(p).Error, "update product")
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return &p, nil
}

func (r *GormProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	hard := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		if err := tx.First(&p, id).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&domain.PurchaseItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			// keep the row so historic invoices still resolve
			return tx.Model(&domain.Product{}).Where("id = ?", id).
				UpdateColumns(map[string]interface{}{"active": false, "quantity": 0}).Error
		}
		hard = true
		return tx.Delete(&domain.Product{}, id).Error
	})
	if errors.Is(err, ErrNotFound) {
		return false, ErrNotFound
	}
	return hard, errors.Wrapf(err, "delete product %d", id)
}

func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]*domain.Product, int64, error) {
	var products []*domain.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Product{})
	if !filter.IncludeAll {
		query = query.Where("active = ?", true)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		if strings.EqualFold(query.Name(), "postgres") {
			query = query.Where("name ILIKE ?", "%"+q+"%")
		} else {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		}
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where("category = ?", c)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	sortCol, ok := productSortColumns[filter.SortField]
	if !ok {
		sortCol = "id"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	offset := (page - 1) * pageSize
	err := query.
		Order(sortCol + " " + order).
		Offset(offset).
		Limit(pageSize).
		Find(&products).Error
	return products, total, errors.Wrap(err, "list products")
}

func (r *GormProductRepository) sellable(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("active = ? AND quantity > 0", true)
}

func (r *GormProductRepository) ListSellable(ctx context.Context) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.sellable(ctx).Order("name ASC").Find(&products).Error
	return products, errors.Wrap(err, "list sellable products")
}

func (r *GormProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.sellable(ctx).
		Where("quantity <= ?", threshold).
		Order("quantity ASC").
		Find(&products).Error
	return products, errors.Wrap(err, "list low stock products")
}

func (r *GormProductRepository) TopBySellPrice(ctx context.Context, n int) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.sellable(ctx).
		Order("sell_price DESC").
		Limit(n).
		Find(&products).Error
	return products, errors.Wrap(err, "list top products")
}
