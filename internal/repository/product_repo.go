package repository

import (
	"context"
	"errors"

	"stockpos/internal/dto"
	"stockpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStockConditionFailed is returned by DecrementStockTx when no row matched
// "id = ? AND stock >= ?": the product is gone or has too little stock.
var ErrStockConditionFailed = errors.New("stock condition failed")

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	Archive(ctx context.Context, id uuid.UUID) error
	ListLowStock(ctx context.Context) ([]model.Product, error)

	// Used inside transactions — callers must pass the tx instance.
	// Both recompute status in the same statement and return the new stock.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (int, error)
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (int, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	p.Status = model.StatusFor(p.Stock)
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	// Archived filter: "true" = archived only, "all" = everything, default = active
	switch filter.Archived {
	case "true":
		q = q.Where("archived = true")
	case "all":
	default:
		q = q.Where("archived = false")
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

// Update saves catalogue fields only. Stock and status are omitted so a
// stale read can never overwrite a ledger mutation.
func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Model(p).
		Select("name", "sku", "retail_price", "wholesale_price", "wholesale_threshold", "low_stock_threshold").
		Updates(p).Error
}

func (r *productRepo) Archive(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("archived", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) ListLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("archived = false AND stock <= low_stock_threshold").
		Order("stock ASC, name ASC").
		Find(&products).Error
	return products, err
}

// DecrementStockTx is a compare-and-decrement: the row only changes when it
// still holds at least qty units, so concurrent sales can never oversell.
func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (int, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":  gorm.Expr("stock - ?", qty),
			"status": gorm.Expr("CASE WHEN stock - ? > 0 THEN ? ELSE ? END", qty, model.StatusInStock, model.StatusOutOfStock),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrStockConditionFailed
	}
	return r.stockTx(tx, id)
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (int, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":  gorm.Expr("stock + ?", qty),
			"status": gorm.Expr("CASE WHEN stock + ? > 0 THEN ? ELSE ? END", qty, model.StatusInStock, model.StatusOutOfStock),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return r.stockTx(tx, id)
}

// stockTx re-reads stock inside the tx; the row is already locked by the update.
func (r *productRepo) stockTx(tx *gorm.DB, id uuid.UUID) (int, error) {
	var stock int
	err := tx.Model(&model.Product{}).Select("stock").Where("id = ?", id).Scan(&stock).Error
	return stock, err
}
