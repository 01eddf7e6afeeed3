package repository

import (
	"context"

	"stockpos/internal/dto"
	"stockpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// FindByIDForUpdateTx locks the sale row for the rest of the transaction.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	MarkRefundedTx(tx *gorm.DB, s *model.Sale) error
	NextInvoiceSeq(ctx context.Context, tx *gorm.DB) (int64, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Product").
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	// Lock the parent row alone; items are read in a second query so the
	// locking clause never meets a join.
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Preload("Product").Where("sale_id = ?", id).Order("position ASC").Find(&s.Items).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) MarkRefundedTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Model(&model.Sale{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"status":         s.Status,
		"payment_status": s.PaymentStatus,
		"refund_reason":  s.RefundReason,
		"refunded_at":    s.RefundedAt,
	}).Error
}

func (r *saleRepo) NextInvoiceSeq(ctx context.Context, tx *gorm.DB) (int64, error) {
	// Uses a PostgreSQL sequence for atomic invoice number generation
	var num int64
	err := tx.WithContext(ctx).Raw("SELECT nextval('sales_invoice_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		q = q.Where("source = ?", filter.Source)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Product").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}
