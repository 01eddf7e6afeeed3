package repository

import (
	"context"

	"stockpos/internal/dto"
	"stockpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error)
	MarkReceivedTx(tx *gorm.DB, p *model.Purchase) error
	List(ctx context.Context, filter dto.PurchaseFilter) ([]model.Purchase, int64, error)
	DB() *gorm.DB
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository { return &purchaseRepo{db: db} }

func (r *purchaseRepo) DB() *gorm.DB { return r.db }

func (r *purchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var p model.Purchase
	if err := r.db.WithContext(ctx).Preload("Items.Product").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error) {
	var p model.Purchase
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("purchase_id = ?", id).Find(&p.Items).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepo) MarkReceivedTx(tx *gorm.DB, p *model.Purchase) error {
	return tx.Model(&model.Purchase{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"status":      p.Status,
		"received_at": p.ReceivedAt,
	}).Error
}

func (r *purchaseRepo) List(ctx context.Context, filter dto.PurchaseFilter) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Purchase{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Product").Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&purchases).Error
	return purchases, total, err
}
