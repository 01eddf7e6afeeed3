package repository

import (
	"context"

	"stockpos/internal/model"

	"gorm.io/gorm"
)

type RFIDTagRepository interface {
	Create(ctx context.Context, t *model.RFIDTag) error
	FindByCode(ctx context.Context, code string) (*model.RFIDTag, error)
	// FindActiveByCode only matches tags whose status is active.
	FindActiveByCode(ctx context.Context, code string) (*model.RFIDTag, error)
	List(ctx context.Context) ([]model.RFIDTag, error)
	UpdateStatus(ctx context.Context, code string, status model.TagStatus) error
}

type rfidTagRepo struct{ db *gorm.DB }

func NewRFIDTagRepository(db *gorm.DB) RFIDTagRepository { return &rfidTagRepo{db: db} }

func (r *rfidTagRepo) Create(ctx context.Context, t *model.RFIDTag) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *rfidTagRepo) FindByCode(ctx context.Context, code string) (*model.RFIDTag, error) {
	var t model.RFIDTag
	if err := r.db.WithContext(ctx).Preload("Product").First(&t, "tag_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *rfidTagRepo) FindActiveByCode(ctx context.Context, code string) (*model.RFIDTag, error) {
	var t model.RFIDTag
	err := r.db.WithContext(ctx).
		Where("tag_code = ? AND status = ?", code, model.TagActive).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *rfidTagRepo) List(ctx context.Context) ([]model.RFIDTag, error) {
	var tags []model.RFIDTag
	err := r.db.WithContext(ctx).Preload("Product").Order("tag_code ASC").Find(&tags).Error
	return tags, err
}

func (r *rfidTagRepo) UpdateStatus(ctx context.Context, code string, status model.TagStatus) error {
	res := r.db.WithContext(ctx).Model(&model.RFIDTag{}).Where("tag_code = ?", code).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
