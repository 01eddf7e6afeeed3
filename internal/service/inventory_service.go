package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementRef describes why the ledger is moving stock. It is copied onto the
// StockMovement row written alongside the mutation.
type MovementRef struct {
	Kind        string
	Reason      string
	ReferenceID *uuid.UUID
}

// InventoryService is the inventory ledger: the only writer of product stock.
// Reserve and Release run inside the caller's transaction; pass a nil tx only
// in unit tests backed by stub repositories.
type InventoryService interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*dto.StockChange, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*dto.StockChange, error)
	Adjust(ctx context.Context, productID uuid.UUID, delta int, reason string) (*dto.StockChange, error)
	LowStock(ctx context.Context) ([]dto.LowStockResponse, error)
	Movements(ctx context.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error)
}

type inventoryService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

func NewInventoryService(products repository.ProductRepository, movements repository.StockMovementRepository) InventoryService {
	return &inventoryService{products: products, movements: movements}
}

func (s *inventoryService) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*dto.StockChange, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("reserve quantity must be positive: %w", ErrValidation)
	}
	after, err := s.products.DecrementStockTx(tx, productID, qty)
	if errors.Is(err, repository.ErrStockConditionFailed) {
		// Nothing matched: tell a missing product apart from a short one.
		if _, findErr := s.products.FindByID(ctx, productID); errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	if err != nil {
		return nil, err
	}
	return s.record(tx, productID, -qty, after+qty, after, ref)
}

func (s *inventoryService) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*dto.StockChange, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("release quantity must be positive: %w", ErrValidation)
	}
	after, err := s.products.IncrementStockTx(tx, productID, qty)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.record(tx, productID, qty, after-qty, after, ref)
}

func (s *inventoryService) record(tx *gorm.DB, productID uuid.UUID, qty, before, after int, ref MovementRef) (*dto.StockChange, error) {
	mov := &model.StockMovement{
		ProductID:   productID,
		Kind:        ref.Kind,
		Quantity:    qty,
		StockBefore: before,
		StockAfter:  after,
		Reason:      ref.Reason,
		ReferenceID: ref.ReferenceID,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, err
	}
	return &dto.StockChange{
		ProductID:   productID.String(),
		StockBefore: before,
		StockAfter:  after,
		Status:      string(model.StatusFor(after)),
	}, nil
}

// Adjust is the direct stock correction API. It runs in its own transaction.
func (s *inventoryService) Adjust(ctx context.Context, productID uuid.UUID, delta int, reason string) (*dto.StockChange, error) {
	if delta == 0 {
		return nil, fmt.Errorf("delta must not be zero: %w", ErrValidation)
	}
	ref := MovementRef{Kind: model.MovementAdjustment, Reason: reason}

	var change *dto.StockChange
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		var err error
		if delta > 0 {
			change, err = s.Release(ctx, tx, productID, delta, ref)
		} else {
			change, err = s.Reserve(ctx, tx, productID, -delta, ref)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]dto.LowStockResponse, error) {
	products, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockResponse, 0, len(products))
	for i := range products {
		out = append(out, lowStockResponse(&products[i]))
	}
	return out, nil
}

func lowStockResponse(p *model.Product) dto.LowStockResponse {
	return dto.LowStockResponse{
		ProductID:         p.ID.String(),
		Name:              p.Name,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		Status:            string(model.StatusFor(p.Stock)),
	}
}

func (s *inventoryService) Movements(ctx context.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	rf := repository.StockMovementFilter{Kind: filter.Kind, Page: filter.Page, Limit: filter.Limit}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid productId: %w", ErrValidation)
		}
		rf.ProductID = &pid
	}

	movements, total, err := s.movements.List(ctx, rf)
	if err != nil {
		return nil, err
	}

	data := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		r := dto.StockMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Kind:        m.Kind,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		}
		if m.Product != nil {
			r.Product = m.Product.Name
		}
		if m.ReferenceID != nil {
			ref := m.ReferenceID.String()
			r.ReferenceID = &ref
		}
		data = append(data, r)
	}
	return &dto.StockMovementListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
