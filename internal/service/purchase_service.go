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
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PurchaseService records supplier restocks. Receiving a purchase is the only
// way it touches stock, and it does so through the ledger.
type PurchaseService interface {
	Create(ctx context.Context, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
	List(ctx context.Context, filter dto.PurchaseFilter) ([]dto.PurchaseResponse, int64, error)
	Receive(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
}

type purchaseService struct {
	repo      repository.PurchaseRepository
	products  repository.ProductRepository
	inventory InventoryService
}

func NewPurchaseService(repo repository.PurchaseRepository, products repository.ProductRepository, inventory InventoryService) PurchaseService {
	return &purchaseService{repo: repo, products: products, inventory: inventory}
}

func (s *purchaseService) Create(ctx context.Context, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("a purchase needs at least one item: %w", ErrValidation)
	}
	p := &model.Purchase{Supplier: req.Supplier, Notes: req.Notes, Status: model.PurchasePending}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
		}
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid productId %q: %w", item.ProductID, ErrValidation)
		}
		prod, err := s.products.FindByID(ctx, pid)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", pid, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		p.Items = append(p.Items, model.PurchaseItem{ProductID: pid, Quantity: item.Quantity, Product: prod})
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return purchaseToResponse(p), nil
}

func (s *purchaseService) Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("purchase %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return purchaseToResponse(p), nil
}

func (s *purchaseService) List(ctx context.Context, filter dto.PurchaseFilter) ([]dto.PurchaseResponse, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	purchases, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		out = append(out, *purchaseToResponse(&purchases[i]))
	}
	return out, total, nil
}

// Receive releases every line into stock and marks the purchase received,
// all in one transaction. A purchase can be received once.
func (s *purchaseService) Receive(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	var p *model.Purchase
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdateTx(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("purchase %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if p.Status != model.PurchasePending {
			return fmt.Errorf("purchase %s already received: %w", id, ErrInvalidState)
		}

		ref := MovementRef{Kind: model.MovementPurchase, Reason: "purchase from " + p.Supplier, ReferenceID: &p.ID}
		for _, item := range p.Items {
			if _, err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity, ref); err != nil {
				return err
			}
		}
		now := time.Now()
		p.Status = model.PurchaseReceived
		p.ReceivedAt = &now
		return s.repo.MarkReceivedTx(tx, p)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("purchase_id", id.String()).Int("items", len(p.Items)).Msg("purchase received")
	return purchaseToResponse(p), nil
}

func purchaseToResponse(p *model.Purchase) *dto.PurchaseResponse {
	items := make([]dto.PurchaseItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		r := dto.PurchaseItemResponse{ProductID: it.ProductID.String(), Quantity: it.Quantity}
		if it.Product != nil {
			r.Product = it.Product.Name
		}
		items = append(items, r)
	}
	resp := &dto.PurchaseResponse{
		ID:        p.ID.String(),
		Supplier:  p.Supplier,
		Status:    string(p.Status),
		Notes:     p.Notes,
		Items:     items,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	if p.ReceivedAt != nil {
		t := p.ReceivedAt.Format(time.RFC3339)
		resp.ReceivedAt = &t
	}
	return resp
}
