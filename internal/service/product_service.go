package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const priceCacheTTL = 4 * time.Hour

// ProductService defines the business logic contract for the catalogue.
// Stock is read-only here; every stock change goes through InventoryService.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Archive(ctx context.Context, id uuid.UUID) error
	// Quote prices qty units of a product without side effects.
	Quote(ctx context.Context, id uuid.UUID, qty int) (*dto.PriceQuoteResponse, error)
}

type productService struct {
	repo repository.ProductRepository
	rdb  *redis.Client // nil disables the price cache
}

func NewProductService(repo repository.ProductRepository, rdb *redis.Client) ProductService {
	return &productService{repo: repo, rdb: rdb}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		Name:               req.Name,
		SKU:                req.SKU,
		RetailPrice:        req.RetailPrice,
		WholesalePrice:     req.WholesalePrice,
		WholesaleThreshold: req.WholesaleThreshold,
		Stock:              req.Stock,
		LowStockThreshold:  5,
	}
	if req.LowStockThreshold != nil {
		p.LowStockThreshold = *req.LowStockThreshold
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("product %q already exists: %w", req.Name, ErrConflict)
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.ProductListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit, TotalPages: pages}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.SKU != nil {
		p.SKU = req.SKU
	}
	if req.RetailPrice != nil {
		if !req.RetailPrice.IsPositive() {
			return nil, fmt.Errorf("retailPrice must be positive: %w", ErrValidation)
		}
		p.RetailPrice = *req.RetailPrice
	}
	if req.WholesalePrice != nil {
		if req.WholesalePrice.IsNegative() {
			return nil, fmt.Errorf("wholesalePrice must not be negative: %w", ErrValidation)
		}
		p.WholesalePrice = *req.WholesalePrice
	}
	if req.WholesaleThreshold != nil {
		p.WholesaleThreshold = *req.WholesaleThreshold
	}
	if req.LowStockThreshold != nil {
		p.LowStockThreshold = *req.LowStockThreshold
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("product %q already exists: %w", p.Name, ErrConflict)
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return productToResponse(p), nil
}

func (s *productService) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Archive(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// priceSnapshot is what the quote cache stores: pricing inputs only, never stock.
type priceSnapshot struct {
	Name               string          `json:"name"`
	RetailPrice        decimal.Decimal `json:"retailPrice"`
	WholesalePrice     decimal.Decimal `json:"wholesalePrice"`
	WholesaleThreshold int             `json:"wholesaleThreshold"`
	Archived           bool            `json:"archived"`
}

func priceCacheKey(id uuid.UUID) string { return "price:" + id.String() }

func (s *productService) Quote(ctx context.Context, id uuid.UUID, qty int) (*dto.PriceQuoteResponse, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	snap, ok := s.cachedSnapshot(ctx, id)
	if !ok {
		p, err := s.find(ctx, id)
		if err != nil {
			return nil, err
		}
		snap = priceSnapshot{
			Name:               p.Name,
			RetailPrice:        p.RetailPrice,
			WholesalePrice:     p.WholesalePrice,
			WholesaleThreshold: p.WholesaleThreshold,
			Archived:           p.Archived,
		}
		s.storeSnapshot(id, snap)
	}
	if snap.Archived {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	unit, tier := PriceFor(&model.Product{
		RetailPrice:        snap.RetailPrice,
		WholesalePrice:     snap.WholesalePrice,
		WholesaleThreshold: snap.WholesaleThreshold,
	}, qty)
	return &dto.PriceQuoteResponse{
		ProductID: id.String(),
		Name:      snap.Name,
		Quantity:  qty,
		UnitPrice: unit,
		Tier:      string(tier),
		LineTotal: LineTotal(unit, qty),
	}, nil
}

func (s *productService) cachedSnapshot(ctx context.Context, id uuid.UUID) (priceSnapshot, bool) {
	var snap priceSnapshot
	if s.rdb == nil {
		return snap, false
	}
	b, err := s.rdb.Get(ctx, priceCacheKey(id)).Bytes()
	if err != nil {
		return snap, false
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, false
	}
	return snap, true
}

// storeSnapshot populates the cache — best effort, ignore errors.
func (s *productService) storeSnapshot(id uuid.UUID, snap priceSnapshot) {
	if s.rdb == nil {
		return
	}
	if b, err := json.Marshal(snap); err == nil {
		_ = s.rdb.Set(context.Background(), priceCacheKey(id), b, priceCacheTTL).Err()
	}
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, priceCacheKey(id)).Err(); err != nil {
		log.Warn().Err(err).Str("product_id", id.String()).Msg("price cache: invalidation failed")
	}
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:                 p.ID.String(),
		Name:               p.Name,
		SKU:                p.SKU,
		RetailPrice:        p.RetailPrice,
		WholesalePrice:     p.WholesalePrice,
		WholesaleThreshold: p.WholesaleThreshold,
		Stock:              p.Stock,
		Status:             string(model.StatusFor(p.Stock)),
		LowStockThreshold:  p.LowStockThreshold,
		Archived:           p.Archived,
	}
}
