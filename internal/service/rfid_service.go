package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DeviceVerifier checks reader credentials. *DeviceRegistry implements it.
type DeviceVerifier interface {
	Verify(deviceID, apiKey string) error
}

// ScanCommand is one tag read. BodyErr carries a request body the transport
// could not decode; it is reported only once the device is authenticated.
type ScanCommand struct {
	TagCode  string
	Quantity int
	DeviceID string
	APIKey   string
	BodyErr  error
}

type RFIDService interface {
	Scan(ctx context.Context, cmd ScanCommand) (*dto.ScanResponse, error)
	CreateTag(ctx context.Context, req dto.CreateTagRequest) (*dto.TagResponse, error)
	ListTags(ctx context.Context) ([]dto.TagResponse, error)
	UpdateTagStatus(ctx context.Context, tagCode string, req dto.UpdateTagStatusRequest) (*dto.TagResponse, error)
}

type rfidService struct {
	tags     repository.RFIDTagRepository
	products repository.ProductRepository
	devices  DeviceVerifier
	sales    SaleService
}

func NewRFIDService(
	tags repository.RFIDTagRepository,
	products repository.ProductRepository,
	devices DeviceVerifier,
	sales SaleService,
) RFIDService {
	return &rfidService{tags: tags, products: products, devices: devices, sales: sales}
}

// Scan turns one tag read into a single-item cash sale.
// Order: authenticate, validate, resolve tag, resolve product, sell.
func (s *rfidService) Scan(ctx context.Context, cmd ScanCommand) (*dto.ScanResponse, error) {
	if err := s.devices.Verify(cmd.DeviceID, cmd.APIKey); err != nil {
		log.Warn().Str("device_id", cmd.DeviceID).Msg("rfid: rejected device credentials")
		return nil, err
	}
	if cmd.BodyErr != nil {
		return nil, fmt.Errorf("invalid JSON: %v: %w", cmd.BodyErr, ErrValidation)
	}

	code := strings.TrimSpace(cmd.TagCode)
	if code == "" {
		return nil, fmt.Errorf("tagId is required: %w", ErrValidation)
	}
	qty := cmd.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	tag, err := s.tags.FindActiveByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("tag %q is unknown or not active: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, tag.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product for tag %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if product.Archived {
		return nil, fmt.Errorf("product for tag %q is archived: %w", code, ErrNotFound)
	}

	deviceID := cmd.DeviceID
	sale, err := s.sales.CreateSale(ctx, dto.CreateSaleRequest{
		SoldProducts:  []dto.SaleItemRequest{{ProductID: tag.ProductID.String(), Quantity: qty}},
		DiscountType:  string(model.DiscountNone),
		PaymentMethod: "cash",
	}, SaleOrigin{Source: model.SourceRFID, DeviceID: &deviceID})
	if err != nil {
		return nil, err
	}

	return &dto.ScanResponse{OK: true, SaleID: sale.ID, InvoiceNumber: sale.InvoiceNumber}, nil
}

// ── Tag registry ──────────────────────────────────────────────────────────────

func (s *rfidService) CreateTag(ctx context.Context, req dto.CreateTagRequest) (*dto.TagResponse, error) {
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid productId: %w", ErrValidation)
	}
	p, err := s.products.FindByID(ctx, pid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", pid, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	tag := &model.RFIDTag{TagCode: strings.TrimSpace(req.TagCode), ProductID: pid, Status: model.TagActive}
	if err := s.tags.Create(ctx, tag); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("tag %q already registered: %w", tag.TagCode, ErrConflict)
		}
		return nil, err
	}
	tag.Product = p
	return tagToResponse(tag), nil
}

func (s *rfidService) ListTags(ctx context.Context) ([]dto.TagResponse, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TagResponse, 0, len(tags))
	for i := range tags {
		out = append(out, *tagToResponse(&tags[i]))
	}
	return out, nil
}

func (s *rfidService) UpdateTagStatus(ctx context.Context, tagCode string, req dto.UpdateTagStatusRequest) (*dto.TagResponse, error) {
	if err := s.tags.UpdateStatus(ctx, tagCode, model.TagStatus(req.Status)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tag %q: %w", tagCode, ErrNotFound)
		}
		return nil, err
	}
	tag, err := s.tags.FindByCode(ctx, tagCode)
	if err != nil {
		return nil, err
	}
	return tagToResponse(tag), nil
}

func tagToResponse(t *model.RFIDTag) *dto.TagResponse {
	r := &dto.TagResponse{
		ID:        t.ID.String(),
		TagCode:   t.TagCode,
		ProductID: t.ProductID.String(),
		Status:    string(t.Status),
	}
	if t.Product != nil {
		r.Product = t.Product.Name
	}
	return r
}
