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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleOrigin tells the engine which channel produced a sale.
type SaleOrigin struct {
	Source   string // model.SourceAPI | model.SourceRFID
	DeviceID *string
}

type SaleService interface {
	CreateSale(ctx context.Context, req dto.CreateSaleRequest, origin SaleOrigin) (*dto.SaleResponse, error)
	RefundSale(ctx context.Context, id uuid.UUID, reason string) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	GetSavings(ctx context.Context, id uuid.UUID) (*dto.SavingsResponse, error)
}

type saleService struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	inventory InventoryService
	notifier  Notifier     // may be nil
	metrics   SaleRecorder // may be nil
	now       func() time.Time
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	inventory InventoryService,
	notifier Notifier,
	metrics SaleRecorder,
) SaleService {
	return &saleService{
		sales:     sales,
		products:  products,
		inventory: inventory,
		notifier:  notifier,
		metrics:   metrics,
		now:       time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── CreateSale ────────────────────────────────────────────────────────────────
//   1. Validate request shape and discount spec
//   2. Pre-flight (no writes): resolve products, check cumulative stock, price items
//   3. Compute discount / tax / total
//   4. BEGIN TX: nextval invoice, reserve each line (conditional decrement), persist sale
//   5. COMMIT, then metrics + best-effort notification

type pricedLine struct {
	product   *model.Product
	quantity  int
	unitPrice decimal.Decimal
	lineTotal decimal.Decimal
	tier      model.PriceTier
}

func (s *saleService) CreateSale(ctx context.Context, req dto.CreateSaleRequest, origin SaleOrigin) (*dto.SaleResponse, error) {
	if len(req.SoldProducts) == 0 {
		return nil, fmt.Errorf("a sale needs at least one item: %w", ErrValidation)
	}
	discount := DiscountSpec{Type: model.DiscountType(req.DiscountType), Value: req.DiscountValue}
	if discount.Type == "" {
		discount.Type = model.DiscountNone
	}
	if err := discount.Validate(); err != nil {
		return nil, err
	}
	if req.TaxAmount.IsNegative() {
		return nil, fmt.Errorf("tax must not be negative: %w", ErrValidation)
	}
	if !WholeCents(req.TaxAmount) {
		return nil, fmt.Errorf("tax has more than 2 decimal places: %w", ErrValidation)
	}
	if origin.Source == "" {
		origin.Source = model.SourceAPI
	}

	// 2. Pre-flight
	lines := make([]pricedLine, 0, len(req.SoldProducts))
	requested := make(map[uuid.UUID]int, len(req.SoldProducts))
	subtotal := decimal.Zero

	for _, item := range req.SoldProducts {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
		}
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid productId %q: %w", item.ProductID, ErrValidation)
		}
		p, err := s.products.FindByID(ctx, pid)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.rejected("not_found")
			return nil, fmt.Errorf("product %s: %w", pid, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		if p.Archived {
			return nil, fmt.Errorf("product %s is archived: %w", p.Name, ErrValidation)
		}
		requested[pid] += item.Quantity
		if requested[pid] > p.Stock {
			s.rejected("insufficient_stock")
			return nil, fmt.Errorf("product %s has %d in stock, %d requested: %w",
				p.Name, p.Stock, requested[pid], ErrInsufficientStock)
		}

		unit, tier := PriceFor(p, item.Quantity)
		line := LineTotal(unit, item.Quantity)
		subtotal = subtotal.Add(line)
		lines = append(lines, pricedLine{product: p, quantity: item.Quantity, unitPrice: unit, lineTotal: line, tier: tier})
	}

	// 3. Totals
	totals := ComputeTotals(subtotal, discount, req.TaxAmount)

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	// 4. ACID transaction
	var sale model.Sale
	var changes []*dto.StockChange
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		seq, err := s.sales.NextInvoiceSeq(ctx, tx)
		if err != nil {
			return err
		}
		now := s.now()
		sale = model.Sale{
			ID:              uuid.New(),
			InvoiceNumber:   FormatInvoiceNumber(now, seq),
			Subtotal:        totals.Subtotal,
			DiscountType:    discount.Type,
			DiscountValue:   discount.Value,
			DiscountAmount:  totals.DiscountAmount,
			TaxAmount:       totals.TaxAmount,
			TotalAmount:     totals.TotalAmount,
			PaymentMethod:   paymentMethod,
			PaymentStatus:   model.PaymentPaid,
			CustomerName:    req.CustomerName,
			CustomerContact: req.CustomerContact,
			Status:          model.SaleCompleted,
			Source:          origin.Source,
			DeviceID:        origin.DeviceID,
			CreatedAt:       now,
		}

		ref := MovementRef{Kind: model.MovementSale, Reason: "sale " + sale.InvoiceNumber, ReferenceID: &sale.ID}
		changes = changes[:0]
		for i, l := range lines {
			change, err := s.inventory.Reserve(ctx, tx, l.product.ID, l.quantity, ref)
			if err != nil {
				return err
			}
			changes = append(changes, change)
			sale.Items = append(sale.Items, model.SaleItem{
				Position:  i,
				ProductID: l.product.ID,
				Quantity:  l.quantity,
				UnitPrice: l.unitPrice,
				LineTotal: l.lineTotal,
				PriceTier: l.tier,
			})
		}

		return s.sales.Create(ctx, tx, &sale)
	})
	if txErr != nil {
		if errors.Is(txErr, ErrInsufficientStock) {
			s.rejected("insufficient_stock")
		}
		return nil, txErr
	}

	// 5. Post-commit
	units := 0
	for i := range sale.Items {
		sale.Items[i].Product = lines[i].product
		units += sale.Items[i].Quantity
	}
	if s.metrics != nil {
		s.metrics.SaleCompleted(sale.Source, units, sale.TotalAmount)
	}
	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("invoice", sale.InvoiceNumber).
		Str("source", sale.Source).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Msg("sale completed")

	s.announceSale(ctx, "sale.created", &sale)
	s.announceLowStock(ctx, lines, changes)

	return saleToResponse(&sale), nil
}

func (s *saleService) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.SaleRejected(reason)
	}
}

func (s *saleService) announceSale(ctx context.Context, kind string, sale *model.Sale) {
	if s.notifier == nil {
		return
	}
	alert := dto.SaleAlert{
		Type:          kind,
		SaleID:        sale.ID.String(),
		InvoiceNumber: sale.InvoiceNumber,
		TotalAmount:   sale.TotalAmount,
		ItemCount:     len(sale.Items),
		Source:        sale.Source,
		At:            s.now().UTC().Format(time.RFC3339),
	}
	if sale.DeviceID != nil {
		alert.DeviceID = *sale.DeviceID
	}
	notifySafely(ctx, kind, func(nctx context.Context) error {
		return s.notifier.BroadcastSaleAlert(nctx, alert)
	})
}

// announceLowStock reports the products this sale pushed to or below their
// threshold, judged on the stock the ledger saw inside the transaction.
// Products that were already low are left to the periodic sweep.
func (s *saleService) announceLowStock(ctx context.Context, lines []pricedLine, changes []*dto.StockChange) {
	if s.notifier == nil {
		return
	}
	var low []dto.LowStockResponse
	seen := make(map[uuid.UUID]bool)
	for i, c := range changes {
		p := lines[i].product
		if seen[p.ID] {
			continue
		}
		if c.StockAfter <= p.LowStockThreshold && c.StockBefore > p.LowStockThreshold {
			seen[p.ID] = true
			snapshot := *p
			snapshot.Stock = c.StockAfter
			low = append(low, lowStockResponse(&snapshot))
		}
	}
	if len(low) == 0 {
		return
	}
	alert := dto.StockAlert{Type: "stock.low", Products: low, At: s.now().UTC().Format(time.RFC3339)}
	notifySafely(ctx, "stock.low", func(nctx context.Context) error {
		return s.notifier.BroadcastStockAlert(nctx, alert)
	})
}

// ── RefundSale ────────────────────────────────────────────────────────────────
// Locks the sale row so two concurrent refunds cannot both restore stock.

func (s *saleService) RefundSale(ctx context.Context, id uuid.UUID, reason string) (*dto.SaleResponse, error) {
	var sale *model.Sale
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindByIDForUpdateTx(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("sale %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if sale.Status != model.SaleCompleted {
			return fmt.Errorf("sale %s is %s: %w", sale.InvoiceNumber, sale.Status, ErrInvalidState)
		}

		ref := MovementRef{Kind: model.MovementRefund, Reason: "refund " + sale.InvoiceNumber, ReferenceID: &sale.ID}
		for _, item := range sale.Items {
			if _, err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity, ref); err != nil {
				return err
			}
		}

		now := s.now()
		sale.Status = model.SaleRefunded
		sale.PaymentStatus = model.PaymentRefunded
		sale.RefundedAt = &now
		if reason != "" {
			sale.RefundReason = &reason
		}
		return s.sales.MarkRefundedTx(tx, sale)
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.metrics != nil {
		s.metrics.SaleRefunded()
	}
	log.Info().Str("sale_id", sale.ID.String()).Str("invoice", sale.InvoiceNumber).Msg("sale refunded")
	s.announceSale(ctx, "sale.refunded", sale)

	return saleToResponse(sale), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.findSale(ctx, id)
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

func (s *saleService) GetSavings(ctx context.Context, id uuid.UUID) (*dto.SavingsResponse, error) {
	sale, err := s.findSale(ctx, id)
	if err != nil {
		return nil, err
	}
	amount, pct := Savings(sale.Subtotal, sale.DiscountAmount)
	return &dto.SavingsResponse{DiscountAmount: amount, DiscountPercentage: pct}, nil
}

func (s *saleService) findSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	return sale, err
}

// ListSales returns a paginated list of sales. Default filter: completed
// sales, so refunds drop out of revenue listings.
func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Status == "" {
		filter.Status = string(model.SaleCompleted)
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.SaleItemResponse{
			ProductID: item.ProductID.String(),
			Product:   name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
			PriceTier: string(item.PriceTier),
		})
	}
	resp := &dto.SaleResponse{
		ID:              s.ID.String(),
		InvoiceNumber:   s.InvoiceNumber,
		Items:           items,
		Subtotal:        s.Subtotal,
		DiscountType:    string(s.DiscountType),
		DiscountValue:   s.DiscountValue,
		DiscountAmount:  s.DiscountAmount,
		TaxAmount:       s.TaxAmount,
		TotalAmount:     s.TotalAmount,
		PaymentMethod:   s.PaymentMethod,
		PaymentStatus:   s.PaymentStatus,
		CustomerName:    s.CustomerName,
		CustomerContact: s.CustomerContact,
		Status:          string(s.Status),
		Source:          s.Source,
		RefundReason:    s.RefundReason,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
	if s.RefundedAt != nil {
		t := s.RefundedAt.Format(time.RFC3339)
		resp.RefundedAt = &t
	}
	return resp
}
