package service_test

import (
	"context"
	"sync"

	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubProductRepo is an in-memory ProductRepository. Its conditional
// decrement mirrors the SQL one: it only applies when stock >= qty.
type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	// stolen simulates a concurrent sale landing between pre-flight and the
	// conditional decrement of this product.
	stolen map[uuid.UUID]int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product), stolen: make(map[uuid.UUID]int)}
}

func (r *stubProductRepo) seed(name string, stock int, retail, wholesale int64, threshold int) *model.Product {
	p := &model.Product{
		ID:                 uuid.New(),
		Name:               name,
		RetailPrice:        decimal.NewFromInt(retail),
		WholesalePrice:     decimal.NewFromInt(wholesale),
		WholesaleThreshold: threshold,
		Stock:              stock,
		Status:             model.StatusFor(stock),
		LowStockThreshold:  2,
	}
	r.mu.Lock()
	r.products[p.ID] = p
	r.mu.Unlock()
	return p
}

func (r *stubProductRepo) get(id uuid.UUID) model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.products[id]
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.Name == p.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Status = model.StatusFor(p.Stock)
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stock := cur.Stock
	cp := *p
	cp.Stock = stock
	cp.Status = model.StatusFor(stock)
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) Archive(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Archived = true
	return nil
}

func (r *stubProductRepo) ListLowStock(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if !p.Archived && p.Stock <= p.LowStockThreshold {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, repository.ErrStockConditionFailed
	}
	if n := r.stolen[id]; n > 0 {
		p.Stock -= n
		delete(r.stolen, id)
	}
	if p.Stock < qty {
		return 0, repository.ErrStockConditionFailed
	}
	p.Stock -= qty
	p.Status = model.StatusFor(p.Stock)
	return p.Stock, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	p.Stock += qty
	p.Status = model.StatusFor(p.Stock)
	return p.Stock, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubSaleRepo is an in-memory SaleRepository.
type stubSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
	seq   int64
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	cp.Items = append([]model.SaleItem(nil), s.Items...)
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Items = append([]model.SaleItem(nil), s.Items...)
	return &cp, nil
}

func (r *stubSaleRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSaleRepo) MarkRefundedTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sales[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.Status = s.Status
	cur.PaymentStatus = s.PaymentStatus
	cur.RefundReason = s.RefundReason
	cur.RefundedAt = s.RefundedAt
	return nil
}

func (r *stubSaleRepo) NextInvoiceSeq(_ context.Context, _ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if filter.Status != "all" && string(s.Status) != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

func (r *stubSaleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sales)
}

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// stubMovementRepo captures ledger movements for assertion.
type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, _ repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.movements, int64(len(r.movements)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// stubTagRepo is an in-memory RFIDTagRepository keyed by tag code.
type stubTagRepo struct {
	mu   sync.Mutex
	tags map[string]*model.RFIDTag
}

func newStubTagRepo() *stubTagRepo { return &stubTagRepo{tags: make(map[string]*model.RFIDTag)} }

func (r *stubTagRepo) Create(_ context.Context, t *model.RFIDTag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[t.TagCode]; ok {
		return gorm.ErrDuplicatedKey
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	r.tags[t.TagCode] = &cp
	return nil
}

func (r *stubTagRepo) FindByCode(_ context.Context, code string) (*model.RFIDTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tags[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubTagRepo) FindActiveByCode(ctx context.Context, code string) (*model.RFIDTag, error) {
	t, err := r.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TagActive {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *stubTagRepo) List(_ context.Context) ([]model.RFIDTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.RFIDTag, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubTagRepo) UpdateStatus(_ context.Context, code string, status model.TagStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tags[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

var _ repository.RFIDTagRepository = (*stubTagRepo)(nil)

// stubPurchaseRepo is an in-memory PurchaseRepository.
type stubPurchaseRepo struct {
	mu        sync.Mutex
	purchases map[uuid.UUID]*model.Purchase
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{purchases: make(map[uuid.UUID]*model.Purchase)}
}

func (r *stubPurchaseRepo) Create(_ context.Context, p *model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	cp.Items = append([]model.PurchaseItem(nil), p.Items...)
	r.purchases[p.ID] = &cp
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	cp.Items = append([]model.PurchaseItem(nil), p.Items...)
	return &cp, nil
}

func (r *stubPurchaseRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Purchase, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPurchaseRepo) MarkReceivedTx(_ *gorm.DB, p *model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.purchases[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.Status = p.Status
	cur.ReceivedAt = p.ReceivedAt
	return nil
}

func (r *stubPurchaseRepo) List(_ context.Context, _ dto.PurchaseFilter) ([]model.Purchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Purchase
	for _, p := range r.purchases {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPurchaseRepo) DB() *gorm.DB { return nil }

var _ repository.PurchaseRepository = (*stubPurchaseRepo)(nil)

// mockNotifier records broadcasts through testify/mock.
type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) BroadcastSaleAlert(ctx context.Context, alert dto.SaleAlert) error {
	return m.Called(ctx, alert).Error(0)
}

func (m *mockNotifier) BroadcastStockAlert(ctx context.Context, alert dto.StockAlert) error {
	return m.Called(ctx, alert).Error(0)
}

// countingRecorder is a SaleRecorder that counts calls.
type countingRecorder struct {
	mu        sync.Mutex
	completed int
	units     int
	rejected  map[string]int
	refunded  int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{rejected: make(map[string]int)}
}

func (c *countingRecorder) SaleCompleted(_ string, units int, _ decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed++
	c.units += units
}

func (c *countingRecorder) SaleRejected(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected[reason]++
}

func (c *countingRecorder) SaleRefunded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refunded++
}
