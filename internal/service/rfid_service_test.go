package service_test

import (
	"context"
	"errors"
	"testing"

	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type rfidFixture struct {
	svc      service.RFIDService
	tags     *stubTagRepo
	products *stubProductRepo
	sales    *stubSaleRepo
	notifier *mockNotifier
}

func buildRFIDSvc(t *testing.T, notifyErr error) *rfidFixture {
	t.Helper()
	f := &rfidFixture{
		tags:     newStubTagRepo(),
		products: newStubProductRepo(),
		sales:    newStubSaleRepo(),
		notifier: &mockNotifier{},
	}
	f.notifier.On("BroadcastSaleAlert", mock.Anything, mock.Anything).Return(notifyErr).Maybe()
	f.notifier.On("BroadcastStockAlert", mock.Anything, mock.Anything).Return(notifyErr).Maybe()

	inv := service.NewInventoryService(f.products, &stubMovementRepo{})
	sales := service.NewSaleService(f.sales, f.products, inv, f.notifier, nil)
	devices := service.NewDeviceRegistry(map[string]string{"reader-1": hashKey(t, "secret")}, "", nil)
	f.svc = service.NewRFIDService(f.tags, f.products, devices, sales)
	return f
}

func (f *rfidFixture) tag(t *testing.T, code string, p *model.Product, status model.TagStatus) {
	t.Helper()
	require.NoError(t, f.tags.Create(context.Background(), &model.RFIDTag{TagCode: code, ProductID: p.ID, Status: status}))
}

func scan(code string, qty int) service.ScanCommand {
	return service.ScanCommand{TagCode: code, Quantity: qty, DeviceID: "reader-1", APIKey: "secret"}
}

func TestScan_CreatesSingleItemRFIDSale(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	p := f.products.seed("Demo Widget", 10, 200, 150, 5)
	f.tag(t, "TAG-1", p, model.TagActive)

	resp, err := f.svc.Scan(context.Background(), scan("TAG-1", 0))
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Regexp(t, `^INV-\d{4}-\d{6}$`, resp.InvoiceNumber)
	assert.Equal(t, 9, f.products.get(p.ID).Stock)

	sale, err := f.sales.FindByID(context.Background(), uuid.MustParse(resp.SaleID))
	require.NoError(t, err)
	assert.Equal(t, model.SourceRFID, sale.Source)
	require.NotNil(t, sale.DeviceID)
	assert.Equal(t, "reader-1", *sale.DeviceID)
	assert.Equal(t, model.DiscountNone, sale.DiscountType)
	assert.Equal(t, "cash", sale.PaymentMethod)
}

func TestScan_QuantityAppliesWholesale(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	p := f.products.seed("Demo Widget", 10, 200, 150, 5)
	f.tag(t, "TAG-1", p, model.TagActive)

	resp, err := f.svc.Scan(context.Background(), scan(" TAG-1 ", 5))
	require.NoError(t, err)

	sale, err := f.sales.FindByID(context.Background(), uuid.MustParse(resp.SaleID))
	require.NoError(t, err)
	assert.Equal(t, model.TierWholesale, sale.Items[0].PriceTier)
}

func TestScan_BadAPIKey(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	p := f.products.seed("Demo Widget", 10, 200, 150, 5)
	f.tag(t, "TAG-1", p, model.TagActive)

	cmd := scan("TAG-1", 1)
	cmd.APIKey = "guess"
	_, err := f.svc.Scan(context.Background(), cmd)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, 10, f.products.get(p.ID).Stock)
}

func TestScan_AuthIsCheckedBeforeValidation(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	_, err := f.svc.Scan(context.Background(), service.ScanCommand{DeviceID: "reader-1", APIKey: "nope"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestScan_UndecodableBodyAfterAuth(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	bodyErr := errors.New("unexpected EOF")

	bad := service.ScanCommand{DeviceID: "reader-1", APIKey: "nope", BodyErr: bodyErr}
	_, err := f.svc.Scan(context.Background(), bad)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	good := scan("", 0)
	good.BodyErr = bodyErr
	_, err = f.svc.Scan(context.Background(), good)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestScan_MissingTag(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	_, err := f.svc.Scan(context.Background(), scan("   ", 1))
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestScan_NegativeQuantity(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	_, err := f.svc.Scan(context.Background(), scan("TAG-1", -1))
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestScan_UnknownTag(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	_, err := f.svc.Scan(context.Background(), scan("NOPE", 1))
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestScan_InactiveTag(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	p := f.products.seed("Demo Widget", 10, 200, 150, 5)
	f.tag(t, "TAG-1", p, model.TagInactive)

	_, err := f.svc.Scan(context.Background(), scan("TAG-1", 1))
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, 10, f.products.get(p.ID).Stock)
}

func TestScan_TagForDeletedProduct(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	require.NoError(t, f.tags.Create(context.Background(), &model.RFIDTag{TagCode: "ORPHAN", ProductID: uuid.New(), Status: model.TagActive}))

	_, err := f.svc.Scan(context.Background(), scan("ORPHAN", 1))
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestScan_TagForArchivedProduct(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	p := f.products.seed("Retired Widget", 10, 200, 150, 5)
	p.Archived = true
	f.tag(t, "TAG-OLD", p, model.TagActive)

	_, err := f.svc.Scan(context.Background(), scan("TAG-OLD", 1))
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, 10, f.products.get(p.ID).Stock)
	assert.Equal(t, 0, f.sales.count())
}

func TestScan_OutOfStock(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	p := f.products.seed("Demo Widget", 0, 200, 150, 5)
	f.tag(t, "TAG-1", p, model.TagActive)

	_, err := f.svc.Scan(context.Background(), scan("TAG-1", 1))
	assert.ErrorIs(t, err, service.ErrInsufficientStock)
	assert.Equal(t, 0, f.sales.count())
}

func TestScan_NotifierFailureStillSucceeds(t *testing.T) {
	f := buildRFIDSvc(t, errors.New("sink unavailable"))
	p := f.products.seed("Demo Widget", 10, 200, 150, 5)
	f.tag(t, "TAG-1", p, model.TagActive)

	resp, err := f.svc.Scan(context.Background(), scan("TAG-1", 1))
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 1, f.sales.count())
}

func TestCreateTag_DuplicateIsConflict(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	p := f.products.seed("Demo Widget", 10, 200, 150, 5)

	req := dto.CreateTagRequest{TagCode: "TAG-9", ProductID: p.ID.String()}
	resp, err := f.svc.CreateTag(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Demo Widget", resp.Product)
	assert.Equal(t, string(model.TagActive), resp.Status)

	_, err = f.svc.CreateTag(context.Background(), req)
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestCreateTag_UnknownProduct(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	_, err := f.svc.CreateTag(context.Background(), dto.CreateTagRequest{TagCode: "T", ProductID: uuid.NewString()})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateTagStatus(t *testing.T) {
	f := buildRFIDSvc(t, nil)
	p := f.products.seed("Demo Widget", 10, 200, 150, 5)
	f.tag(t, "TAG-1", p, model.TagActive)

	resp, err := f.svc.UpdateTagStatus(context.Background(), "TAG-1", dto.UpdateTagStatusRequest{Status: "inactive"})
	require.NoError(t, err)
	assert.Equal(t, "inactive", resp.Status)

	_, err = f.svc.Scan(context.Background(), scan("TAG-1", 1))
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.UpdateTagStatus(context.Background(), "MISSING", dto.UpdateTagStatusRequest{Status: "active"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}
