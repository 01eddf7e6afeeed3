package service_test

import (
	"context"
	"testing"

	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPurchaseSvc() (service.PurchaseService, *stubProductRepo, *stubMovementRepo) {
	products := newStubProductRepo()
	movements := &stubMovementRepo{}
	inv := service.NewInventoryService(products, movements)
	return service.NewPurchaseService(newStubPurchaseRepo(), products, inv), products, movements
}

func TestPurchaseReceive_ReleasesStockOnce(t *testing.T) {
	svc, products, movements := buildPurchaseSvc()
	p := products.seed("Demo Widget", 0, 200, 150, 5)

	created, err := svc.Create(context.Background(), dto.CreatePurchaseRequest{
		Supplier: "Acme",
		Items:    []dto.PurchaseItemRequest{{ProductID: p.ID.String(), Quantity: 12}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.PurchasePending), created.Status)
	assert.Equal(t, 0, products.get(p.ID).Stock)

	id := uuid.MustParse(created.ID)
	received, err := svc.Receive(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, string(model.PurchaseReceived), received.Status)
	assert.NotNil(t, received.ReceivedAt)
	assert.Equal(t, 12, products.get(p.ID).Stock)
	assert.Equal(t, model.StatusInStock, products.get(p.ID).Status)

	require.Len(t, movements.movements, 1)
	assert.Equal(t, model.MovementPurchase, movements.movements[0].Kind)

	_, err = svc.Receive(context.Background(), id)
	assert.ErrorIs(t, err, service.ErrInvalidState)
	assert.Equal(t, 12, products.get(p.ID).Stock)
}

func TestPurchaseCreate_Validation(t *testing.T) {
	svc, products, _ := buildPurchaseSvc()
	p := products.seed("Demo Widget", 0, 200, 150, 5)

	_, err := svc.Create(context.Background(), dto.CreatePurchaseRequest{Supplier: "Acme"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Create(context.Background(), dto.CreatePurchaseRequest{
		Supplier: "Acme",
		Items:    []dto.PurchaseItemRequest{{ProductID: p.ID.String(), Quantity: 0}},
	})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Create(context.Background(), dto.CreatePurchaseRequest{
		Supplier: "Acme",
		Items:    []dto.PurchaseItemRequest{{ProductID: uuid.NewString(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPurchaseReceive_Unknown(t *testing.T) {
	svc, _, _ := buildPurchaseSvc()
	_, err := svc.Receive(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
