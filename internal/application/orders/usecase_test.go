package orders_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcevallos/restopos-api/internal/application/dto"
	"github.com/dcevallos/restopos-api/internal/application/orders"
	"github.com/dcevallos/restopos-api/internal/domain"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
)

const testRestaurantID = "rest-1"

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*entity.Order
	items  map[string][]*entity.OrderItem
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders: make(map[string]*entity.Order),
		items:  make(map[string][]*entity.OrderItem),
	}
}

func (r *memOrderRepo) Create(_ context.Context, o *entity.Order, items []*entity.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	r.items[o.ID] = items
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) GetItemsByOrderID(_ context.Context, orderID string) ([]*entity.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[orderID], nil
}

func (r *memOrderRepo) Update(_ context.Context, o *entity.Order, items []*entity.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	r.items[o.ID] = items
	return nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *memOrderRepo) MarkBilled(_ context.Context, id string, billed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Billed = billed
	return nil
}

func (r *memOrderRepo) UnmarkAllBilled(_ context.Context, restaurantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID {
			o.Billed = false
		}
	}
	return nil
}

func (r *memOrderRepo) ListByRestaurant(_ context.Context, restaurantID string, _, _ int) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memOrderRepo) CountByRestaurant(_ context.Context, restaurantID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID {
			n++
		}
	}
	return n, nil
}

func createRequest() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		CustomerName: "Mesa 7",
		Type:         entity.OrderTypeDineIn,
		Items: []dto.OrderItemRequest{
			{Name: "Encebollado", Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("4.50")},
			{Name: "Jugo de naranja", Quantity: decimal.NewFromInt(3), Price: decimal.RequireFromString("1.75")},
			{Name: "Seco de pollo", Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("6.00")},
		},
	}
}

func TestCreate_CalculaElTotal(t *testing.T) {
	uc := orders.NewUseCase(newMemOrderRepo())

	resp, err := uc.Create(context.Background(), testRestaurantID, createRequest())
	require.NoError(t, err)

	// 2×4.50 + 3×1.75 + 2×6.00 = 26.25
	assert.Equal(t, "26.25", resp.Total.StringFixed(2))
	assert.Equal(t, entity.OrderStatusNew, resp.Status)
	assert.False(t, resp.Billed)
	assert.Len(t, resp.Items, 3)
}

func TestCreate_TipoInvalido(t *testing.T) {
	uc := orders.NewUseCase(newMemOrderRepo())
	req := createRequest()
	req.Type = "drive_thru"

	_, err := uc.Create(context.Background(), testRestaurantID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_SinLineas(t *testing.T) {
	uc := orders.NewUseCase(newMemOrderRepo())
	req := createRequest()
	req.Items = nil

	_, err := uc.Create(context.Background(), testRestaurantID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_CantidadNoPositiva(t *testing.T) {
	uc := orders.NewUseCase(newMemOrderRepo())
	req := createRequest()
	req.Items[0].Quantity = decimal.Zero

	_, err := uc.Create(context.Background(), testRestaurantID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCycleStatus_RecorreElCiclo(t *testing.T) {
	uc := orders.NewUseCase(newMemOrderRepo())
	created, err := uc.Create(context.Background(), testRestaurantID, createRequest())
	require.NoError(t, err)

	esperados := []string{
		entity.OrderStatusReady,
		entity.OrderStatusCompleted,
		entity.OrderStatusNew, // el ciclo vuelve al inicio
	}
	for _, want := range esperados {
		resp, err := uc.CycleStatus(context.Background(), testRestaurantID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, resp.Status)
	}
}

func TestUpdate_ReemplazaLineas(t *testing.T) {
	repo := newMemOrderRepo()
	uc := orders.NewUseCase(repo)
	created, err := uc.Create(context.Background(), testRestaurantID, createRequest())
	require.NoError(t, err)

	resp, err := uc.Update(context.Background(), testRestaurantID, created.ID, dto.UpdateOrderRequest{
		Items: []dto.OrderItemRequest{
			{Name: "Bolón mixto", Quantity: decimal.NewFromInt(1), Price: decimal.RequireFromString("3.50")},
		},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1, "las líneas se reemplazan completas")
	assert.Equal(t, "3.50", resp.Total.StringFixed(2))
}

func TestUpdate_ConservaLineasSiNoSeEnvian(t *testing.T) {
	uc := orders.NewUseCase(newMemOrderRepo())
	created, err := uc.Create(context.Background(), testRestaurantID, createRequest())
	require.NoError(t, err)

	resp, err := uc.Update(context.Background(), testRestaurantID, created.ID, dto.UpdateOrderRequest{
		CustomerName: "Mesa 8",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mesa 8", resp.CustomerName)
	assert.Len(t, resp.Items, 3, "sin líneas en el request se conservan las existentes")
}

func TestUpdate_OrdenFacturada_SoloLectura(t *testing.T) {
	repo := newMemOrderRepo()
	uc := orders.NewUseCase(repo)
	created, err := uc.Create(context.Background(), testRestaurantID, createRequest())
	require.NoError(t, err)
	require.NoError(t, repo.MarkBilled(context.Background(), created.ID, true))

	_, err = uc.Update(context.Background(), testRestaurantID, created.ID, dto.UpdateOrderRequest{
		CustomerName: "Mesa 9",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGet_OrdenAjena(t *testing.T) {
	uc := orders.NewUseCase(newMemOrderRepo())
	created, err := uc.Create(context.Background(), "rest-otro", createRequest())
	require.NoError(t, err)

	_, err = uc.Get(context.Background(), testRestaurantID, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGet_NoExiste(t *testing.T) {
	uc := orders.NewUseCase(newMemOrderRepo())

	_, err := uc.Get(context.Background(), testRestaurantID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
