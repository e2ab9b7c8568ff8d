// Package orders gestiona las comandas del restaurante: creación, edición,
// ciclo de estados de sala y listado. La facturación vive aparte; aquí solo
// se respeta la marca Billed que aquella administra.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dcevallos/restopos-api/internal/application/dto"
	"github.com/dcevallos/restopos-api/internal/domain"
	domainbilling "github.com/dcevallos/restopos-api/internal/domain/billing"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
)

// UseCase operaciones sobre órdenes.
type UseCase struct {
	repo repository.OrderRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.OrderRepository) *UseCase {
	return &UseCase{repo: repo}
}

// Create registra una orden nueva con sus líneas.
func (uc *UseCase) Create(ctx context.Context, restaurantID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if !entity.ValidOrderType(in.Type) {
		return nil, fmt.Errorf("%w: tipo de orden inválido %q", domain.ErrInvalidInput, in.Type)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la orden necesita al menos una línea", domain.ErrInvalidInput)
	}

	now := time.Now()
	order := &entity.Order{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		CustomerName: strings.TrimSpace(in.CustomerName),
		Type:         in.Type,
		Status:       entity.OrderStatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	items, err := buildItems(order.ID, in.Items)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, order, items); err != nil {
		return nil, err
	}
	resp := toOrderResponse(order, items)
	return &resp, nil
}

// Update reemplaza datos de cabecera y, si se envían, las líneas completas.
// Una orden facturada es de solo lectura.
func (uc *UseCase) Update(ctx context.Context, restaurantID, orderID string, in dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	order, err := uc.getOwned(ctx, restaurantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Billed {
		return nil, fmt.Errorf("%w: la orden ya fue facturada y no admite cambios", domain.ErrConflict)
	}

	if in.CustomerName != "" {
		order.CustomerName = strings.TrimSpace(in.CustomerName)
	}
	if in.Type != "" {
		if !entity.ValidOrderType(in.Type) {
			return nil, fmt.Errorf("%w: tipo de orden inválido %q", domain.ErrInvalidInput, in.Type)
		}
		order.Type = in.Type
	}

	var items []*entity.OrderItem
	if in.Items != nil {
		if len(in.Items) == 0 {
			return nil, fmt.Errorf("%w: la orden necesita al menos una línea", domain.ErrInvalidInput)
		}
		items, err = buildItems(order.ID, in.Items)
		if err != nil {
			return nil, err
		}
	} else {
		items, err = uc.repo.GetItemsByOrderID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
	}

	order.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, order, items); err != nil {
		return nil, err
	}
	resp := toOrderResponse(order, items)
	return &resp, nil
}

// CycleStatus avanza la orden al siguiente estado de sala (new→ready→completed→new).
func (uc *UseCase) CycleStatus(ctx context.Context, restaurantID, orderID string) (*dto.OrderResponse, error) {
	order, err := uc.getOwned(ctx, restaurantID, orderID)
	if err != nil {
		return nil, err
	}
	order.Status = entity.NextStatus(order.Status)
	if err := uc.repo.UpdateStatus(ctx, order.ID, order.Status); err != nil {
		return nil, err
	}
	items, err := uc.repo.GetItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order, items)
	return &resp, nil
}

// Get devuelve una orden con sus líneas.
func (uc *UseCase) Get(ctx context.Context, restaurantID, orderID string) (*dto.OrderResponse, error) {
	order, err := uc.getOwned(ctx, restaurantID, orderID)
	if err != nil {
		return nil, err
	}
	items, err := uc.repo.GetItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order, items)
	return &resp, nil
}

// List lista las órdenes del restaurante.
func (uc *UseCase) List(ctx context.Context, restaurantID string, page dto.PageRequest) (*dto.OrderListResponse, error) {
	page.DefaultPage()
	orders, err := uc.repo.ListByRestaurant(ctx, restaurantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.CountByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.OrderResponse, len(orders))
	for i, o := range orders {
		lines, lErr := uc.repo.GetItemsByOrderID(ctx, o.ID)
		if lErr != nil {
			return nil, lErr
		}
		items[i] = toOrderResponse(o, lines)
	}
	return &dto.OrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

func (uc *UseCase) getOwned(ctx context.Context, restaurantID, orderID string) (*entity.Order, error) {
	order, err := uc.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.RestaurantID != restaurantID {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func buildItems(orderID string, in []dto.OrderItemRequest) ([]*entity.OrderItem, error) {
	items := make([]*entity.OrderItem, len(in))
	for i, it := range in {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: línea %d sin nombre", domain.ErrInvalidInput, i+1)
		}
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: línea %q con cantidad no positiva", domain.ErrInvalidInput, name)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: línea %q con precio negativo", domain.ErrInvalidInput, name)
		}
		items[i] = &entity.OrderItem{
			ID:       uuid.NewString(),
			OrderID:  orderID,
			Name:     name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Prepared: it.Prepared,
		}
	}
	return items, nil
}

func toOrderResponse(o *entity.Order, items []*entity.OrderItem) dto.OrderResponse {
	lines := make([]dto.OrderItemResponse, len(items))
	deref := make([]entity.OrderItem, len(items))
	for i, it := range items {
		deref[i] = *it
		lines[i] = dto.OrderItemResponse{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Prepared: it.Prepared,
		}
	}
	return dto.OrderResponse{
		ID:           o.ID,
		RestaurantID: o.RestaurantID,
		CustomerName: o.CustomerName,
		Type:         o.Type,
		Status:       o.Status,
		Number:       o.Number,
		Billed:       o.Billed,
		Total:        domainbilling.OrderTotal(deref),
		Items:        lines,
		CreatedAt:    o.CreatedAt.Format(time.RFC3339),
	}
}
