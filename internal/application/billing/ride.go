package billing

import (
	"context"

	"github.com/dcevallos/restopos-api/internal/domain"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
)

// RIDEUseCase genera la representación impresa (PDF) de un comprobante autorizado.
type RIDEUseCase struct {
	generator      RIDEGenerator
	billRepo       repository.BillRepository
	orderRepo      repository.OrderRepository
	restaurantRepo repository.RestaurantRepository
}

// NewRIDEUseCase construye el caso de uso.
func NewRIDEUseCase(
	generator RIDEGenerator,
	billRepo repository.BillRepository,
	orderRepo repository.OrderRepository,
	restaurantRepo repository.RestaurantRepository,
) *RIDEUseCase {
	return &RIDEUseCase{
		generator:      generator,
		billRepo:       billRepo,
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
	}
}

// Generate devuelve el PDF del RIDE. Solo existe para comprobantes
// AUTORIZADOS; el nombre sugerido de descarga es el número del comprobante.
func (uc *RIDEUseCase) Generate(ctx context.Context, restaurantID, billID string) (pdf []byte, filename string, err error) {
	bill, err := uc.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, "", err
	}
	if bill == nil {
		return nil, "", domain.ErrNotFound
	}
	if bill.RestaurantID != restaurantID {
		return nil, "", domain.ErrForbidden
	}
	if bill.SRIStatus != "AUTORIZADO" {
		return nil, "", domain.ErrBillNotAuthorized
	}

	restaurant, err := uc.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, "", err
	}
	if restaurant == nil {
		return nil, "", domain.ErrNotFound
	}
	items, err := uc.orderRepo.GetItemsByOrderID(ctx, bill.OrderID)
	if err != nil {
		return nil, "", err
	}

	pdf, err = uc.generator.GenerateRIDE(ctx, bill, restaurant, items)
	if err != nil {
		return nil, "", err
	}
	return pdf, "RIDE-" + bill.Number + ".pdf", nil
}
