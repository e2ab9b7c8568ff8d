package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dcevallos/restopos-api/internal/application/billing"
	"github.com/dcevallos/restopos-api/internal/application/dto"
	"github.com/dcevallos/restopos-api/internal/application/settings"
	"github.com/dcevallos/restopos-api/internal/domain"
)

// SettingsHandler maneja la configuración del restaurante y el reset de facturación.
type SettingsHandler struct {
	uc      *settings.UseCase
	resetUC *billing.ResetBillingUseCase
}

// NewSettingsHandler construye el handler de configuración.
func NewSettingsHandler(uc *settings.UseCase, resetUC *billing.ResetBillingUseCase) *SettingsHandler {
	return &SettingsHandler{uc: uc, resetUC: resetUC}
}

// Get godoc
// @Summary      Obtener la configuración del restaurante
// @Description  Si la lectura fresca falla se devuelve el último snapshot bueno
// @Description  conocido con stale=true.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  dto.SettingsResponse
// @Router       /api/settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	out, err := h.uc.Get(c.Context(), restaurantID)
	if err != nil {
		return settingsError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar la configuración (merge parcial campo a campo)
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateSettingsRequest  true  "campos a fusionar"
// @Success      200   {object}  dto.SettingsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/settings [put]
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	var in dto.UpdateSettingsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.Context(), restaurantID, in)
	if err != nil {
		return settingsError(c, err)
	}
	return c.JSON(out)
}

// ResetBilling godoc
// @Summary      Borrar todo el historial de facturación y reiniciar secuenciales
// @Description  Operación irreversible. Requiere la frase exacta "ELIMINAR TODO".
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResetBillingRequest  true  "frase de confirmación"
// @Success      204
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/settings/billing/reset [post]
func (h *SettingsHandler) ResetBilling(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	var in dto.ResetBillingRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.resetUC.Reset(c.Context(), restaurantID, in.Confirmation); err != nil {
		if errors.Is(err, domain.ErrWrongConfirmation) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "WRONG_CONFIRMATION", Message: err.Error()})
		}
		return settingsError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// settingsError mapea errores de configuración a respuestas HTTP.
func settingsError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "el restaurante no existe"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
