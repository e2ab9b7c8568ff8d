package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dcevallos/restopos-api/internal/application/billing"
	"github.com/dcevallos/restopos-api/internal/application/dto"
	"github.com/dcevallos/restopos-api/internal/domain"
)

// BillHandler maneja la emisión de comprobantes, las notas de crédito y el RIDE.
type BillHandler struct {
	issueUC *billing.IssueBillUseCase
	noteUC  *billing.CreditNoteUseCase
	rideUC  *billing.RIDEUseCase
}

// NewBillHandler construye el handler de facturación.
func NewBillHandler(issueUC *billing.IssueBillUseCase, noteUC *billing.CreditNoteUseCase, rideUC *billing.RIDEUseCase) *BillHandler {
	return &BillHandler{issueUC: issueUC, noteUC: noteUC, rideUC: rideUC}
}

// Issue godoc
// @Summary      Emitir factura electrónica para una orden
// @Description  Si la emisión genera advertencias no reconocidas responde 422
// @Description  con la lista; el cliente reenvía con acknowledge_warnings=true.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueBillRequest  true  "orden, datos del cliente, tarifa IVA"
// @Success      201   {object}  dto.BillResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.WarningsResponse
// @Router       /api/bills [post]
func (h *BillHandler) Issue(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	var in dto.IssueBillRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "order_id es requerido"})
	}
	out, warnings, err := h.issueUC.Issue(c.Context(), restaurantID, in)
	if err != nil {
		return billError(c, err)
	}
	if out == nil {
		// Advertencias sin reconocer: la emisión no empezó.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.WarningsResponse{Code: "WARNINGS", Warnings: warnings})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar comprobantes (filtro por identificación o número)
// @Tags         bills
// @Produce      json
// @Param        identification  query  string  false  "cédula/RUC del adquirente"
// @Param        number          query  string  false  "número de factura"
// @Success      200  {object}  dto.BillListResponse
// @Router       /api/bills [get]
func (h *BillHandler) List(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	var in dto.BillListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de búsqueda inválidos"})
	}
	out, err := h.issueUC.List(c.Context(), restaurantID, in)
	if err != nil {
		return billError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener un comprobante
// @Tags         bills
// @Produce      json
// @Param        id   path   string  true  "ID del comprobante"
// @Success      200  {object}  dto.BillResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{id} [get]
func (h *BillHandler) Get(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	out, err := h.issueUC.GetBill(c.Context(), restaurantID, c.Params("id"))
	if err != nil {
		return billError(c, err)
	}
	return c.JSON(out)
}

// Status godoc
// @Summary      Estado ligero del comprobante (polling del front-end)
// @Tags         bills
// @Produce      json
// @Param        id   path   string  true  "ID del comprobante"
// @Success      200  {object}  dto.BillStatusResponse
// @Router       /api/bills/{id}/status [get]
func (h *BillHandler) Status(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	out, err := h.issueUC.GetStatus(c.Context(), restaurantID, c.Params("id"))
	if err != nil {
		return billError(c, err)
	}
	return c.JSON(out)
}

// Check godoc
// @Summary      Re-consultar al SRI un comprobante RECIBIDA
// @Tags         bills
// @Produce      json
// @Param        id   path   string  true  "ID del comprobante"
// @Success      200  {object}  dto.BillResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/check [post]
func (h *BillHandler) Check(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	out, err := h.issueUC.CheckStatus(c.Context(), restaurantID, c.Params("id"))
	if err != nil {
		return billError(c, err)
	}
	return c.JSON(out)
}

// CreateCreditNote godoc
// @Summary      Anular un comprobante con nota de crédito
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del comprobante"
// @Param        body  body  dto.CreditNoteRequest  true  "motivo 01..07 y descripción"
// @Success      201   {object}  dto.CreditNoteResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/credit-note [post]
func (h *BillHandler) CreateCreditNote(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	var in dto.CreditNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.noteUC.Issue(c.Context(), restaurantID, c.Params("id"), in)
	if err != nil {
		return billError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetCreditNote godoc
// @Summary      Obtener la nota de crédito de un comprobante
// @Tags         bills
// @Produce      json
// @Param        id   path   string  true  "ID del comprobante"
// @Success      200  {object}  dto.CreditNoteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/credit-note [get]
func (h *BillHandler) GetCreditNote(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	out, err := h.noteUC.GetByBillID(c.Context(), restaurantID, c.Params("id"))
	if err != nil {
		return billError(c, err)
	}
	return c.JSON(out)
}

// DownloadRIDE godoc
// @Summary      Descargar el RIDE (PDF) de un comprobante autorizado
// @Tags         bills
// @Produce      application/pdf
// @Param        id   path   string  true  "ID del comprobante"
// @Success      200  {file}  binary
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/ride [get]
func (h *BillHandler) DownloadRIDE(c *fiber.Ctx) error {
	restaurantID := GetRestaurantID(c)
	if restaurantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin restaurant_id"})
	}
	pdf, filename, err := h.rideUC.Generate(c.Context(), restaurantID, c.Params("id"))
	if err != nil {
		return billError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// billError mapea los errores de facturación a respuestas HTTP.
func billError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "el recurso no existe"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el recurso pertenece a otro restaurante"})
	case errors.Is(err, domain.ErrOrderAlreadyBilled):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_BILLED", Message: err.Error()})
	case errors.Is(err, domain.ErrIssuanceInFlight):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ISSUANCE_IN_FLIGHT", Message: err.Error()})
	case errors.Is(err, domain.ErrBillAlreadyCanceled):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_CANCELED", Message: err.Error()})
	case errors.Is(err, domain.ErrBillNotAuthorized):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_AUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrFinalConsumerCancel):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "FINAL_CONSUMER", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
