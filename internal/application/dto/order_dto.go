package dto

import "github.com/shopspring/decimal"

// OrderItemRequest línea de orden (nombre, cantidad, precio unitario).
type OrderItemRequest struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Prepared bool            `json:"prepared,omitempty"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	Type         string             `json:"type"` // dine_in | delivery | takeout
	Items        []OrderItemRequest `json:"items"`
}

// UpdateOrderRequest body para PUT /api/orders/:id. Reemplaza las líneas completas.
type UpdateOrderRequest struct {
	CustomerName string             `json:"customer_name,omitempty"`
	Type         string             `json:"type,omitempty"`
	Items        []OrderItemRequest `json:"items,omitempty"`
}

// OrderItemResponse línea de orden en respuestas.
type OrderItemResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Prepared bool            `json:"prepared"`
}

// OrderResponse orden con líneas y total calculado.
type OrderResponse struct {
	ID           string              `json:"id"`
	RestaurantID string              `json:"restaurant_id"`
	CustomerName string              `json:"customer_name"`
	Type         string              `json:"type"`
	Status       string              `json:"status"`
	Number       int                 `json:"number,omitempty"`
	Billed       bool                `json:"billed"`
	Total        decimal.Decimal     `json:"total"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    string              `json:"created_at"`
}

// OrderListResponse listado paginado de órdenes.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
