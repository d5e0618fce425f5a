package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// RestockRequest body para PATCH /api/products/:id/restock.
type RestockRequest struct {
	Qty int `json:"qty"`
}

// AdjustStockRequest body para PATCH /api/products/:id/adjust.
type AdjustStockRequest struct {
	StockDelta int    `json:"stock_delta"`
	Reason     string `json:"reason,omitempty"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	FranchiseID string          `json:"franchise_id"`
	SKU         string          `json:"sku,omitempty"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Missing     int             `json:"missing"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewProductResponse convierte la entidad.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		FranchiseID: p.FranchiseID,
		SKU:         p.SKU,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		Missing:     p.Missing,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// StockLevels foto de los contadores de un producto.
type StockLevels struct {
	Stock   int `json:"stock"`
	Missing int `json:"missing"`
}

// StockChangeResponse respuesta de surtido y ajuste: contadores antes y después.
type StockChangeResponse struct {
	Delta   int             `json:"delta"`
	Before  StockLevels     `json:"before"`
	After   StockLevels     `json:"after"`
	Product ProductResponse `json:"product"`
}
