package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

// CreateSaleRequest body para POST /api/sales.
// FranchiseID solo lo usan OWNER/PARTNER; el resto vende en la franquicia de su token.
type CreateSaleRequest struct {
	FranchiseID string            `json:"franchise_id,omitempty"`
	Items       []SaleItemRequest `json:"items"`
	CardNumber  string            `json:"card_number"`
}

// SaleItemRequest línea solicitada (producto y cantidad; el precio lo pone el servidor).
type SaleItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// ReverseSaleRequest body para POST /api/sales/:id/cancel y /refund.
type ReverseSaleRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SalesQuery filtros de GET /api/sales y GET /api/sales/summary.
// From/To aceptan RFC3339 o YYYY-MM-DD.
type SalesQuery struct {
	FranchiseID string `query:"franchise_id"`
	SellerID    string `query:"seller_id"`
	Status      string `query:"status"`
	From        string `query:"from"`
	To          string `query:"to"`
}

// SaleItemResponse línea de venta en respuestas.
type SaleItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta en respuestas. La tarjeta nunca sale completa.
type SaleResponse struct {
	ID             string             `json:"id"`
	FranchiseID    string             `json:"franchise_id"`
	SellerID       string             `json:"seller_id"`
	CardLast4      string             `json:"card_last4"`
	Total          decimal.Decimal    `json:"total"`
	Status         string             `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	ReversedBy     string             `json:"reversed_by,omitempty"`
	ReversalReason string             `json:"reversal_reason,omitempty"`
	ReversedAt     *time.Time         `json:"reversed_at,omitempty"`
	RefundTotal    *decimal.Decimal   `json:"refund_total,omitempty"`
	Items          []SaleItemResponse `json:"items"`
}

// NewSaleResponse convierte la entidad en la respuesta HTTP.
func NewSaleResponse(s *entity.Sale) SaleResponse {
	resp := SaleResponse{
		ID:             s.ID,
		FranchiseID:    s.FranchiseID,
		SellerID:       s.SellerID,
		CardLast4:      s.CardLast4(),
		Total:          s.Total,
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt,
		ReversedBy:     s.ReversedBy,
		ReversalReason: s.ReversalReason,
		ReversedAt:     s.ReversedAt,
		RefundTotal:    s.RefundTotal,
		Items:          make([]SaleItemResponse, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, SaleItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Price:     it.Price,
			Subtotal:  it.Subtotal,
		})
	}
	return resp
}

// SaleListResponse listado de ventas.
type SaleListResponse struct {
	Total int            `json:"total"`
	Items []SaleResponse `json:"items"`
}

// SalesSummaryResponse resumen de GET /api/sales/summary.
type SalesSummaryResponse struct {
	FranchiseID string          `json:"franchise_id"`
	From        *string         `json:"from"`
	To          *string         `json:"to"`
	SellerID    *string         `json:"seller_id"`
	SalesCount  int             `json:"sales_count"`
	TotalSold   decimal.Decimal `json:"total_sold"`
	ItemsQty    int             `json:"items_qty"`
}

// TopProductDTO producto más vendido del día.
type TopProductDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	Qty       int             `json:"qty"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// DailyCloseResponse corte de caja de GET /api/reports/daily-close.
type DailyCloseResponse struct {
	FranchiseID    string          `json:"franchise_id"`
	Day            string          `json:"day"`
	SalesCompleted int             `json:"sales_completed"`
	TotalSold      decimal.Decimal `json:"total_sold"`
	ItemsQty       int             `json:"items_qty"`
	RefundsCount   int             `json:"refunds_count"`
	RefundsTotal   decimal.Decimal `json:"refunds_total"`
	CancelsCount   int             `json:"cancels_count"`
	TopProducts    []TopProductDTO `json:"top_products"`
}

// NewDailyCloseResponse convierte el resultado del repositorio.
func NewDailyCloseResponse(franchiseID, day string, r *repository.DailyCloseResult) DailyCloseResponse {
	resp := DailyCloseResponse{
		FranchiseID:    franchiseID,
		Day:            day,
		SalesCompleted: r.SalesCompleted,
		TotalSold:      r.TotalSold,
		ItemsQty:       r.ItemsQty,
		RefundsCount:   r.RefundsCount,
		RefundsTotal:   r.RefundsTotal,
		CancelsCount:   r.CancelsCount,
		TopProducts:    make([]TopProductDTO, 0, len(r.TopProducts)),
	}
	for _, t := range r.TopProducts {
		resp.TopProducts = append(resp.TopProducts, TopProductDTO{
			ProductID: t.ProductID,
			Name:      t.Name,
			SKU:       t.SKU,
			Qty:       t.Qty,
			Revenue:   t.Revenue,
		})
	}
	return resp
}
