package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

// CloseDayRequest body de POST /api/reports/daily-close/close.
// FranchiseID solo lo usan OWNER/PARTNER. Day vacío es hoy.
type CloseDayRequest struct {
	FranchiseID string `json:"franchise_id,omitempty"`
	Day         string `json:"day,omitempty"`
}

// DailyCloseRecordResponse cierre de día registrado.
type DailyCloseRecordResponse struct {
	ID          string    `json:"id"`
	FranchiseID string    `json:"franchise_id"`
	Day         string    `json:"day"`
	ClosedBy    string    `json:"closed_by"`
	ClosedAt    time.Time `json:"closed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDailyCloseRecordResponse convierte la entidad.
func NewDailyCloseRecordResponse(c *entity.DailyClose) DailyCloseRecordResponse {
	return DailyCloseRecordResponse{
		ID:          c.ID,
		FranchiseID: c.FranchiseID,
		Day:         c.Day,
		ClosedBy:    c.ClosedBy,
		ClosedAt:    c.ClosedAt,
		CreatedAt:   c.CreatedAt,
	}
}

// GlobalSummaryQuery filtros de GET /api/reports/global/summary (RFC3339 o YYYY-MM-DD).
type GlobalSummaryQuery struct {
	From string `query:"from"`
	To   string `query:"to"`
}

// FranchiseTotalDTO ventas completadas de una franquicia.
type FranchiseTotalDTO struct {
	FranchiseID string          `json:"franchise_id"`
	SalesCount  int             `json:"sales_count"`
	TotalSold   decimal.Decimal `json:"total_sold"`
}

// GlobalSummaryResponse reporte de toda la organización.
type GlobalSummaryResponse struct {
	From        *string             `json:"from"`
	To          *string             `json:"to"`
	ByFranchise []FranchiseTotalDTO `json:"by_franchise"`
	TopProducts []TopProductDTO     `json:"top_products"`
}

// NewGlobalSummaryResponse convierte el resultado del repositorio.
func NewGlobalSummaryResponse(from, to *string, r *repository.GlobalSummaryResult) GlobalSummaryResponse {
	resp := GlobalSummaryResponse{
		From:        from,
		To:          to,
		ByFranchise: make([]FranchiseTotalDTO, 0, len(r.ByFranchise)),
		TopProducts: make([]TopProductDTO, 0, len(r.TopProducts)),
	}
	for _, f := range r.ByFranchise {
		resp.ByFranchise = append(resp.ByFranchise, FranchiseTotalDTO{
			FranchiseID: f.FranchiseID,
			SalesCount:  f.SalesCount,
			TotalSold:   f.TotalSold,
		})
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
