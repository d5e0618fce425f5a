package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// SaleFilter criterios de listado. FranchiseID es obligatorio (ya resuelto por access).
type SaleFilter struct {
	FranchiseID string
	SellerID    string
	Status      entity.SaleStatus
	From        *time.Time
	To          *time.Time
}

// SalesSummary agregado de ventas de una ventana.
type SalesSummary struct {
	SalesCount int
	TotalSold  decimal.Decimal
	ItemsQty   int
}

// TopProductResult producto más vendido en un período.
type TopProductResult struct {
	ProductID string
	Name      string
	SKU       string
	Qty       int
	Revenue   decimal.Decimal
}

// DailyCloseResult resultado crudo del corte diario; el use case lo convierte en DTO.
type DailyCloseResult struct {
	SalesCompleted int
	TotalSold      decimal.Decimal
	ItemsQty       int
	RefundsCount   int
	RefundsTotal   decimal.Decimal
	CancelsCount   int
	TopProducts    []TopProductResult
}

// FranchiseTotal ventas COMPLETED de una franquicia.
type FranchiseTotal struct {
	FranchiseID string
	SalesCount  int
	TotalSold   decimal.Decimal
}

// GlobalSummaryResult agregado de toda la organización: totales por franquicia (mayor total
// primero) y productos con más ingreso.
type GlobalSummaryResult struct {
	ByFranchise []FranchiseTotal
	TopProducts []TopProductResult
}

// SaleRepository define el puerto de persistencia para Sale y SaleItem.
type SaleRepository interface {
	// Create persiste cabecera y líneas como una sola escritura (dentro de la tx del caller).
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve la venta con sus líneas, o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// MarkReversed persiste la transición de estado solo si la fila sigue en COMPLETED;
	// si otro proceso la reversó antes devuelve domain.ErrInvalidSaleState.
	MarkReversed(ctx context.Context, sale *entity.Sale) error
	List(ctx context.Context, filter SaleFilter) ([]*entity.Sale, error)
	Summary(ctx context.Context, filter SaleFilter) (*SalesSummary, error)
	DailyClose(ctx context.Context, franchiseID string, from, to time.Time, topLimit int) (*DailyCloseResult, error)
	// GlobalSummary agrega ventas COMPLETED de todas las franquicias; from y to son inclusivos y opcionales.
	GlobalSummary(ctx context.Context, from, to *time.Time, topLimit int) (*GlobalSummaryResult, error)
}
