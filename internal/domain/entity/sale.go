package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/domain"
)

// SaleStatus estado del ciclo de vida de una venta.
// Una venta nace COMPLETED; CANCELED y REFUNDED son terminales.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCanceled  SaleStatus = "CANCELED"
	SaleStatusRefunded  SaleStatus = "REFUNDED"
)

// IsTerminal indica si ya no se permiten transiciones.
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusCanceled || s == SaleStatusRefunded
}

// Sale cabecera de una venta. Total es la foto de Σ subtotales al momento de crearla.
// Los campos Reversed* y RefundTotal solo se llenan al salir de COMPLETED.
type Sale struct {
	ID             string
	FranchiseID    string
	SellerID       string
	CardNumber     string // opaco, 12 a 19 dígitos; nunca se registra completo en auditoría
	Total          decimal.Decimal
	Status         SaleStatus
	CreatedAt      time.Time
	ReversedBy     string
	ReversalReason string
	ReversedAt     *time.Time
	RefundTotal    *decimal.Decimal
	Items          []SaleItem
}

// SaleItem línea de venta con precio congelado al momento de vender. Inmutable.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Qty       int
	Price     decimal.Decimal
	Subtotal  decimal.Decimal
}

// NewSaleItem construye la línea calculando subtotal = qty * price.
func NewSaleItem(id, saleID, productID string, qty int, price decimal.Decimal) SaleItem {
	return SaleItem{
		ID:        id,
		SaleID:    saleID,
		ProductID: productID,
		Qty:       qty,
		Price:     price,
		Subtotal:  price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// ItemsTotal suma los subtotales de las líneas.
func (s *Sale) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// UnitCount total de piezas de la venta.
func (s *Sale) UnitCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Qty
	}
	return n
}

// CardLast4 referencia redactada de la tarjeta.
func (s *Sale) CardLast4() string {
	return CardLast4(s.CardNumber)
}

// CardLast4 devuelve los últimos 4 dígitos de un número de tarjeta.
func CardLast4(card string) string {
	if len(card) <= 4 {
		return card
	}
	return card[len(card)-4:]
}

// Reverse aplica la transición COMPLETED → to (CANCELED o REFUNDED) y sella actor, motivo y fecha.
// Un reembolso fija RefundTotal = Total (no hay reembolsos parciales).
func (s *Sale) Reverse(to SaleStatus, actorID, reason string, at time.Time) error {
	if !to.IsTerminal() {
		return domain.Invalid("estado destino inválido: %s", to)
	}
	if s.Status != SaleStatusCompleted {
		return domain.ErrInvalidSaleState
	}
	s.Status = to
	s.ReversedBy = actorID
	s.ReversalReason = reason
	s.ReversedAt = &at
	if to == SaleStatusRefunded {
		refund := s.Total
		s.RefundTotal = &refund
	}
	return nil
}
