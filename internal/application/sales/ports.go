package sales

import (
	"context"
	"time"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con los repositorios de productos y ventas atados a ella.
// Cualquier error devuelto por fn descarta todas las escrituras.
type TxRunner interface {
	RunSales(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// Tipos de evento de venta.
const (
	EventSaleCreated  = "sale.created"
	EventSaleCanceled = "sale.canceled"
	EventSaleRefunded = "sale.refunded"
)

// SaleEvent notificación publicada después de confirmar una mutación de venta.
// Nunca lleva el número de tarjeta completo.
type SaleEvent struct {
	Type        string          `json:"type"`
	SaleID      string          `json:"sale_id"`
	FranchiseID string          `json:"franchise_id"`
	ActorID     string          `json:"actor_id"`
	Status      string          `json:"status"`
	Total       string          `json:"total"`
	Items       []SaleEventItem `json:"items"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// SaleEventItem cantidad por producto dentro del evento.
type SaleEventItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// EventPublisher publica eventos de venta (Kafka en producción).
type EventPublisher interface {
	Publish(ctx context.Context, event SaleEvent) error
}

// SummaryCache caché del resumen de ventas por franquicia.
// Get devuelve un ticket que fija la versión leída; Set escribe bajo ese ticket, así un
// resumen calculado antes de un Invalidate nunca queda visible en la versión nueva.
// Ticket vacío: no escribir. Invalidate descarta todas las entradas de la franquicia.
type SummaryCache interface {
	Get(ctx context.Context, franchiseID, key string) (summary *repository.SalesSummary, ticket string, hit bool, err error)
	Set(ctx context.Context, ticket string, summary *repository.SalesSummary) error
	Invalidate(ctx context.Context, franchiseID string) error
}

// ReceiptRenderer genera el comprobante imprimible de una venta.
// products trae nombre y SKU de cada producto de las líneas (puede faltar alguno).
type ReceiptRenderer interface {
	Render(sale *entity.Sale, products map[string]*entity.Product) ([]byte, error)
}

// NoopPublisher descarta los eventos.
type NoopPublisher struct{}

// Publish no hace nada.
func (NoopPublisher) Publish(context.Context, SaleEvent) error { return nil }

// NoopSummaryCache nunca encuentra nada.
type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(context.Context, string, string) (*repository.SalesSummary, string, bool, error) {
	return nil, "", false, nil
}
func (NoopSummaryCache) Set(context.Context, string, *repository.SalesSummary) error {
	return nil
}
func (NoopSummaryCache) Invalidate(context.Context, string) error { return nil }

func newSaleEvent(eventType string, sale *entity.Sale, actorID string, at time.Time) SaleEvent {
	ev := SaleEvent{
		Type:        eventType,
		SaleID:      sale.ID,
		FranchiseID: sale.FranchiseID,
		ActorID:     actorID,
		Status:      string(sale.Status),
		Total:       sale.Total.StringFixed(2),
		Items:       make([]SaleEventItem, 0, len(sale.Items)),
		OccurredAt:  at,
	}
	for _, it := range sale.Items {
		ev.Items = append(ev.Items, SaleEventItem{ProductID: it.ProductID, Qty: it.Qty})
	}
	return ev
}
