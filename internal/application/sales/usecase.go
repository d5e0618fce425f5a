// Package sales coordina la creación y reversa de ventas contra el inventario vivo.
package sales

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/franquicias-pos/internal/application/audit"
	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/access"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
	"github.com/jhoicas/franquicias-pos/pkg/logger"
)

const tracerName = "github.com/jhoicas/franquicias-pos/sales"

var cardPattern = regexp.MustCompile(`^\d{12,19}$`)

// maxQty tope por línea: las columnas de cantidad son INTEGER.
const maxQty = math.MaxInt32

// ItemInput línea pedida por el vendedor.
type ItemInput struct {
	ProductID string
	Qty       int
}

// CreateSaleInput datos de una venta nueva. FranchiseID solo aplica a roles con alcance global.
type CreateSaleInput struct {
	FranchiseID string
	Items       []ItemInput
	CardNumber  string
}

// UseCase coordinador transaccional de ventas.
type UseCase struct {
	tx        TxRunner
	recorder  *audit.Recorder
	publisher EventPublisher
	cache     SummaryCache
	log       *logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configura dependencias opcionales del coordinador.
type Option func(*UseCase)

// WithPublisher publica eventos tras cada commit.
func WithPublisher(p EventPublisher) Option { return func(uc *UseCase) { uc.publisher = p } }

// WithSummaryCache invalida la caché de resúmenes tras cada commit.
func WithSummaryCache(c SummaryCache) Option { return func(uc *UseCase) { uc.cache = c } }

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option { return func(uc *UseCase) { uc.now = now } }

// NewUseCase construye el coordinador.
func NewUseCase(tx TxRunner, recorder *audit.Recorder, log *logger.Logger, opts ...Option) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &UseCase{
		tx:        tx,
		recorder:  recorder,
		publisher: NoopPublisher{},
		cache:     NoopSummaryCache{},
		log:       log.Named("sales"),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// CreateSale valida, descuenta inventario, congela precios y persiste la venta en una sola transacción.
// Si cualquier línea no tiene stock suficiente no se aplica nada y se devuelve domain.ErrInsufficientStock.
func (uc *UseCase) CreateSale(ctx context.Context, actor entity.Actor, in CreateSaleInput) (sale *entity.Sale, err error) {
	ctx, span := uc.tracer.Start(ctx, "sales.CreateSale")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(actor.UserID) == "" {
		return nil, domain.Invalid("sellerId requerido")
	}
	lines, err := validateLines(in.Items)
	if err != nil {
		return nil, err
	}
	card := strings.TrimSpace(in.CardNumber)
	if !cardPattern.MatchString(card) {
		return nil, domain.Invalid("cardNumber inválido (12 a 19 dígitos)")
	}
	franchiseID, err := access.ResolveFranchise(actor, in.FranchiseID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionSaleCreate, franchiseID); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("franchise.id", franchiseID),
		attribute.Int("sale.lines", len(lines)),
	)

	now := uc.now()
	err = uc.tx.RunSales(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		products, err := productRepo.ListByFranchiseAndIDs(ctx, franchiseID, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]*entity.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		for _, l := range lines {
			p, ok := byID[l.ProductID]
			if !ok {
				return domain.Invalid("producto %s no existe en la franquicia", l.ProductID)
			}
			if !p.IsActive {
				return domain.Invalid("producto %s inactivo", l.ProductID)
			}
		}

		// Orden estable por id para que dos ventas concurrentes bloqueen filas en el mismo orden.
		ordered := append([]ItemInput(nil), lines...)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })
		for _, l := range ordered {
			updated, err := productRepo.DecrementStock(ctx, l.ProductID, l.Qty)
			if err != nil {
				return err
			}
			byID[l.ProductID] = updated
		}

		s := &entity.Sale{
			ID:          uuid.New().String(),
			FranchiseID: franchiseID,
			SellerID:    actor.UserID,
			CardNumber:  card,
			Status:      entity.SaleStatusCompleted,
			CreatedAt:   now,
		}
		for _, l := range lines {
			s.Items = append(s.Items, entity.NewSaleItem(uuid.New().String(), s.ID, l.ProductID, l.Qty, byID[l.ProductID].Price))
		}
		s.Total = s.ItemsTotal()
		if err := saleRepo.Create(ctx, s); err != nil {
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug().
		Str("sale_id", sale.ID).
		Str("franchise_id", franchiseID).
		Str("total", sale.Total.StringFixed(2)).
		Msg("venta confirmada")

	items := make([]map[string]any, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, map[string]any{"productId": it.ProductID, "qty": it.Qty})
	}
	uc.recorder.Record(ctx, actor, audit.Entry{
		Action:      entity.AuditSaleCreate,
		Entity:      entity.AuditEntitySale,
		EntityID:    sale.ID,
		FranchiseID: franchiseID,
		Payload: map[string]any{
			"total":     sale.Total.StringFixed(2),
			"items":     items,
			"cardLast4": sale.CardLast4(),
		},
	})
	uc.afterCommit(ctx, EventSaleCreated, sale, actor)
	return sale, nil
}

// CancelSale anula una venta COMPLETED y devuelve sus unidades al inventario.
func (uc *UseCase) CancelSale(ctx context.Context, actor entity.Actor, saleID, reason string) (*entity.Sale, error) {
	return uc.reverse(ctx, actor, saleID, entity.SaleStatusCanceled, reason)
}

// RefundSale reembolsa por completo una venta COMPLETED y devuelve sus unidades al inventario.
func (uc *UseCase) RefundSale(ctx context.Context, actor entity.Actor, saleID, reason string) (*entity.Sale, error) {
	return uc.reverse(ctx, actor, saleID, entity.SaleStatusRefunded, reason)
}

func (uc *UseCase) reverse(ctx context.Context, actor entity.Actor, saleID string, to entity.SaleStatus, reason string) (sale *entity.Sale, err error) {
	ctx, span := uc.tracer.Start(ctx, "sales.Reverse", trace.WithAttributes(
		attribute.String("sale.id", saleID),
		attribute.String("sale.target_status", string(to)),
	))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(saleID) == "" {
		return nil, domain.Invalid("saleId requerido")
	}
	reason = strings.TrimSpace(reason)

	err = uc.tx.RunSales(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
		s, err := saleRepo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		if err := access.Authorize(actor, access.ActionSaleReverse, s.FranchiseID); err != nil {
			return err
		}
		if err := s.Reverse(to, actor.UserID, reason, uc.now()); err != nil {
			return err
		}
		// La transición va primero: si otra reversa ganó, falla aquí sin haber acreditado stock.
		if err := saleRepo.MarkReversed(ctx, s); err != nil {
			return err
		}
		// Mismo orden de bloqueo que CreateSale.
		items := append([]entity.SaleItem(nil), s.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		for _, it := range items {
			if _, err := productRepo.CreditStock(ctx, it.ProductID, it.Qty); err != nil {
				return fmt.Errorf("acreditar producto %s: %w", it.ProductID, err)
			}
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	action, eventType := entity.AuditSaleCancel, EventSaleCanceled
	payload := map[string]any{"reason": reason}
	if to == entity.SaleStatusRefunded {
		action, eventType = entity.AuditSaleRefund, EventSaleRefunded
		payload["refundTotal"] = sale.RefundTotal.StringFixed(2)
	}
	uc.recorder.Record(ctx, actor, audit.Entry{
		Action:      action,
		Entity:      entity.AuditEntitySale,
		EntityID:    sale.ID,
		FranchiseID: sale.FranchiseID,
		Payload:     payload,
	})
	uc.afterCommit(ctx, eventType, sale, actor)
	return sale, nil
}

// afterCommit invalida la caché y publica el evento. Los fallos solo se registran.
func (uc *UseCase) afterCommit(ctx context.Context, eventType string, sale *entity.Sale, actor entity.Actor) {
	if err := uc.cache.Invalidate(ctx, sale.FranchiseID); err != nil {
		uc.log.Warn().Err(err).Str("franchise_id", sale.FranchiseID).Msg("no se pudo invalidar caché de resumen")
	}
	if err := uc.publisher.Publish(ctx, newSaleEvent(eventType, sale, actor.UserID, uc.now())); err != nil {
		uc.log.Warn().Err(err).Str("sale_id", sale.ID).Str("event", eventType).Msg("no se pudo publicar evento")
	}
}

// validateLines exige productId, qty en (0, MaxInt32] y un solo renglón por producto.
func validateLines(items []ItemInput) ([]ItemInput, error) {
	if len(items) == 0 {
		return nil, domain.Invalid("items no puede estar vacío")
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]ItemInput, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, domain.Invalid("productId requerido en cada item")
		}
		if it.Qty <= 0 || it.Qty > maxQty {
			return nil, domain.Invalid("qty inválido para %s (entero entre 1 y %d)", id, maxQty)
		}
		if _, dup := seen[id]; dup {
			return nil, domain.Invalid("producto %s repetido en items", id)
		}
		seen[id] = struct{}{}
		out = append(out, ItemInput{ProductID: id, Qty: it.Qty})
	}
	return out, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
