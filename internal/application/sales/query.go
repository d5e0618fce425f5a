package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/access"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
	"github.com/jhoicas/franquicias-pos/pkg/logger"
)

const dailyCloseTopProducts = 10

// QueryUseCase lecturas de ventas: listado, detalle, resumen, corte diario y comprobante.
type QueryUseCase struct {
	sales    repository.SaleRepository
	products repository.ProductRepository
	cache    SummaryCache
	receipts ReceiptRenderer
	log      *logger.Logger
	now      func() time.Time
}

// NewQueryUseCase construye el caso de uso. cache y receipts pueden ser nil.
func NewQueryUseCase(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	cache SummaryCache,
	receipts ReceiptRenderer,
	log *logger.Logger,
) *QueryUseCase {
	if cache == nil {
		cache = NoopSummaryCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &QueryUseCase{
		sales:    sales,
		products: products,
		cache:    cache,
		receipts: receipts,
		log:      log.Named("sales-query"),
		now:      time.Now,
	}
}

// ListSales ventas de la franquicia resuelta, más recientes primero.
func (uc *QueryUseCase) ListSales(ctx context.Context, actor entity.Actor, q dto.SalesQuery) ([]*entity.Sale, error) {
	filter, err := uc.buildFilter(actor, q)
	if err != nil {
		return nil, err
	}
	list, err := uc.sales.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return list, nil
}

// GetSale detalle de una venta. Una venta de otra franquicia devuelve Forbidden.
func (uc *QueryUseCase) GetSale(ctx context.Context, actor entity.Actor, saleID string) (*entity.Sale, error) {
	if strings.TrimSpace(saleID) == "" {
		return nil, domain.Invalid("saleId requerido")
	}
	s, err := uc.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if err := access.Authorize(actor, access.ActionSaleRead, s.FranchiseID); err != nil {
		return nil, err
	}
	return s, nil
}

// SalesSummary conteo, monto y unidades de la ventana pedida.
// Sin filtro de estado cuenta todas las ventas de la ventana.
func (uc *QueryUseCase) SalesSummary(ctx context.Context, actor entity.Actor, q dto.SalesQuery) (*dto.SalesSummaryResponse, error) {
	filter, err := uc.buildFilter(actor, q)
	if err != nil {
		return nil, err
	}
	key := summaryKey(filter)
	summary, ticket, hit, err := uc.cache.Get(ctx, filter.FranchiseID, key)
	if err != nil {
		uc.log.Warn().Err(err).Str("franchise_id", filter.FranchiseID).Msg("lectura de caché fallida")
	}
	if !hit {
		summary, err = uc.sales.Summary(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("sales summary: %w", err)
		}
		if ticket != "" {
			if err := uc.cache.Set(ctx, ticket, summary); err != nil {
				uc.log.Warn().Err(err).Str("franchise_id", filter.FranchiseID).Msg("escritura de caché fallida")
			}
		}
	}
	return &dto.SalesSummaryResponse{
		FranchiseID: filter.FranchiseID,
		From:        optional(q.From),
		To:          optional(q.To),
		SellerID:    optional(q.SellerID),
		SalesCount:  summary.SalesCount,
		TotalSold:   summary.TotalSold,
		ItemsQty:    summary.ItemsQty,
	}, nil
}

// DailyClose corte de caja de un día (YYYY-MM-DD, hoy si viene vacío) en hora local.
func (uc *QueryUseCase) DailyClose(ctx context.Context, actor entity.Actor, franchiseID, day string) (*dto.DailyCloseResponse, error) {
	fid, err := access.ResolveFranchise(actor, franchiseID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionReportRead, fid); err != nil {
		return nil, err
	}
	start, err := dayStart(day, uc.now())
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, 1)
	res, err := uc.sales.DailyClose(ctx, fid, start, end, dailyCloseTopProducts)
	if err != nil {
		return nil, fmt.Errorf("daily close: %w", err)
	}
	out := dto.NewDailyCloseResponse(fid, start.Format("2006-01-02"), res)
	return &out, nil
}

// Receipt genera el PDF de una venta visible para el actor.
func (uc *QueryUseCase) Receipt(ctx context.Context, actor entity.Actor, saleID string) ([]byte, *entity.Sale, error) {
	if uc.receipts == nil {
		return nil, nil, fmt.Errorf("generador de comprobantes no configurado")
	}
	s, err := uc.GetSale(ctx, actor, saleID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := uc.products.ListByFranchiseAndIDs(ctx, s.FranchiseID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load receipt products: %w", err)
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	pdf, err := uc.receipts.Render(s, byID)
	if err != nil {
		return nil, nil, fmt.Errorf("render receipt: %w", err)
	}
	return pdf, s, nil
}

func (uc *QueryUseCase) buildFilter(actor entity.Actor, q dto.SalesQuery) (repository.SaleFilter, error) {
	fid, err := access.ResolveFranchise(actor, q.FranchiseID)
	if err != nil {
		return repository.SaleFilter{}, err
	}
	if err := access.Authorize(actor, access.ActionSaleRead, fid); err != nil {
		return repository.SaleFilter{}, err
	}
	status := entity.SaleStatus(strings.ToUpper(strings.TrimSpace(q.Status)))
	switch status {
	case "", entity.SaleStatusCompleted, entity.SaleStatusCanceled, entity.SaleStatusRefunded:
	default:
		return repository.SaleFilter{}, domain.Invalid("status inválido: %s", q.Status)
	}
	from, err := dto.ParseTimeParam("from", q.From, false)
	if err != nil {
		return repository.SaleFilter{}, err
	}
	to, err := dto.ParseTimeParam("to", q.To, true)
	if err != nil {
		return repository.SaleFilter{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return repository.SaleFilter{}, domain.Invalid("to debe ser posterior a from")
	}
	return repository.SaleFilter{
		FranchiseID: fid,
		SellerID:    strings.TrimSpace(q.SellerID),
		Status:      status,
		From:        from,
		To:          to,
	}, nil
}

func summaryKey(f repository.SaleFilter) string {
	stamp := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return strings.Join([]string{f.SellerID, string(f.Status), stamp(f.From), stamp(f.To)}, "|")
}

// dayStart medianoche local de day (YYYY-MM-DD); vacío es el día de now.
func dayStart(day string, now time.Time) (time.Time, error) {
	if day == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	start, err := time.ParseInLocation("2006-01-02", day, time.Local)
	if err != nil {
		return time.Time{}, domain.Invalid("day inválido (YYYY-MM-DD)")
	}
	return start, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
