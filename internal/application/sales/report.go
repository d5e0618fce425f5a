package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/franquicias-pos/internal/application/audit"
	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/access"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
	"github.com/jhoicas/franquicias-pos/pkg/logger"
)

const globalTopProducts = 10

// ReportUseCase cierre de día y reporte global de la organización.
type ReportUseCase struct {
	sales    repository.SaleRepository
	closes   repository.DailyCloseRepository
	recorder *audit.Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(
	sales repository.SaleRepository,
	closes repository.DailyCloseRepository,
	recorder *audit.Recorder,
	log *logger.Logger,
) *ReportUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportUseCase{
		sales:    sales,
		closes:   closes,
		recorder: recorder,
		log:      log.Named("reports"),
		now:      time.Now,
	}
}

// CloseDay registra (o vuelve a registrar) el cierre del día para la franquicia.
func (uc *ReportUseCase) CloseDay(ctx context.Context, actor entity.Actor, req dto.CloseDayRequest) (*dto.DailyCloseRecordResponse, error) {
	fid, err := access.ResolveFranchise(actor, req.FranchiseID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionDayClose, fid); err != nil {
		return nil, err
	}
	now := uc.now()
	start, err := dayStart(req.Day, now)
	if err != nil {
		return nil, err
	}
	closed, err := uc.closes.Upsert(ctx, &entity.DailyClose{
		ID:          uuid.NewString(),
		FranchiseID: fid,
		Day:         start.Format("2006-01-02"),
		ClosedBy:    actor.UserID,
		ClosedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("close day: %w", err)
	}
	uc.recorder.Record(ctx, actor, audit.Entry{
		Action:      entity.AuditDayClose,
		Entity:      entity.AuditEntityDay,
		EntityID:    closed.ID,
		FranchiseID: fid,
		Payload:     map[string]any{"day": closed.Day},
	})
	uc.log.Info().Str("franchise_id", fid).Str("day", closed.Day).Str("user_id", actor.UserID).Msg("día cerrado")
	out := dto.NewDailyCloseRecordResponse(closed)
	return &out, nil
}

// GlobalSummary ventas completadas de todas las franquicias. Solo OWNER/PARTNER.
func (uc *ReportUseCase) GlobalSummary(ctx context.Context, actor entity.Actor, q dto.GlobalSummaryQuery) (*dto.GlobalSummaryResponse, error) {
	if err := access.Authorize(actor, access.ActionGlobalRead, ""); err != nil {
		return nil, err
	}
	from, err := dto.ParseTimeParam("from", q.From, false)
	if err != nil {
		return nil, err
	}
	to, err := dto.ParseTimeParam("to", q.To, true)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, domain.Invalid("to debe ser posterior a from")
	}
	res, err := uc.sales.GlobalSummary(ctx, from, to, globalTopProducts)
	if err != nil {
		return nil, fmt.Errorf("global summary: %w", err)
	}
	out := dto.NewGlobalSummaryResponse(optional(q.From), optional(q.To), res)
	return &out, nil
}
