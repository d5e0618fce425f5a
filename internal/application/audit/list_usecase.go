package audit

import (
	"context"
	"fmt"

	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/domain/access"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

// ListUseCase consulta paginada de la bitácora (solo OWNER/PARTNER).
type ListUseCase struct {
	repo repository.AuditLogRepository
}

// NewListUseCase construye el caso de uso.
func NewListUseCase(repo repository.AuditLogRepository) *ListUseCase {
	return &ListUseCase{repo: repo}
}

// List aplica filtros y paginación (page_size máximo 100).
func (uc *ListUseCase) List(ctx context.Context, actor entity.Actor, q dto.AuditQuery) (*dto.AuditLogListResponse, error) {
	if err := access.Authorize(actor, access.ActionAuditRead, ""); err != nil {
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
	page := dto.PageRequest{Page: q.Page, PageSize: q.PageSize}
	page.Normalize()

	items, total, err := uc.repo.List(ctx, repository.AuditLogFilter{
		FranchiseID: q.FranchiseID,
		UserID:      q.UserID,
		Action:      q.Action,
		Entity:      q.Entity,
		From:        from,
		To:          to,
		Limit:       page.PageSize,
		Offset:      page.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	out := &dto.AuditLogListResponse{
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    total,
		Items:    make([]dto.AuditLogResponse, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.NewAuditLogResponse(it))
	}
	return out, nil
}
