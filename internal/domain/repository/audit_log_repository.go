package repository

import (
	"context"
	"time"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// AuditLogFilter criterios de consulta de la bitácora.
type AuditLogFilter struct {
	FranchiseID string
	UserID      string
	Action      string
	Entity      string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// AuditLogRepository puerto append-only de la bitácora.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *entity.AuditLog) error
	// List devuelve la página pedida (más reciente primero) y el total sin paginar.
	List(ctx context.Context, filter AuditLogFilter) ([]*entity.AuditLog, int, error)
}
