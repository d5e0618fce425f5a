package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo bitácora append-only.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el repositorio.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Create inserta una entrada.
func (r *AuditLogRepo) Create(ctx context.Context, e *entity.AuditLog) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_logs (id, action, entity, entity_id, franchise_id, user_id, role, payload, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9)`,
		e.ID, e.Action, e.Entity, e.EntityID, e.FranchiseID, e.UserID, string(e.Role), []byte(e.Payload), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List página de la bitácora, más reciente primero, y el total sin paginar.
func (r *AuditLogRepo) List(ctx context.Context, f repository.AuditLogFilter) ([]*entity.AuditLog, int, error) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.FranchiseID != "" {
		add("franchise_id = $%d", f.FranchiseID)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.Entity != "" {
		add("entity = $%d", f.Entity)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT id, action, entity, COALESCE(entity_id, ''), COALESCE(franchise_id, ''), user_id, role, payload, created_at
		FROM audit_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	list := []*entity.AuditLog{}
	for rows.Next() {
		var e entity.AuditLog
		var role string
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.Entity, &e.EntityID, &e.FranchiseID, &e.UserID, &role, &payload, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		e.Role = entity.Role(role)
		e.Payload = payload
		list = append(list, &e)
	}
	return list, total, rows.Err()
}
