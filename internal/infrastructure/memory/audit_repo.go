package memory

import (
	"context"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

type auditRepo struct {
	s *Store
}

func (r *auditRepo) Create(_ context.Context, e *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.auditLogs = append(r.s.auditLogs, *e)
	return nil
}

func (r *auditRepo) List(_ context.Context, f repository.AuditLogFilter) ([]*entity.AuditLog, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*entity.AuditLog
	for i := len(r.s.auditLogs) - 1; i >= 0; i-- {
		e := r.s.auditLogs[i]
		if f.FranchiseID != "" && e.FranchiseID != f.FranchiseID {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.Entity != "" && e.Entity != f.Entity {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.CreatedAt.After(*f.To) {
			continue
		}
		matched = append(matched, &e)
	}
	total := len(matched)
	if f.Offset >= total {
		return []*entity.AuditLog{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}
