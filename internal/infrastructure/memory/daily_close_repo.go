package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

type dailyCloseRepo struct {
	s *Store
}

func (r *dailyCloseRepo) Upsert(_ context.Context, c *entity.DailyClose) (*entity.DailyClose, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := c.FranchiseID + "|" + c.Day
	row, ok := r.s.closes[key]
	if ok {
		row.ClosedBy = c.ClosedBy
		row.ClosedAt = c.ClosedAt
	} else {
		row = *c
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = c.ClosedAt
		}
	}
	r.s.closes[key] = row
	out := row
	return &out, nil
}
