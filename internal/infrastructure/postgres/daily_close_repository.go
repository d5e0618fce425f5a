package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

var _ repository.DailyCloseRepository = (*DailyCloseRepo)(nil)

// DailyCloseRepo cierres de día, uno por franquicia y fecha.
type DailyCloseRepo struct {
	q Querier
}

// NewDailyCloseRepository construye el repositorio.
func NewDailyCloseRepository(q Querier) *DailyCloseRepo {
	return &DailyCloseRepo{q: q}
}

// Upsert inserta o, si ya existe (franchise_id, day), actualiza closed_by y closed_at.
func (r *DailyCloseRepo) Upsert(ctx context.Context, c *entity.DailyClose) (*entity.DailyClose, error) {
	var out entity.DailyClose
	err := r.q.QueryRow(ctx, `
		INSERT INTO daily_closes (id, franchise_id, day, closed_by, closed_at, created_at)
		VALUES ($1, $2, $3::date, $4, $5, $5)
		ON CONFLICT (franchise_id, day)
		DO UPDATE SET closed_by = EXCLUDED.closed_by, closed_at = EXCLUDED.closed_at
		RETURNING id, franchise_id, to_char(day, 'YYYY-MM-DD'), closed_by, closed_at, created_at`,
		c.ID, c.FranchiseID, c.Day, c.ClosedBy, c.ClosedAt,
	).Scan(&out.ID, &out.FranchiseID, &out.Day, &out.ClosedBy, &out.ClosedAt, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert daily close: %w", err)
	}
	return &out, nil
}
