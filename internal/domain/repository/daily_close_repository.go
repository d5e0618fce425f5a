package repository

import (
	"context"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// DailyCloseRepository persiste los cierres de día.
type DailyCloseRepository interface {
	// Upsert crea el cierre de (FranchiseID, Day) o actualiza ClosedBy y ClosedAt si ya existe.
	// Devuelve la fila resultante; en una actualización ID y CreatedAt son los originales.
	Upsert(ctx context.Context, close *entity.DailyClose) (*entity.DailyClose, error)
}
