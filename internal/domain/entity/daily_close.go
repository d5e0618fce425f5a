package entity

import "time"

// DailyClose marca de cierre de caja de una franquicia para un día (YYYY-MM-DD, hora local).
// Hay a lo más una por franquicia y día; volver a cerrar actualiza quién y cuándo.
type DailyClose struct {
	ID          string
	FranchiseID string
	Day         string
	ClosedBy    string
	ClosedAt    time.Time
	CreatedAt   time.Time
}
