// Package audit registra y consulta la bitácora de mutaciones.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
	"github.com/jhoicas/franquicias-pos/pkg/logger"
)

// Recorder escribe entradas de bitácora después de que la mutación ya se confirmó.
// Un fallo se registra en el log y no se propaga: la mutación confirmada no se deshace.
type Recorder struct {
	repo repository.AuditLogRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewRecorder construye el recorder. log nil usa un logger que descarta.
func NewRecorder(repo repository.AuditLogRepository, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{repo: repo, log: log.Named("audit"), now: time.Now}
}

// Entry datos de una entrada; Payload se serializa a JSON.
type Entry struct {
	Action      string
	Entity      string
	EntityID    string
	FranchiseID string
	Payload     any
}

// Record agrega la entrada. Devuelve true si quedó persistida.
func (r *Recorder) Record(ctx context.Context, actor entity.Actor, e Entry) bool {
	var payload json.RawMessage
	if e.Payload != nil {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			r.log.Warn().Err(err).Str("action", e.Action).Msg("payload de auditoría no serializable")
		} else {
			payload = b
		}
	}
	entry := &entity.AuditLog{
		ID:          uuid.New().String(),
		Action:      e.Action,
		Entity:      e.Entity,
		EntityID:    e.EntityID,
		FranchiseID: e.FranchiseID,
		UserID:      actor.UserID,
		Role:        actor.Role,
		Payload:     payload,
		CreatedAt:   r.now(),
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.log.Warn().Err(err).
			Str("action", e.Action).
			Str("entity_id", e.EntityID).
			Str("user_id", actor.UserID).
			Msg("no se pudo registrar auditoría")
		return false
	}
	return true
}
