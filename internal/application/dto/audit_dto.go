package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// AuditQuery filtros de GET /api/audit.
type AuditQuery struct {
	Page        int    `query:"page"`
	PageSize    int    `query:"page_size"`
	FranchiseID string `query:"franchise_id"`
	UserID      string `query:"user_id"`
	Action      string `query:"action"`
	Entity      string `query:"entity"`
	From        string `query:"from"`
	To          string `query:"to"`
}

// AuditLogResponse registro de bitácora.
type AuditLogResponse struct {
	ID          string          `json:"id"`
	Action      string          `json:"action"`
	Entity      string          `json:"entity"`
	EntityID    string          `json:"entity_id,omitempty"`
	FranchiseID string          `json:"franchise_id,omitempty"`
	UserID      string          `json:"user_id"`
	Role        string          `json:"role"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AuditLogListResponse página de bitácora.
type AuditLogListResponse struct {
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Total    int                `json:"total"`
	Items    []AuditLogResponse `json:"items"`
}

// NewAuditLogResponse convierte la entidad.
func NewAuditLogResponse(e *entity.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:          e.ID,
		Action:      e.Action,
		Entity:      e.Entity,
		EntityID:    e.EntityID,
		FranchiseID: e.FranchiseID,
		UserID:      e.UserID,
		Role:        string(e.Role),
		Payload:     e.Payload,
		CreatedAt:   e.CreatedAt,
	}
}
