package dto

import (
	"time"

	"github.com/jhoicas/franquicias-pos/internal/domain"
)

// PageRequest paginación para listados.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize aplica los límites: página mínima 1, tamaño entre 1 y 100 (20 por defecto).
func (p *PageRequest) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset desplazamiento en filas de la página actual.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseTimeParam interpreta un filtro de fecha en RFC3339 o YYYY-MM-DD.
// Cadena vacía devuelve nil; formato desconocido devuelve domain.ErrInvalidInput.
// endOfDay lleva una fecha sin hora al último instante de ese día (para filtros "hasta").
func ParseTimeParam(name, value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, domain.Invalid("%s inválido (usa RFC3339 o YYYY-MM-DD)", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
