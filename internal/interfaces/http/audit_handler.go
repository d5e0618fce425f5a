package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/franquicias-pos/internal/application/audit"
	"github.com/jhoicas/franquicias-pos/internal/application/dto"
)

// AuditHandler consulta de la bitácora.
type AuditHandler struct {
	uc *audit.ListUseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(uc *audit.ListUseCase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

// List godoc
// @Summary      Bitácora de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        page          query  int     false  "Página (1..)"
// @Param        page_size     query  int     false  "Tamaño (máx 100)"
// @Param        franchise_id  query  string  false  "Franquicia"
// @Param        user_id       query  string  false  "Usuario"
// @Param        action        query  string  false  "Acción (SALE_CREATE, ...)"
// @Param        entity        query  string  false  "Entidad (Sale, Product)"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Success      200  {object}  dto.AuditLogListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var q dto.AuditQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.uc.List(c.UserContext(), ActorFrom(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
