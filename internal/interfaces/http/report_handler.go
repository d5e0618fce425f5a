package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/application/sales"
)

// ReportHandler reportes de caja.
type ReportHandler struct {
	query   *sales.QueryUseCase
	reports *sales.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(query *sales.QueryUseCase, reports *sales.ReportUseCase) *ReportHandler {
	return &ReportHandler{query: query, reports: reports}
}

// DailyClose godoc
// @Summary      Corte diario
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        franchise_id  query  string  false  "Franquicia (obligatorio para OWNER/PARTNER)"
// @Param        day           query  string  false  "YYYY-MM-DD (hoy por defecto)"
// @Success      200  {object}  dto.DailyCloseResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/daily-close [get]
func (h *ReportHandler) DailyClose(c *fiber.Ctx) error {
	out, err := h.query.DailyClose(c.UserContext(), ActorFrom(c), c.Query("franchise_id"), c.Query("day"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CloseDay godoc
// @Summary      Cerrar día
// @Tags         reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CloseDayRequest  false  "Franquicia (OWNER/PARTNER) y día YYYY-MM-DD"
// @Success      200  {object}  dto.DailyCloseRecordResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/daily-close/close [post]
func (h *ReportHandler) CloseDay(c *fiber.Ctx) error {
	var in dto.CloseDayRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.reports.CloseDay(c.UserContext(), ActorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GlobalSummary godoc
// @Summary      Resumen global (OWNER/PARTNER)
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "RFC3339 o YYYY-MM-DD"
// @Param        to    query  string  false  "RFC3339 o YYYY-MM-DD"
// @Success      200  {object}  dto.GlobalSummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/global/summary [get]
func (h *ReportHandler) GlobalSummary(c *fiber.Ctx) error {
	var q dto.GlobalSummaryQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.reports.GlobalSummary(c.UserContext(), ActorFrom(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
