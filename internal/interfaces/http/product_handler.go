package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/application/inventory"
)

// ProductHandler mutaciones de stock de productos (protegido).
type ProductHandler struct {
	uc *inventory.StockUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *inventory.StockUseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// Restock godoc
// @Summary      Surtir producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del producto"
// @Param        body  body  dto.RestockRequest  true  "Cantidad"
// @Success      200   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/restock [patch]
func (h *ProductHandler) Restock(c *fiber.Ctx) error {
	var in dto.RestockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	change, err := h.uc.Restock(c.UserContext(), ActorFrom(c), c.Params("id"), in.Qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(change.Response())
}

// Adjust godoc
// @Summary      Ajustar stock
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del producto"
// @Param        body  body  dto.AdjustStockRequest  true  "Delta y motivo"
// @Success      200   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/adjust [patch]
func (h *ProductHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	change, err := h.uc.AdjustStock(c.UserContext(), ActorFrom(c), c.Params("id"), in.StockDelta, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(change.Response())
}
