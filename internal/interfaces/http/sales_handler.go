package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/application/sales"
)

// SalesHandler maneja las peticiones HTTP de ventas (protegido).
type SalesHandler struct {
	uc    *sales.UseCase
	query *sales.QueryUseCase
}

// NewSalesHandler construye el handler.
func NewSalesHandler(uc *sales.UseCase, query *sales.QueryUseCase) *SalesHandler {
	return &SalesHandler{uc: uc, query: query}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Descuenta inventario, congela precios y crea la venta en una sola transacción.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Líneas y tarjeta"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SalesHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	items := make([]sales.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, sales.ItemInput{ProductID: it.ProductID, Qty: it.Qty})
	}
	sale, err := h.uc.CreateSale(c.UserContext(), ActorFrom(c), sales.CreateSaleInput{
		FranchiseID: in.FranchiseID,
		Items:       items,
		CardNumber:  in.CardNumber,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSaleResponse(sale))
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        franchise_id  query  string  false  "Franquicia (obligatorio para OWNER/PARTNER)"
// @Param        seller_id     query  string  false  "Vendedor"
// @Param        status        query  string  false  "COMPLETED | CANCELED | REFUNDED"
// @Param        from          query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to            query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Success      200  {object}  dto.SaleListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *SalesHandler) List(c *fiber.Ctx) error {
	var q dto.SalesQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	list, err := h.query.ListSales(c.UserContext(), ActorFrom(c), q)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.SaleListResponse{Total: len(list), Items: make([]dto.SaleResponse, 0, len(list))}
	for _, s := range list {
		out.Items = append(out.Items, dto.NewSaleResponse(s))
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        franchise_id  query  string  false  "Franquicia (obligatorio para OWNER/PARTNER)"
// @Param        seller_id     query  string  false  "Vendedor"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Success      200  {object}  dto.SalesSummaryResponse
// @Router       /api/sales/summary [get]
func (h *SalesHandler) Summary(c *fiber.Ctx) error {
	var q dto.SalesQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	out, err := h.query.SalesSummary(c.UserContext(), ActorFrom(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SalesHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.query.GetSale(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSaleResponse(sale))
}

// Receipt godoc
// @Summary      Comprobante PDF de la venta
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SalesHandler) Receipt(c *fiber.Ctx) error {
	pdf, sale, err := h.query.Receipt(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="venta-`+sale.ID+`.pdf"`)
	return c.Send(pdf)
}

// Cancel godoc
// @Summary      Cancelar venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true   "ID de la venta"
// @Param        body  body  dto.ReverseSaleRequest  false  "Motivo"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *SalesHandler) Cancel(c *fiber.Ctx) error {
	reason, ok := reverseReason(c)
	if !ok {
		return badBody(c)
	}
	sale, err := h.uc.CancelSale(c.UserContext(), ActorFrom(c), c.Params("id"), reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSaleResponse(sale))
}

// Refund godoc
// @Summary      Reembolsar venta completa
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true   "ID de la venta"
// @Param        body  body  dto.ReverseSaleRequest  false  "Motivo"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/refund [post]
func (h *SalesHandler) Refund(c *fiber.Ctx) error {
	reason, ok := reverseReason(c)
	if !ok {
		return badBody(c)
	}
	sale, err := h.uc.RefundSale(c.UserContext(), ActorFrom(c), c.Params("id"), reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSaleResponse(sale))
}

// reverseReason el body es opcional; si viene debe ser JSON válido.
func reverseReason(c *fiber.Ctx) (string, bool) {
	if len(c.Body()) == 0 {
		return "", true
	}
	var in dto.ReverseSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return "", false
	}
	return in.Reason, true
}
