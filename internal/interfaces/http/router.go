package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/franquicias-pos/internal/application/audit"
	"github.com/jhoicas/franquicias-pos/internal/application/inventory"
	"github.com/jhoicas/franquicias-pos/internal/application/sales"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sales      *sales.UseCase
	SalesQuery *sales.QueryUseCase
	Reports    *sales.ReportUseCase
	Stock      *inventory.StockUseCase
	AuditList  *audit.ListUseCase
	JWTSecret  string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	salesHandler := NewSalesHandler(deps.Sales, deps.SalesQuery)
	salesGroup := protected.Group("/sales")
	salesGroup.Post("/", salesHandler.Create)
	salesGroup.Get("/", salesHandler.List)
	// summary antes de :id
	salesGroup.Get("/summary", salesHandler.Summary)
	salesGroup.Get("/:id", salesHandler.GetByID)
	salesGroup.Get("/:id/receipt", salesHandler.Receipt)
	salesGroup.Post("/:id/cancel", salesHandler.Cancel)
	salesGroup.Post("/:id/refund", salesHandler.Refund)

	productHandler := NewProductHandler(deps.Stock)
	products := protected.Group("/products")
	products.Patch("/:id/restock", productHandler.Restock)
	products.Patch("/:id/adjust", productHandler.Adjust)

	reportHandler := NewReportHandler(deps.SalesQuery, deps.Reports)
	reports := protected.Group("/reports")
	reports.Get("/daily-close", reportHandler.DailyClose)
	reports.Post("/daily-close/close", reportHandler.CloseDay)
	reports.Get("/global/summary",
		RequireRole(string(entity.RoleOwner), string(entity.RolePartner)),
		reportHandler.GlobalSummary,
	)

	auditHandler := NewAuditHandler(deps.AuditList)
	protected.Get("/audit",
		RequireRole(string(entity.RoleOwner), string(entity.RolePartner)),
		auditHandler.List,
	)
}
