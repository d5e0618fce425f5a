package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/franquicias-pos/internal/application/audit"
	"github.com/jhoicas/franquicias-pos/internal/application/inventory"
	"github.com/jhoicas/franquicias-pos/internal/application/sales"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
	infracache "github.com/jhoicas/franquicias-pos/internal/infrastructure/cache"
	infraevents "github.com/jhoicas/franquicias-pos/internal/infrastructure/events"
	"github.com/jhoicas/franquicias-pos/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/franquicias-pos/internal/infrastructure/pdf"
	"github.com/jhoicas/franquicias-pos/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/franquicias-pos/internal/interfaces/http"
	"github.com/jhoicas/franquicias-pos/pkg/config"
	"github.com/jhoicas/franquicias-pos/pkg/logger"
	"github.com/jhoicas/franquicias-pos/pkg/telemetry"
)

const version = "1.0.0"

// storage repositorios y runner de transacciones del driver elegido.
type storage struct {
	products repository.ProductRepository
	sales    repository.SaleRepository
	audit    repository.AuditLogRepository
	closes   repository.DailyCloseRepository
	stockTx  inventory.TxRunner
	salesTx  sales.TxRunner
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		log.Warn().Err(err).Msg("tracing deshabilitado")
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	var summaryCache sales.SummaryCache = sales.NoopSummaryCache{}
	if cfg.Redis.Addr != "" {
		rc := infracache.NewRedisSummaryCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SummaryTTL)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible; resumen sin caché")
			_ = rc.Close()
		} else {
			defer rc.Close()
			summaryCache = rc
		}
	}

	var publisher sales.EventPublisher = sales.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := infraevents.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.SalesTopic)
		defer kp.Close()
		publisher = kp
	}

	recorder := audit.NewRecorder(store.audit, log)
	salesUC := sales.NewUseCase(store.salesTx, recorder, log,
		sales.WithPublisher(publisher),
		sales.WithSummaryCache(summaryCache),
	)
	queryUC := sales.NewQueryUseCase(store.sales, store.products, summaryCache,
		infrapdf.NewMarotoReceiptGenerator(""), log)
	reportUC := sales.NewReportUseCase(store.sales, store.closes, recorder, log)
	stockUC := inventory.NewStockUseCase(store.stockTx, recorder, log)
	auditUC := audit.NewListUseCase(store.audit)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Franquicias POS API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.App.StoreDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sales:      salesUC,
		SalesQuery: queryUC,
		Reports:    reportUC,
		Stock:      stockUC,
		AuditList:  auditUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cerrar tracing")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.StoreDriver == "memory" {
		st := memory.NewStore()
		if err := memory.SeedDemo(ctx, st); err != nil {
			return nil, err
		}
		log.Warn().Str("franchise_id", memory.DemoFranchiseID).Msg("almacenamiento en memoria con franquicia demo; los datos no persisten")
		return &storage{
			products: st.Products(),
			sales:    st.Sales(),
			audit:    st.AuditLogs(),
			closes:   st.DailyCloses(),
			stockTx:  st,
			salesTx:  st,
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	txRunner := postgres.NewTxRunner(pool)
	return &storage{
		products: postgres.NewProductRepository(pool),
		sales:    postgres.NewSaleRepository(pool),
		audit:    postgres.NewAuditLogRepository(pool),
		closes:   postgres.NewDailyCloseRepository(pool),
		stockTx:  txRunner,
		salesTx:  txRunner,
		close:    pool.Close,
	}, nil
}
