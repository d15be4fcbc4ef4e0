package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ragsearch/docs"
	"ragsearch/internal/auth"
	"ragsearch/internal/config"
	"ragsearch/internal/database"
	"ragsearch/internal/database/migration"
	handlers "ragsearch/internal/http/handler"
	"ragsearch/internal/http/middleware"
	"ragsearch/internal/logger"
	"ragsearch/internal/metrics"
	appotel "ragsearch/internal/otel"
	"ragsearch/internal/repository"
	"ragsearch/internal/repository/memory"
	"ragsearch/internal/repository/postgres"
	"ragsearch/internal/search/elastic"
	"ragsearch/internal/service"
	"ragsearch/internal/storage"
	"ragsearch/internal/tagging"
)

// stores bundles the repositories chosen by STORE_DRIVER.
type stores struct {
	tx      repository.Transactor
	files   repository.FileRepository
	storage repository.StorageRepository
	db      *sql.DB
}

// @title RAG File Search API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := appotel.Init(ctx, log)
	if err != nil {
		log.Fatal("tracing_init_failed", "error", err.Error())
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("store_init_failed", "driver", cfg.StoreDriver, "error", err.Error())
	}
	if st.db != nil {
		defer st.db.Close()
	}

	archive := storage.Archive(storage.Noop{})
	if cfg.MinIO.Enabled() {
		archive, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatal("archive_init_failed", "error", err.Error())
		}
	}

	searchClient, err := elastic.New(cfg.Search, log)
	if err != nil {
		log.Fatal("search_init_failed", "error", err.Error())
	}
	// An unreachable cluster at startup is not fatal: uploads stay pending until reindexed.
	if err := searchClient.EnsureIndex(ctx); err != nil {
		log.Warn("search_index_not_ready", "index", cfg.Search.Index, "error", err.Error())
	}

	verifier, err := newVerifier(cfg.Auth, log)
	if err != nil {
		log.Fatal("auth_init_failed", "mode", cfg.Auth.Mode, "error", err.Error())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics, err := metrics.New(reg)
	if err != nil {
		log.Fatal("metrics_init_failed", "error", err.Error())
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("metrics_init_failed", "error", err.Error())
	}

	// Initialize services
	ledger := service.NewStorageLedger(st.storage, cfg.Policy.QuotaKB)
	registry := service.NewFileRegistry(st.files)
	fileSvc := service.NewIngestService(service.IngestDeps{
		Tx:              st.tx,
		Ledger:          ledger,
		Registry:        registry,
		Extractor:       tagging.NewFrequencyExtractor(cfg.Policy.MaxTags),
		Remote:          searchClient,
		Archive:         archive,
		Metrics:         appMetrics,
		Log:             log,
		MaxFileSizeKB:   cfg.Policy.MaxFileSizeKB,
		ReindexMaxTries: cfg.Policy.ReindexMaxTries,
	})
	promptSvc := service.NewQueryRouter(registry, searchClient, appMetrics, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
		// Multipart overhead on top of the largest accepted file.
		BodyLimit: int(cfg.Policy.MaxFileSizeKB*1024) + 1<<20,
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(httpMetrics.Handler())
	// Structured request logs; resolves handler errors so the logged status is final
	app.Use(middleware.Logger(log))

	checks := map[string]handlers.Pinger{
		"search": handlers.PingFunc(searchClient.Ping),
	}
	if st.db != nil {
		checks["database"] = st.db
	}
	handlers.RegisterRoutes(app, handlers.Deps{
		Checks:   checks,
		Files:    fileSvc,
		Prompts:  promptSvc,
		Verifier: verifier,
		Gatherer: reg,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info("server_shutdown", "reason", "signal")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server_shutdown_failed", "error", err.Error())
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", "addr", addr, "store_driver", cfg.StoreDriver, "auth_mode", cfg.Auth.Mode, "archive_enabled", cfg.MinIO.Enabled())
	if err := app.Listen(addr); err != nil {
		log.Fatal("server_start_failed", "error", err.Error())
	}
}

func openStores(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("store_in_memory", "msg", "records and storage totals are lost on restart")
		s := memory.NewStore()
		return &stores{tx: s, files: s, storage: s}, nil
	case "postgres":
		db, err := database.NewPostgres(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &stores{
			tx:      database.NewTxManager(db),
			files:   postgres.NewFilePostgres(db),
			storage: postgres.NewStoragePostgres(db),
			db:      db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want postgres or memory)", cfg.StoreDriver)
	}
}

func newVerifier(cfg config.AuthConfig, log *logger.Logger) (auth.Verifier, error) {
	switch cfg.Mode {
	case "remote":
		return auth.NewRemoteVerifier(cfg, log), nil
	case "jwt":
		return auth.NewJWTVerifier(cfg.JWTSecret)
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q (want remote or jwt)", cfg.Mode)
	}
}
