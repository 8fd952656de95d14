package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	orgshandler "github.com/northbeam-labs/harbor-saas/domains/organizations/be/handler"
	orgsrepo "github.com/northbeam-labs/harbor-saas/domains/organizations/be/repo"
	orgsservice "github.com/northbeam-labs/harbor-saas/domains/organizations/be/service"
	platformlogging "github.com/northbeam-labs/harbor-saas/platform/go/logging"
	platformmiddleware "github.com/northbeam-labs/harbor-saas/platform/go/middleware"
	"github.com/northbeam-labs/harbor-saas/platform/go/persistence"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	ReservedSlugs   []string      `env:"RESERVED_SLUGS" envSeparator:","`
	AllowedOrigin   string        `env:"ALLOWED_ORIGIN"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	orgStore, err := persistence.NewOrganizationStore(ctx, pool)
	if err != nil {
		logger.Fatal("init organization store", zap.Error(err))
	}

	orgRepo := orgsrepo.NewPostgresRepository(orgStore)
	orgService := orgsservice.New(orgRepo, orgsservice.WithReservedSlugs(cfg.ReservedSlugs...))
	orgHandler := orgshandler.New(orgService, logger)

	rootRouter := chi.NewRouter()
	rootRouter.Use(chimw.RequestID)
	rootRouter.Use(chimw.RealIP)
	rootRouter.Use(platformlogging.RequestLogger(logger))
	rootRouter.Use(chimw.Recoverer)
	rootRouter.Use(chimw.Timeout(cfg.RequestTimeout))
	rootRouter.Use(platformmiddleware.CORS(platformmiddleware.CORSConfig{AllowedOrigin: cfg.AllowedOrigin}))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()
	apiRouter.Mount("/orgs", orgHandler.Routes())
	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
