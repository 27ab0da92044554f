package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pnsenthil/smartshop/config"
	httpDelivery "github.com/pnsenthil/smartshop/internal/delivery/http"
	"github.com/pnsenthil/smartshop/internal/infrastructure/catalog"
	"github.com/pnsenthil/smartshop/internal/infrastructure/engine"
	"github.com/pnsenthil/smartshop/internal/infrastructure/profiles"
	"github.com/pnsenthil/smartshop/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting smartshop nudge service",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("engineMode", cfg.Engine.Mode))

	// Data sources: embedded defaults unless overridden by path
	catalogStore, err := loadCatalog(cfg.Data.CatalogPath)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	profileSource, err := loadProfiles(cfg.Data.ProfilesPath)
	if err != nil {
		logger.Fatal("failed to load profiles", zap.Error(err))
	}
	logger.Info("data loaded",
		zap.Int("products", catalogStore.Size()),
		zap.Int("profiles", len(profileSource.AllProfiles())))

	// Generic nudge engine
	nudgeEngine, err := engine.New(catalogStore, engine.Config{RulesPath: cfg.Engine.RulesPath}, logger)
	if err != nil {
		logger.Fatal("failed to build nudge engine", zap.Error(err))
	}
	logger.Info("engine ready", zap.Int("rules", nudgeEngine.RuleCount()))

	// Optional re-ranker liveness probe
	probe := engine.NewRerankProbe(cfg.Engine.RerankURL, cfg.Engine.RerankTimeout, logger)
	if cfg.Engine.RerankURL != "" {
		probeCtx, cancel := context.WithTimeout(context.Background(), cfg.Engine.RerankTimeout)
		online := probe.Check(probeCtx)
		cancel()
		logger.Info("reranker probe", zap.String("url", cfg.Engine.RerankURL), zap.Bool("online", online))
	}

	// Session coordinator
	sessions := usecase.NewSessionService(
		catalogStore,
		profileSource,
		nudgeEngine,
		usecase.SessionServiceConfig{
			EngineMode:     usecase.EngineMode(cfg.Engine.Mode),
			EngineThrottle: cfg.Engine.ThrottleEvery,
		},
		logger,
	)

	engineStatus := func() httpDelivery.EngineStatus {
		status := probe.Status()
		return httpDelivery.EngineStatus{
			Mode:             cfg.Engine.Mode,
			RuleCount:        nudgeEngine.RuleCount(),
			RerankConfigured: status.Configured,
			RerankOnline:     status.Online,
		}
	}

	// HTTP delivery
	handler := httpDelivery.NewHandler(
		sessions,
		profileSource,
		usecase.NewScenarioRegistry(profileSource),
		engineStatus,
		logger,
	)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func loadCatalog(path string) (*catalog.Store, error) {
	if path != "" {
		return catalog.NewFromFile(path)
	}
	return catalog.NewDefault()
}

func loadProfiles(path string) (*profiles.Source, error) {
	if path != "" {
		return profiles.NewFromFile(path)
	}
	return profiles.NewDefault()
}
