package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutriflow/internal/api"
	"nutriflow/internal/config"
	"nutriflow/internal/meal"
	"nutriflow/internal/platform/database"
	"nutriflow/internal/platform/fridge"
	"nutriflow/internal/platform/gemini"
	"nutriflow/internal/platform/localllm"
	"nutriflow/internal/platform/logger"
	"nutriflow/internal/profile"
)

func main() {
	cfg, err := config.Load("config.json")
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}

	log, err := logger.New("nutriflow", cfg.LogFile, cfg.IsProduction())
	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	mealStore, profileStore, closeStores, err := newStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("meal generator configured", zap.String("generator", cfg.MealGenerator))

	fridgeClient := fridge.NewClient(cfg.FridgeBackendURL)
	handler := api.NewHandler(fridgeClient, generator, mealStore, profileStore, cfg.SnapshotDir, log.Named("api"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	handler.Register(r)
	if cfg.SnapshotDir != "" {
		r.Static("/snapshots", cfg.SnapshotDir)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", srv.Addr), zap.String("fridge_backend", cfg.FridgeBackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("received shutdown signal, gracefully shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newStores opens the SQL stores when DATABASE_URL is set and falls back to
// in-memory stores otherwise.
func newStores(cfg *config.Config) (meal.Store, profile.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return meal.NewMemoryStore(), profile.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	mealStore, err := meal.NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	profileStore, err := profile.NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return mealStore, profileStore, func() { db.Close() }, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (meal.Generator, error) {
	switch cfg.MealGenerator {
	case config.GeneratorGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("error creating gemini client: %w", err)
		}
		return client, nil
	case config.GeneratorLocal:
		return localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMModel), nil
	default:
		return nil, nil
	}
}
