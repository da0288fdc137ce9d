package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codyseavey/pokemarket/internal/api"
	"github.com/codyseavey/pokemarket/internal/config"
	"github.com/codyseavey/pokemarket/internal/database"
	"github.com/codyseavey/pokemarket/internal/events"
	"github.com/codyseavey/pokemarket/internal/logging"
	"github.com/codyseavey/pokemarket/internal/metrics"
	"github.com/codyseavey/pokemarket/internal/services"
)

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:           "pokemarket-server",
		Short:         "Run the PokéMarket collection backend",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Log)

	db, err := database.Open(cfg.Server.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	metrics.UpdateCollectionMetrics(db)

	publisher, err := events.New(cfg.Events, logger)
	if err != nil {
		// Events are optional; the API keeps working without them
		logger.Warn("events disabled", "error", err)
		publisher = events.Nop{}
	}
	defer publisher.Close()

	prices := services.NewPokemonTCGService(cfg.Prices.PokemonTCGAPIKey, cfg.Prices.RequestsPerSecond, logger)
	images := services.NewImageStorageService(cfg.Server.ScannedImagesDir, logger)
	snapshots := services.NewSnapshotService(db, prices, publisher, cfg.Prices.SnapshotHour, logger)

	var tracker services.HistoryFetcher
	if ppt := services.NewPokemonPriceTrackerService(cfg.Prices.PriceTrackerAPIKey); ppt.Enabled() {
		tracker = ppt
	} else {
		logger.Info("remote price history disabled (no POKEMON_PRICE_TRACKER_API_KEY)")
	}
	insights := services.NewAIInsightsService(cfg.Vision, logger)
	market := services.NewMarketService(snapshots, tracker, insights, cfg.Prices.HistoryDays, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Restart the snapshot worker after a panic
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("panic in snapshot worker, restarting in 30 seconds", "panic", r)
					}
				}()
				snapshots.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
			}
		}
	}()

	router := api.SetupRouter(api.Deps{
		DB:             db,
		Prices:         prices,
		Images:         images,
		Snapshots:      snapshots,
		Market:         market,
		Publisher:      publisher,
		AllowedOrigins: cfg.Server.AllowedOrigins(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "postgres", cfg.Server.IsPostgres())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server exited")
	return nil
}
