package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/compevent/compete-system/config"
	"github.com/compevent/compete-system/db"
	"github.com/compevent/compete-system/handlers"
	appmiddleware "github.com/compevent/compete-system/middleware"
	"github.com/compevent/compete-system/realtime"
	"github.com/compevent/compete-system/repositories"
	"github.com/compevent/compete-system/routes"
	"github.com/compevent/compete-system/services"
	"github.com/compevent/compete-system/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pool, err := db.Connect(cfg.DatabaseURL, 10*time.Second)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(pool, cfg.MigrationsDir); err != nil {
		return err
	}
	logger.Info("database ready")

	var uploader storage.FileUploader
	if cfg.StorageConfigured() {
		uploader, err = storage.NewS3Uploader(storage.S3UploaderConfig{
			Endpoint:        cfg.StorageEndpoint,
			Region:          cfg.StorageRegion,
			AccessKeyID:     cfg.StorageAccessKeyID,
			SecretAccessKey: cfg.StorageSecretAccessKey,
			BucketName:      cfg.StorageBucket,
			PublicBaseURL:   cfg.StoragePublicBaseURL,
		})
		if err != nil {
			return err
		}
		logger.Info("object storage configured", slog.String("bucket", cfg.StorageBucket))
	}

	hub := realtime.NewHub(logger)
	go hub.Run()

	tournamentRepo := repositories.NewPostgresTournamentRepository(pool)
	participantRepo := repositories.NewPostgresParticipantRepository(pool)
	matchRepo := repositories.NewPostgresMatchRepository(pool)

	locks := services.NewTournamentLocks()
	bracketService := services.NewBracketService(tournamentRepo, participantRepo, matchRepo, logger)
	standingsService := services.NewStandingsService(tournamentRepo, participantRepo, matchRepo, services.DefaultScoring)
	tournamentService := services.NewTournamentService(
		tournamentRepo, participantRepo, matchRepo, bracketService, uploader, hub, locks, logger)
	registrationService := services.NewRegistrationService(
		tournamentRepo, participantRepo, services.NoopPaymentConfirmer{}, hub, locks, logger)
	matchService := services.NewMatchService(
		tournamentRepo, matchRepo, standingsService, hub, locks, logger)

	router := routes.NewRouter(routes.Deps{
		Auth:         appmiddleware.NewAuthenticator(cfg.JWTSecretKey),
		Tournaments:  handlers.NewTournamentHandler(tournamentService),
		Participants: handlers.NewParticipantHandler(registrationService),
		Matches:      handlers.NewMatchHandler(matchService),
		Brackets:     handlers.NewBracketHandler(bracketService, standingsService),
		WebSocket:    handlers.NewWebSocketHandler(hub, logger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoCloseInterval > 0 {
		go runRegistrationSweep(ctx, tournamentService, time.Duration(cfg.AutoCloseInterval)*time.Second, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// runRegistrationSweep periodically closes or cancels tournaments whose
// registration deadline has passed.
func runRegistrationSweep(ctx context.Context, tournaments *services.TournamentService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("registration sweep started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tournaments.AutoCloseDueRegistrations(ctx, now)
		}
	}
}
