package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/middleware"
	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/router"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/anonto42/writers-guild/backend/pkg/config"
	"github.com/anonto42/writers-guild/backend/pkg/firebase"
	"github.com/anonto42/writers-guild/backend/pkg/logger"
	"github.com/anonto42/writers-guild/backend/pkg/validators"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout  = 10 * time.Second
	sessionSweepTick = time.Hour
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serves the HTTP API and the /ws channel",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	mainLog := logger.Component(log, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := models.AutoMigrate(db.Postgres); err != nil {
		return errors.Wrap(err, "failed to auto migrate models")
	}

	posts := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))
	if err := posts.EnsureIndexes(ctx); err != nil {
		mainLog.WithError(err).Warn("failed to ensure post indexes")
	}

	sessionRepo := sessionStore(ctx, db, mainLog)
	sessions, err := services.NewSessionManager(sessionRepo, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	if err != nil {
		return err
	}

	registry := realtime.NewRegistry()
	local := realtime.NewLocalBroadcaster(registry, logger.Component(log, "broadcaster"))
	var broadcaster realtime.Broadcaster = local
	if cfg.NatsURL != "" {
		relay, err := realtime.NewNATSBroadcaster(cfg.NatsURL, local, logger.Component(log, "nats"))
		if err != nil {
			return err
		}
		defer relay.Close()
		broadcaster = relay
	}

	var verifier middleware.TokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return err
		}
		verifier = app.AuthClient
		mainLog.Info("firebase login enabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, cfg, log)
	router.SetupRoutes(e, router.Deps{
		DB:             db.Postgres,
		Posts:          posts,
		Sessions:       sessions,
		Registry:       registry,
		Broadcaster:    broadcaster,
		TokenVerifier:  verifier,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	errCh := make(chan error, 1)
	go func() {
		mainLog.WithField("port", cfg.Port).Info("server started")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	mainLog.Info("signal caught, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// sessionStore prefers Redis. Without it sessions live in PostgreSQL and a
// sweeper removes expired rows until ctx ends.
func sessionStore(ctx context.Context, db *config.DB, log *logrus.Entry) repositories.SessionRepository {
	if db.Redis != nil {
		log.Info("sessions stored in Redis")
		return repositories.NewRedisSessionRepository(db.Redis)
	}

	repo := repositories.NewPostgresSessionRepository(db.Postgres)
	go func() {
		ticker := time.NewTicker(sessionSweepTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := repo.DeleteExpired(ctx, now)
				if err != nil {
					log.WithError(err).Warn("session sweep failed")
				} else if n > 0 {
					log.WithField("deleted", n).Debug("expired sessions removed")
				}
			}
		}
	}()
	log.Info("sessions stored in PostgreSQL")
	return repo
}
