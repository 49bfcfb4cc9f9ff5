package router

import (
	"github.com/anonto42/writers-guild/backend/internal/handlers"
	"github.com/anonto42/writers-guild/backend/internal/middleware"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/anonto42/writers-guild/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps is everything the routes need. The registry and broadcaster are built
// before routing and handed to every handler that pushes events.
type Deps struct {
	DB             *gorm.DB
	Posts          repositories.PostRepository
	Sessions       *services.SessionManager
	Registry       *realtime.Registry
	Broadcaster    realtime.Broadcaster
	TokenVerifier  middleware.TokenVerifier // nil disables firebase-login
	AllowedOrigins []string
	Log            *logrus.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) {
	log := logger.Component(deps.Log, "router")
	entry := func(name string) *logrus.Entry {
		return logger.Component(deps.Log, name)
	}

	e.GET("/health", handlers.HealthCheck(deps.Registry))

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.DB)
	commentRepo := repositories.NewPostgresCommentRepository(deps.DB)
	likeRepo := repositories.NewPostgresLikeRepository(deps.DB)
	followRepo := repositories.NewPostgresFollowRepository(deps.DB)
	repostRepo := repositories.NewPostgresRepostRepository(deps.DB)
	savedPostRepo := repositories.NewPostgresSavedPostRepository(deps.DB)
	collabRepo := repositories.NewPostgresCollaborationRepository(deps.DB)
	reportRepo := repositories.NewPostgresReportRepository(deps.DB)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.DB)
	conversationRepo := repositories.NewPostgresConversationRepository(deps.DB)

	// --- Services ---
	notifier := services.NewNotifier(notificationRepo, deps.Broadcaster, entry("notifier"))
	messenger := services.NewMessenger(conversationRepo, userRepo, deps.Broadcaster, entry("messenger"))
	enricher := handlers.NewPostEnricher(userRepo, likeRepo, savedPostRepo, repostRepo)

	// --- Real-time channel ---
	wsHandler := handlers.NewWSHandler(deps.Sessions, deps.Registry, deps.Broadcaster, deps.AllowedOrigins, entry("ws"))
	wsHandler.RegisterWSRoutes(e)

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(userRepo, deps.Sessions, entry("auth"))
	authHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"), deps.TokenVerifier)

	// --- Protected routes (require a session) ---
	api := e.Group("/api/v1")
	api.Use(middleware.SessionAuth(deps.Sessions))

	authHandler.RegisterMeRoute(api)
	handlers.NewUserHandler(userRepo, followRepo).RegisterProfileRoutes(api)
	handlers.NewPostHandler(deps.Posts, userRepo, enricher, entry("posts")).RegisterPostRoutes(api)
	handlers.NewFeedHandler(deps.Posts, followRepo, enricher).RegisterFeedRoutes(api)
	handlers.NewFollowHandler(followRepo, userRepo, notifier, entry("follows")).RegisterFollowRoutes(api)
	handlers.NewCommentHandler(commentRepo, deps.Posts, userRepo, notifier, entry("comments")).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(likeRepo, deps.Posts, userRepo, notifier, entry("likes")).RegisterLikeRoutes(api)
	handlers.NewRepostHandler(repostRepo, deps.Posts, userRepo, notifier, entry("reposts")).RegisterRepostRoutes(api)
	handlers.NewSavedPostHandler(savedPostRepo, deps.Posts, enricher, entry("bookmarks")).RegisterSavedPostRoutes(api)
	handlers.NewCollaborationHandler(collabRepo, deps.Posts, userRepo, notifier, entry("collaboration")).RegisterCollaborationRoutes(api)
	handlers.NewReportHandler(reportRepo, deps.Posts, userRepo, notifier, entry("reports")).RegisterReportRoutes(api)
	handlers.NewNotificationHandler(notificationRepo, userRepo).RegisterNotificationRoutes(api)
	handlers.NewMessageHandler(messenger, conversationRepo, userRepo).RegisterMessageRoutes(api)

	log.WithField("firebase_login", deps.TokenVerifier != nil).Info("routes configured")
}
