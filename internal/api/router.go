package api

import (
	"net/http"

	"github.com/easymo/notify/internal/api/handler"
	customMiddleware "github.com/easymo/notify/internal/api/middleware"
	"github.com/easymo/notify/internal/config"
	"github.com/easymo/notify/internal/repository/postgres"
	"github.com/easymo/notify/internal/repository/redis"
	"github.com/easymo/notify/internal/security"
	"github.com/easymo/notify/internal/service"
	"github.com/easymo/notify/internal/sms"
	"github.com/easymo/notify/internal/whatsapp"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security
	tokenManager := security.NewTokenManager(cfg.Auth.ServiceTokenSecret, cfg.Auth.ServiceTokenTTL)

	// Repositories
	sessionRepo := postgres.NewSessionRepository(db.Pool, cfg.Session.TTL)
	deliveryRepo := postgres.NewDeliveryLogRepository(db.Pool)
	profileRepo := postgres.NewProfileRepository(db.Pool)
	cachedProfiles := redis.NewCachedProfileRepository(redisClient, profileRepo, cfg.Dispatch.ProfileCacheTTL)
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Dispatch.RateLimit.RequestsPerMinute,
		cfg.Dispatch.RateLimit.Burst,
	)

	// Channel adapters
	smsClient := sms.NewClient(sms.Config{
		APIURL:     cfg.SMS.APIURL,
		APIKey:     cfg.SMS.APIKey,
		APISecret:  cfg.SMS.APISecret,
		SenderID:   cfg.SMS.SenderID,
		Timeout:    cfg.SMS.Timeout,
		MaxRetries: cfg.SMS.MaxRetries,
	})
	whatsappClient := whatsapp.NewClient(whatsapp.Config{
		APIURL:        cfg.WhatsApp.APIURL,
		AccessToken:   cfg.WhatsApp.AccessToken,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		Timeout:       cfg.WhatsApp.Timeout,
	})

	// Services
	sessionService := service.NewSessionService(sessionRepo)
	dispatchService := service.NewDispatchService(
		cachedProfiles,
		deliveryRepo,
		sessionRepo,
		whatsappClient,
		smsClient,
		cfg.SMS.MaxSegmentLen,
	)

	// Handlers
	notificationHandler := handler.NewNotificationHandler(dispatchService)
	sessionHandler := handler.NewSessionHandler(sessionService, deliveryRepo)
	profileHandler := handler.NewProfileHandler(profileRepo, cachedProfiles)

	// Middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(tokenManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/notifications", func(r chi.Router) {
				r.Use(rateLimitMiddleware.Limit)

				r.Post("/", notificationHandler.Send)
				r.Post("/text", notificationHandler.SendText)
			})

			r.Put("/profiles/{profileID}/channels", profileHandler.UpdateChannels)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.GetOrCreate)
				r.Get("/active", sessionHandler.GetActive)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", sessionHandler.Get)
					r.Patch("/status", sessionHandler.UpdateStatus)
					r.Patch("/context", sessionHandler.MergeContext)
					r.Post("/close", sessionHandler.Close)
					r.Get("/deliveries", sessionHandler.ListDeliveries)
				})
			})
		})
	})

	return r
}
