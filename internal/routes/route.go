package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/porchlight-app/server/internal/config"
	"github.com/porchlight-app/server/internal/container"
	"github.com/porchlight-app/server/internal/handlers"
	"github.com/porchlight-app/server/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(cfg *config.Config, container *container.Container) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Remaining"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		RedisClient:       container.RedisClient,
		KeyPrefix:         "ratelimit:",
	}))
	r.Use(gin.Recovery())

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "porchlight-api",
			})
		})

		// public routes: the share-link event view needs no login
		v1.GET("/events/public/:id", handlers.GetPublicEventHandler(container.EventService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.Auth(cfg.JWKSURL, container.Logger))

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("", handlers.CreateEventHandler(container.EventService))
		eventRoutes.GET("", handlers.ListEventsHandler(container.EventService))
		eventRoutes.GET("/:id", handlers.GetEventHandler(container.EventService))
		eventRoutes.PATCH("/:id", handlers.PatchEventHandler(container.EventService))
		eventRoutes.POST("/:id/cancel", handlers.CancelEventHandler(container.EventService))
		eventRoutes.DELETE("/:id", handlers.DeleteEventHandler(container.EventService))

		eventRoutes.PUT("/:id/rsvp", handlers.UpsertRsvpHandler(container.RsvpService))
		eventRoutes.DELETE("/:id/rsvp", handlers.RemoveRsvpHandler(container.RsvpService))
		eventRoutes.GET("/:id/rsvps", handlers.SummarizeRsvpsHandler(container.RsvpService))
		eventRoutes.GET("/:id/attendees", handlers.ListAttendeesHandler(container.RsvpService))
	}

	protected.GET("/people", handlers.ListPeopleHandler(container.DirectoryService))

	householdRoutes := protected.Group("/households")
	{
		householdRoutes.PUT("/me", handlers.UpsertMyHouseholdHandler(container.DirectoryService))
		householdRoutes.GET("/:id", handlers.GetHouseholdHandler(container.DirectoryService))
	}

	favoriteRoutes := protected.Group("/users/me/favorites")
	{
		favoriteRoutes.GET("", handlers.ListFavoritesHandler(container.DirectoryService))
		favoriteRoutes.PUT("/:householdId", handlers.AddFavoriteHandler(container.DirectoryService))
		favoriteRoutes.DELETE("/:householdId", handlers.RemoveFavoriteHandler(container.DirectoryService))
	}

	pushRoutes := protected.Group("/push")
	{
		pushRoutes.POST("/register", handlers.RegisterPushHandler(container.PushService))
		pushRoutes.POST("/unregister", handlers.UnregisterPushHandler(container.PushService))
		pushRoutes.GET("/tokens", handlers.GetPushTokensHandler(container.PushService))
	}

	return r
}
