package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"terestats-server/internal/config"
	"terestats-server/internal/handlers"
	"terestats-server/internal/middleware"
	"terestats-server/internal/notify"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, notifier notify.Notifier) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	messageHandler := handlers.NewMessageHandler(db, cfg, notifier)
	ratingHandler := handlers.NewRatingHandler(db)
	wallHandler := handlers.NewWallHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			// Login receives an OTP-verified phone number and bootstraps
			// the user on first contact.
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
			authRoutesPrivate.POST("/onboarded", authHandler.CompleteOnboarding)
		}

		// User lookup routes
		userRoutes := private.Group("/users")
		{
			userRoutes.GET("/search", userHandler.SearchUser)
			userRoutes.GET("/:id/stats", userHandler.GetUserStats)
		}

		// Message lifecycle routes
		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("", messageHandler.SendMessage)
			messageRoutes.GET("/incoming", messageHandler.GetIncomingMessages)
			messageRoutes.GET("/outgoing", messageHandler.GetOutgoingMessages)

			// Edit/retract are gated on the cooling-off window in the handler
			messageRoutes.PUT("/:id", messageHandler.UpdateMessage)
			messageRoutes.DELETE("/:id", messageHandler.DeleteMessage)

			// Rating and publication apply to delivered messages only
			messageRoutes.POST("/:id/rating", ratingHandler.RateMessage)
			messageRoutes.PATCH("/:id/public", wallHandler.SetPublic)

			// Reactions attach to published messages
			messageRoutes.POST("/:id/agree", wallHandler.AgreeMessage)
			messageRoutes.POST("/:id/comments", wallHandler.CommentMessage)
		}

		// Public wall of a user, visible to any authenticated user
		private.GET("/wall/:userId", wallHandler.GetPublicWall)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
