package routes

import (
	"time"

	"pizza-backend/handlers"
	"pizza-backend/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db}
	userHandler := &handlers.UserHandler{DB: db}
	franchiseHandler := &handlers.FranchiseHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db}

	// Credential endpoints get a per-IP rate limit.
	authLimiter := middleware.NewRateLimiter(20, time.Minute)

	api := r.Group("/api")

	// Public routes
	{
		api.POST("/auth", authLimiter.Middleware(), authHandler.Register)
		api.PUT("/auth", authLimiter.Middleware(), authHandler.Login)

		api.GET("/franchise", franchiseHandler.ListFranchises)
		api.GET("/order/menu", orderHandler.GetMenu)
		api.GET("/docs", handlers.Docs)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(db))
	{
		protected.DELETE("/auth", authHandler.Logout)

		protected.GET("/user/me", userHandler.Me)
		protected.GET("/user", userHandler.ListUsers)
		protected.PUT("/user/:id", userHandler.UpdateUser)
		protected.DELETE("/user/:id", userHandler.DeleteUser)

		protected.GET("/franchise/:id", franchiseHandler.GetUserFranchises)
		protected.POST("/franchise/:id/store", franchiseHandler.CreateStore)
		protected.DELETE("/franchise/:id/store/:storeId", franchiseHandler.DeleteStore)

		protected.GET("/order", orderHandler.GetOrders)
		protected.POST("/order", orderHandler.CreateOrder)
	}

	// Admin routes (require admin role)
	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware(db))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/franchise", franchiseHandler.CreateFranchise)
		admin.DELETE("/franchise/:id", franchiseHandler.DeleteFranchise)
		admin.PUT("/order/menu", orderHandler.AddMenuItem)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
