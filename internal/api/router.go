package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"agrilift/portal/internal/api/handlers"
	"agrilift/portal/internal/api/middleware"
	"agrilift/portal/internal/config"
	"agrilift/portal/internal/events"
	"agrilift/portal/internal/services"
	"agrilift/portal/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, publisher events.Publisher) *gin.Engine {
	// Initialize services needed by API handlers HERE
	exportService := services.NewExportService(db, cfg, publisher)
	analyticsService := services.NewAnalyticsService(db, cfg, rdb)

	var docStorage storage.IDocumentStorage
	if cfg.AwsS3Bucket != "" {
		s3Storage, err := storage.NewS3DocumentStorage(cfg)
		if err != nil {
			log.Fatalf("CRITICAL: Failed to initialize S3 document storage: %v", err)
		}
		docStorage = s3Storage
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	exportHandler := handlers.NewRestExportHandler(exportService, docStorage)
	analyticsHandler := handlers.NewRestAnalyticsHandler(analyticsService)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Public read routes
		v1.GET("/export/active", exportHandler.ListActiveExports)
		v1.GET("/export/:id", exportHandler.GetExportByID)
		v1.GET("/analytics/status", analyticsHandler.StatsByStatus)
		v1.GET("/analytics/markets", analyticsHandler.MarketInsights)
		v1.GET("/analytics/crops", analyticsHandler.TopCrops)

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/export", exportHandler.CreateExport)
			authRequired.GET("/export", exportHandler.ListOwnerExports)
			authRequired.PUT("/export/:id", exportHandler.SaveExport)
			authRequired.POST("/export/:id/status", exportHandler.UpdateStatus)
			authRequired.POST("/export/:id/buyer", exportHandler.AddBuyer)
			authRequired.PATCH("/export/:id/logistics", exportHandler.UpdateLogistics)
			authRequired.PATCH("/export/:id/payment", exportHandler.UpdatePayment)
			authRequired.POST("/export/:id/activity", exportHandler.AddActivity)
			authRequired.DELETE("/export/:id", exportHandler.SoftDeleteExport)
		}

		// Admin routes
		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.DELETE("/export/:id", exportHandler.HardDeleteExport)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the internal service Gin engine,
// used for health checks and controlled shutdown.
func SetupServiceRouter(cfg *config.Config, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})

	return r
}
