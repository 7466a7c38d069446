package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "property-recon/docs"
	"property-recon/internal/config"
	"property-recon/internal/diagnostics"
	"property-recon/internal/handler"
	"property-recon/internal/middleware"
	"property-recon/internal/repository"
	"property-recon/internal/service"
	"property-recon/pkg/logger"
)

// @title Property Statement Reconciliation API
// @version 1.0
// @description API for aligning periods and reconciling line items across property financial statements

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Property Statement Reconciliation Service")

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	// Initialize repositories
	stmtRepo := repository.NewStatementRepository(db)
	knowledgeRepo := repository.NewKnowledgeRepository(db)
	patternRepo := repository.NewPatternRepository(db)
	matchRepo := repository.NewMatchResultRepository(db)

	// Initialize services
	reconService := service.NewReconciliationService(stmtRepo, knowledgeRepo, patternRepo, matchRepo, cfg.Engine)
	diagService := diagnostics.NewService(stmtRepo, knowledgeRepo, patternRepo)

	// Initialize handlers
	reconHandler := handler.NewReconciliationHandler(reconService)
	diagHandler := handler.NewDiagnosticsHandler(diagService)

	router := setupRouter(reconHandler, diagHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func setupRouter(reconHandler *handler.ReconciliationHandler, diagHandler *handler.DiagnosticsHandler) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		reconciliation := v1.Group("/reconcile")
		{
			reconciliation.POST("", reconHandler.Reconcile)
			reconciliation.GET("/runs/:run_id", reconHandler.GetRunStatus)
			reconciliation.GET("/runs/:run_id/summary", reconHandler.GetRunSummary)
		}

		v1.GET("/alignment/:property_id/:period_id", reconHandler.GetAlignment)
		v1.GET("/diagnostics/:property_id/:period_id", diagHandler.Diagnose)
	}

	return router
}
