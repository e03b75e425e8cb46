package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/bpal-app/bpal-backend/internal/api"
	"github.com/bpal-app/bpal-backend/internal/config"
	"github.com/bpal-app/bpal-backend/internal/database"
	"github.com/bpal-app/bpal-backend/internal/handler"
	"github.com/bpal-app/bpal-backend/internal/logger"
	"github.com/bpal-app/bpal-backend/internal/middleware"
	"github.com/bpal-app/bpal-backend/internal/scoring"
	"github.com/bpal-app/bpal-backend/internal/store"
	"github.com/robfig/cron/v3"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Could not load config: %v", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		logger.Error("Database connection failed: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Success("Connected to PostgreSQL")

	// Initialize the scoring engine
	engine := scoring.NewEngine(store.New(db), scoring.ParamsFromConfig(cfg.Scoring))
	handler.InitEngine(engine)

	// Schedule the daily badge cycle
	c := cron.New()
	_, err = c.AddFunc(cfg.Scoring.CycleCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := engine.RunDailyBadgeCycle(ctx, time.Now()); err != nil {
			logger.Error("Daily badge cycle failed: %v", err)
		}
	})
	if err != nil {
		logger.Error("Could not schedule daily badge cycle: %v", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()
	logger.Info("Daily badge cycle scheduled (%s)", cfg.Scoring.CycleCronSpec)

	// Initialize routes
	router := api.SetupRouter(cfg.ServiceKey)

	// Wrap router with CORS middleware
	h := middleware.CORSMiddleware(cfg.CORSOrigin, router)

	// Start server
	logger.Success("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, h); err != nil {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}
