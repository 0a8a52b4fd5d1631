package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"roblox-trader/internal/api"
	"roblox-trader/internal/cache"
	"roblox-trader/internal/config"
	"roblox-trader/internal/database"
	"roblox-trader/internal/scheduler"
	"roblox-trader/internal/services/roblox"
	"roblox-trader/internal/services/rolimons"
	"roblox-trader/internal/services/trading"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	// Initialize database (trade ad history)
	db, err := database.Initialize(cfg.Database.Path)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis-backed cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logrus.WithField("addr", cfg.Redis.Addr).Info("connecting to redis")
	kv := cache.NewRedis(redisClient)

	// Initialize services
	robloxService := roblox.NewRobloxService(cfg.Roblox, cfg.Fetch)
	rolimonsService := rolimons.NewRolimonsService(cfg.Rolimons, cfg.Cache, kv)
	tradingService := trading.NewTradingService(db, robloxService, rolimonsService)

	// Initialize Gin router
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Serve the static frontend
	r.Static("/static", "./web/static")
	r.StaticFile("/", "./web/index.html")

	// API routes
	root := r.Group("/")
	api.SetupRoutes(root, tradingService, rolimonsService)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Catalog cache warmer
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(rolimonsService)
		if err := sched.Start(cfg.Scheduler.CatalogWarmCron); err != nil {
			logrus.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	logrus.Infof("Server started on port %d", cfg.Server.Port)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatal("Server forced to shutdown:", err)
	}

	logrus.Info("Server exited")
}
