package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gemcase-backend/internal/config"
	"gemcase-backend/internal/handlers"
	"gemcase-backend/internal/middleware"
	"gemcase-backend/internal/services"
	"gemcase-backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)

	wsHandler := handlers.NewWebSocketHandler(redisService)
	engine := services.NewEngine(store, cfg, wsHandler)

	scheduler := services.NewScheduler(store, cfg, wsHandler)
	go scheduler.Start(ctx)

	authHandler := handlers.NewAuthHandler(engine, redisService, jwtService, cfg.APISecret, cfg.SessionTTL)
	userHandler := handlers.NewUserHandler(engine, redisService)
	caseHandler := handlers.NewCaseHandler(engine, redisService)
	giveawayHandler := handlers.NewGiveawayHandler(engine)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Api-Secret")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/session", authHandler.CreateSession)

	router.GET("/cases", caseHandler.ListCases)
	router.GET("/cases/:slug", caseHandler.GetCase)
	router.GET("/events", caseHandler.GetActiveEvents)
	router.GET("/pool", caseHandler.GetPoolStatus)
	router.GET("/leaderboard", caseHandler.GetLeaderboard)
	router.GET("/drops", caseHandler.GetRecentDrops)
	router.GET("/opens/:id/verify", caseHandler.VerifyOpen)
	router.GET("/ws", wsHandler.HandleWebSocket)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/logout", userHandler.Logout)

		protected.POST("/cases/:slug/open", caseHandler.OpenCase)
		protected.GET("/inventory", userHandler.GetInventory)
		protected.POST("/inventory/:id/sell", userHandler.SellHolding)
		protected.POST("/streak/claim", userHandler.ClaimStreak)

		protected.GET("/giveaways", giveawayHandler.ListGiveaways)
		protected.POST("/giveaways/:id/enter", giveawayHandler.EnterGiveaway)
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("Server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
