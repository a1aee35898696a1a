package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"pipeline-expert/internal/ai"
	appsvc "pipeline-expert/internal/app"
	"pipeline-expert/internal/bootstrap"
	"pipeline-expert/internal/cache"
	"pipeline-expert/internal/platform/rabbitmq"
	"pipeline-expert/internal/repository"
	"pipeline-expert/internal/transport/http/handler"
	"pipeline-expert/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()

	var corsOrigins []string
	if cfg.IsProduction() {
		corsOrigins = cfg.CORS.AllowedOrigins
	}
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewMessagePublisher(app.MQConn, cfg.RabbitMQ.MessagePersistQueue)
	modelClient := ai.NewGeminiClient(
		cfg.Gemini.BaseURL,
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second,
	)

	chatService := appsvc.NewChatService(modelClient, publisher, historyCache, cfg.Gemini.MaxHistoryTurns)
	userService := appsvc.NewUserService(userRepo)
	sessionService := appsvc.NewSessionService(messageRepo, historyCache)

	chatHandler := handler.NewChatHandler(chatService)
	userHandler := handler.NewUserHandler(userService)
	sessionHandler := handler.NewSessionHandler(sessionService)

	api := router.Group("/api")

	chatGroup := api.Group("/chat")
	if cfg.IsProduction() {
		chatGroup.Use(middleware.RateLimit(
			app.Redis,
			cfg.RateLimit.MaxRequests,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		))
	}
	chatGroup.POST("", chatHandler.Chat)

	api.GET("/test", chatHandler.Test)

	api.POST("/login", userHandler.Login)
	api.GET("/users", userHandler.List)
	api.POST("/users", userHandler.Create)
	api.DELETE("/users/:id", userHandler.Delete)

	api.GET("/sessions-admin", sessionHandler.ListSessions)
	api.GET("/sessions/:sessionId", sessionHandler.SessionMessages)
	api.GET("/user-sessions/:userId", sessionHandler.ListUserSessions)

	return router
}
