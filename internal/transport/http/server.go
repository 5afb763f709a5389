package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"axel-advisor/internal/ai"
	appsvc "axel-advisor/internal/app"
	"axel-advisor/internal/blob"
	"axel-advisor/internal/bootstrap"
	"axel-advisor/internal/cache"
	"axel-advisor/internal/repository"
	"axel-advisor/internal/transport/http/handler"
	"axel-advisor/internal/transport/http/middleware"
	"axel-advisor/internal/vectorstore"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	orgRepo := repository.NewOrganizationRepository(app.MySQL)
	sectionRepo := repository.NewSectionRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	convRepo := repository.NewConversationRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)

	embedder := ai.NewEmbeddingClient(ai.EmbeddingConfig{
		BaseURL: app.Config.Embedding.BaseURL,
		APIKey:  app.Config.Embedding.APIKey,
		Model:   app.Config.Embedding.Model,
	})
	generator := ai.NewGenerationClient(ai.GenerationConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	})
	index := vectorstore.NewPineconeIndex(vectorstore.PineconeConfig{
		Host:   app.Config.Vector.Host,
		APIKey: app.Config.Vector.APIKey,
	})
	blobs := blob.NewStore(blob.Config{
		Endpoint:  app.Config.Blob.Endpoint,
		Bucket:    app.Config.Blob.Bucket,
		AccessKey: app.Config.Blob.AccessKey,
	})

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	turnMarker := cache.NewTurnMarker(
		app.Redis,
		time.Duration(app.Config.Redis.TurnMarkerTTLSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	ingestService := appsvc.NewIngestService(docRepo, blobs, embedder, index)
	onboardingService := appsvc.NewOnboardingService(orgRepo, sectionRepo, ingestService)
	retrievalService := appsvc.NewRetrievalService(embedder, index, app.Config.Usage.TopK)
	usageMeter := appsvc.NewUsageMeter(orgRepo, turnMarker, app.Config.Usage.Ceiling)
	chatService := appsvc.NewChatService(
		orgRepo,
		sectionRepo,
		convRepo,
		messageRepo,
		app.Persister,
		retrievalService,
		generator,
		usageMeter,
		historyCache,
	)

	authHandler := handler.NewAuthHandler(authService)
	onboardingHandler := handler.NewOnboardingHandler(onboardingService)
	documentHandler := handler.NewDocumentHandler(ingestService, onboardingService, docRepo)
	chatHandler := handler.NewChatHandler(chatService, onboardingService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.POST("/onboarding/setup", onboardingHandler.Setup)
	authed.POST("/documents/upload", documentHandler.Upload)
	authed.GET("/documents", documentHandler.List)
	authed.GET("/chat/sections", chatHandler.ListSections)
	authed.POST("/chat/start", chatHandler.StartConversation)
	authed.POST("/chat", chatHandler.SendMessage)
	authed.GET("/chat/:conversation_id/history", chatHandler.GetHistory)

	return router
}
