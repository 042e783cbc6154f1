package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"adaptive-service/internal/configs"
	"adaptive-service/internal/db"
	"adaptive-service/internal/engine"
	"adaptive-service/internal/event"
	"adaptive-service/internal/handlers"
	"adaptive-service/internal/llm"
	"adaptive-service/internal/repository"
	"adaptive-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configs.LoadConfig()
	gin.SetMode(configs.AppConfig.GinMode)

	db.InitMongo(configs.AppConfig.MongoURI)
	database := db.Client.Database(configs.AppConfig.MongoDatabase)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if configs.AppConfig.RabbitMQURI != "" && configs.AppConfig.RabbitMQExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(configs.AppConfig.RabbitMQURI, configs.AppConfig.RabbitMQExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, learning events will not be published")
	}

	// LLM-backed question generation; without it the engine serves cached
	// questions only.
	var generator engine.Client
	if configs.AppConfig.LLMBaseURL != "" {
		generator = llm.NewChatClient(
			configs.AppConfig.LLMBaseURL,
			configs.AppConfig.LLMAPIKey,
			configs.AppConfig.LLMModel,
			time.Duration(configs.AppConfig.LLMTimeoutSeconds)*time.Second,
		)
	} else {
		log.Println("LLM not configured, serving cached questions only")
	}

	// Repositories
	learnerRepo := repository.NewLearnerRepository(database)
	conceptRepo := repository.NewConceptRepository(database)
	templateRepo := repository.NewTemplateRepository(database)
	questionRepo := repository.NewQuestionRepository(database)
	responseRepo := repository.NewResponseRepository(database)
	sessionRepo := repository.NewSessionRepository(database)

	// Engine
	source := engine.NewQuestionSource(questionRepo, conceptRepo, generator, engine.DefaultRetryPolicy())
	adaptiveEngine := engine.NewEngine(
		engine.DefaultKnowledgeTracer(),
		engine.DefaultTemplateBandit(nil),
		source,
		learnerRepo,
		templateRepo,
		conceptRepo,
		questionRepo,
		responseRepo,
		sessionRepo,
	)

	// Services and handlers
	catalogService := service.NewCatalogService(conceptRepo, templateRepo, questionRepo)
	learningHandler := handlers.NewLearningHandler(adaptiveEngine, publisher)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Protected routes - adaptive learning loop
	protectedLearning := r.Group("/protected/learning")
	{
		protectedLearning.POST("/session", learningHandler.StartSession)
		protectedLearning.POST("/next-question", learningHandler.NextQuestion)
		protectedLearning.POST("/response", learningHandler.ProcessResponse)
		protectedLearning.POST("/session/:id/end", learningHandler.EndSession)

		// Catalog seeding
		protectedLearning.POST("/concept", catalogHandler.CreateConcept)
		protectedLearning.POST("/template", catalogHandler.CreateTemplate)
	}

	// Public routes - catalog reads
	publicLearning := r.Group("/public/learning")
	{
		publicLearning.GET("/template", catalogHandler.ListTemplates)
		publicLearning.GET("/question/:id", catalogHandler.GetQuestion)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": configs.AppConfig.ServiceName})
	})

	addr := fmt.Sprintf(":%s", configs.AppConfig.Port)
	log.Printf("%s listening on %s", configs.AppConfig.ServiceName, addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
