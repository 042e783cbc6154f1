package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	GinMode           string
	MongoURI          string
	MongoDatabase     string
	RabbitMQURI       string
	RabbitMQExchange  string
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	LLMTimeoutSeconds int
	JWTSecret         string
	ServiceName       string
}

var AppConfig *Config

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		GinMode:           getEnvOrDefault("GIN_MODE", "debug"),
		MongoURI:          getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnvOrDefault("MONGO_DATABASE", "adaptive_service"),
		RabbitMQURI:       getEnvOrDefault("RABBITMQ_URI", ""),
		RabbitMQExchange:  getEnvOrDefault("RABBITMQ_EXCHANGE", ""),
		LLMBaseURL:        getEnvOrDefault("LLM_BASE_URL", ""),
		LLMAPIKey:         getEnvOrDefault("LLM_API_KEY", ""),
		LLMModel:          getEnvOrDefault("LLM_MODEL", "gpt-4"),
		LLMTimeoutSeconds: getEnvIntOrDefault("LLM_TIMEOUT_SECONDS", 30),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", "your-jwt-secret-key"),
		ServiceName:       getEnvOrDefault("SERVICE_NAME", "adaptive-service"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}
