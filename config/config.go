package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	MongoDBURI       string
	DBName           string
	Port             string
	JWTSecret        string
	RedisAddr        string // optional; the presence cache is disabled when empty
	AllowedOrigin    string
	MaxMessageLength int
}

// LoadConfig reads configuration from environment variables, falling back to
// a .env file when one is present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := &Config{
		MongoDBURI:       getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("DB_NAME", "chatbug"),
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 1000),
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
