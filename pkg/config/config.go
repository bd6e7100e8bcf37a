package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Post store backends
const (
	PostStoreMongo     = "mongo"
	PostStoreFirestore = "firestore"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	PostStore               string
	MetricsPort             string
	JWTSecret               string
	NoveltyWindow           time.Duration
}

// Load reads the configuration from the environment, loading a .env file first if present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "marketplace"),
		PostStore:               getEnv("POST_STORE", PostStoreMongo),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		NoveltyWindow:           getDuration("NOVELTY_WINDOW", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
