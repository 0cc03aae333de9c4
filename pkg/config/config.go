package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	FirebaseStorageBucket   string
	PostStore               string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	GeocoderURL             string
	GeocoderUserAgent       string
	PaginationTotal         string
	ActionRateLimit         int
	ActionRateWindow        time.Duration
	MaxUploadBytes          int64
}

// Load reads the configuration from the environment, after loading .env if present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		PostStore:               getEnv("POST_STORE", "firestore"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "nastani"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		GeocoderURL:             getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent:       getEnv("GEOCODER_USER_AGENT", "nastani-backend/1.0"),
		PaginationTotal:         getEnv("PAGINATION_TOTAL", "filtered"),
		ActionRateLimit:         getEnvInt("ACTION_RATE_LIMIT", 3),
		ActionRateWindow:        getEnvDuration("ACTION_RATE_WINDOW", time.Second),
		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		log.Printf("Ignoring invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		log.Printf("Ignoring invalid %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}
