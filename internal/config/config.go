package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiConcurrentReqs int

	// Scheduler
	DefaultEase     float64
	EasePenalty     float64
	EaseFloor       float64
	MasteryWeight   float64
	JitterAmplitude float64
	TopicStreakCap  int
	ExcludeWindow   int
	DueSoonDays     int
	IncludeUnseen   bool

	// Sessions
	SessionTTLMinutes int

	// Workers
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		DBMaxConns:           getEnvAsIntOrDefault("DB_MAX_CONNS", 25),
		DBMinConns:           getEnvAsIntOrDefault("DB_MIN_CONNS", 5),
		RedisURL:             mustGetEnv("REDIS_URL"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		DefaultEase:          getEnvAsFloatOrDefault("SRS_DEFAULT_EASE", 1.8),
		EasePenalty:          getEnvAsFloatOrDefault("SRS_EASE_PENALTY", 0.1),
		EaseFloor:            getEnvAsFloatOrDefault("SRS_EASE_FLOOR", 1.3),
		MasteryWeight:        getEnvAsFloatOrDefault("SRS_MASTERY_WEIGHT", 0.5),
		JitterAmplitude:      getEnvAsFloatOrDefault("SRS_JITTER_AMPLITUDE", 0.01),
		TopicStreakCap:       getEnvAsIntOrDefault("SRS_TOPIC_STREAK_CAP", 3),
		ExcludeWindow:        getEnvAsIntOrDefault("SRS_EXCLUDE_WINDOW", 3),
		DueSoonDays:          getEnvAsIntOrDefault("SRS_DUE_SOON_DAYS", 7),
		IncludeUnseen:        getEnvAsBoolOrDefault("SRS_INCLUDE_UNSEEN", true),
		SessionTTLMinutes:    getEnvAsIntOrDefault("SESSION_TTL_MINUTES", 120),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 3),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
