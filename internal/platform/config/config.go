package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort     string
	Environment string
	JWTKey      []byte
	JWTExp      time.Duration
	CookieName  string

	AllowedOrigins []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ExecutionQueueName   string
	ExecutionLockPrefix  string
	ExecutionLockTTL     time.Duration
	ExecutionMaxAttempts int

	EvaluatorURL     string
	EvaluatorToken   string
	EvaluatorTimeout time.Duration

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration
	SessionTTL   time.Duration
	SessionTurns int
	AuthProxyKey string

	RazorpayBaseURL   string
	RazorpayKeyID     string
	RazorpayKeySecret string
	PaymentTimeout    time.Duration

	CommunityPostTTL time.Duration
	MaintenanceSpec  string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:        getEnv("API_PORT", "8080"),
		Environment:    getEnv("APP_ENV", "development"),
		JWTKey:         []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:         time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		CookieName:     getEnv("AUTH_COOKIE_NAME", "jwt"),
		AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "codeprep"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ExecutionQueueName:   getEnv("EXECUTION_QUEUE_NAME", "execution_jobs_queue"),
		ExecutionLockPrefix:  getEnv("EXECUTION_LOCK_PREFIX", "execution_lock:"),
		ExecutionLockTTL:     getEnvAsDuration("EXECUTION_LOCK_TTL", 5*time.Minute),
		ExecutionMaxAttempts: getEnvAsInt("EXECUTION_MAX_ATTEMPTS", 3),

		EvaluatorURL:     getEnv("EVALUATOR_URL", "http://localhost:2358"),
		EvaluatorToken:   getEnv("EVALUATOR_TOKEN", ""),
		EvaluatorTimeout: getEnvAsDuration("EVALUATOR_TIMEOUT", 30*time.Second),

		LLMProvider:  getEnv("AI_PROVIDER", "gemini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:   getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),
		SessionTTL:   getEnvAsDuration("INTERVIEW_SESSION_TTL", 2*time.Hour),
		SessionTurns: getEnvAsInt("INTERVIEW_SESSION_TURNS", 20),
		AuthProxyKey: getEnv("AUTH_PROXY_SECRET", ""),

		RazorpayBaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		PaymentTimeout:    getEnvAsDuration("PAYMENT_TIMEOUT", 15*time.Second),

		CommunityPostTTL: getEnvAsDuration("COMMUNITY_POST_TTL", 30*24*time.Hour),
		MaintenanceSpec:  getEnv("MAINTENANCE_CRON", "@hourly"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("30s", "2h").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
