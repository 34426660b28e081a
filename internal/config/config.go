package config

import (
	"errors"  // For required-field errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list values
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort       string        // Application port
	IsProd        bool          // Is production environment
	DBDriver      string        // mysql or postgres
	DBUser        string        // Database user
	DBPassword    string        // Database password
	DBHost        string        // Database host
	DBPort        string        // Database port
	DBName        string        // Database name
	JWTSecret     string        // JWT secret key
	JWTTTL        time.Duration // Token lifetime
	RedisAddr     string        // Redis server address, empty disables Redis
	RedisPass     string        // Redis password
	RedisDB       int           // Redis database number
	CORSOrigins   []string      // Allowed browser origins
	PublicBaseURL string        // Base URL used in subscription links
	TelegramToken string        // Bot token for admin alerts, optional
	TelegramChat  int64         // Admin chat id for alerts
	SweepInterval time.Duration // Period of the expiry sweeper
	OrderTTL      time.Duration // How long a pending order stays payable
	RateLimit     int           // Requests per minute on sensitive endpoints
	TrustedProxy  []string      // Proxies allowed to set X-Forwarded-For
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		IsProd:        os.Getenv("IS_PROD") == "true",
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        getEnv("DB_HOST", "127.0.0.1"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        getEnv("DB_NAME", "xpanel"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        time.Duration(getEnvInt("JWT_TTL_HOURS", 168)) * time.Hour,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPass:     os.Getenv("REDIS_PASS"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChat:  int64(getEnvInt("TELEGRAM_ADMIN_CHAT_ID", 0)),
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
		OrderTTL:      time.Duration(getEnvInt("ORDER_TTL_MINUTES", 30)) * time.Minute,
		RateLimit:     getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		TrustedProxy:  splitList(getEnv("TRUSTED_PROXIES", "127.0.0.1")),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DBDriver != "mysql" && cfg.DBDriver != "postgres" {
		return nil, errors.New("DB_DRIVER must be mysql or postgres")
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "3306"
		if cfg.DBDriver == "postgres" {
			cfg.DBPort = "5432"
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt falls back on missing or malformed values
func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
