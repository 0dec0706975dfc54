package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	sqlite3 "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Stock policies understood by the order engine.
const (
	StockPolicyAdvisory = "advisory"
	StockPolicyStrict   = "strict"
)

type Config struct {
	Port        string
	GinMode     string
	DBDriver    string
	DBSource    string
	JWTSecret   string
	JWTTTL      time.Duration
	TaxRate     float64
	StockPolicy string
	CORSOrigin  string
	LogLevel    string
	RateLimit   int
	AdminEmail  string
	AdminPass   string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBSource:    getEnv("DB_SOURCE", "cafe_pos.db"),
		JWTSecret:   getEnv("JWT_SECRET", "cafe-pos-dev-secret"),
		JWTTTL:      getDuration("JWT_TTL", 24*time.Hour),
		TaxRate:     getFloat("TAX_RATE", 0),
		StockPolicy: strings.ToLower(getEnv("STOCK_POLICY", StockPolicyAdvisory)),
		CORSOrigin:  getEnv("CORS_ORIGIN", "http://127.0.0.1:5173"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RateLimit:   getInt("RATE_LIMIT", 50),
		AdminEmail:  getEnv("ADMIN_EMAIL", "admin@cafe.local"),
		AdminPass:   getEnv("ADMIN_PASSWORD", "admin123"),
	}

	if cfg.StockPolicy != StockPolicyAdvisory && cfg.StockPolicy != StockPolicyStrict {
		log.Printf("Warning: unknown STOCK_POLICY %q, falling back to %s", cfg.StockPolicy, StockPolicyAdvisory)
		cfg.StockPolicy = StockPolicyAdvisory
	}
	if cfg.JWTSecret == "cafe-pos-dev-secret" {
		log.Printf("Warning: JWT_SECRET not set, using development secret")
	}

	return cfg
}

// InitDB opens the database selected by DB_DRIVER.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite3.Open(cfg.DBSource)
	case "sqlite-purego":
		// cgo-free builds (serverless images)
		dialector = sqlite.Open(cfg.DBSource)
	case "mysql":
		dialector = mysql.Open(cfg.DBSource)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
