package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"vanik-system/internal/database/models"
)

type Config struct {
	Redis RedisConfig
	DB    DBConfig
	Auth  AuthConfig
	GST   GSTConfig
	HTTP  HTTPConfig
}

type HTTPConfig struct {
	Port string
	// RateLimit uses limiter's formatted syntax, e.g. "100-M" for a
	// hundred requests a minute per client.
	RateLimit string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  string
}

type GSTConfig struct {
	// HomeStateCode is the two-digit GST state code of the business; a party
	// in a different state makes the document interstate.
	HomeStateCode  string
	InvoicePrefix  string
	PurchasePrefix string
	AllowedRates   []decimal.Decimal
}

func (g GSTConfig) Prefixes() map[models.DocumentClass]string {
	return map[models.DocumentClass]string{
		models.ClassInvoice:  g.InvoicePrefix,
		models.ClassPurchase: g.PurchasePrefix,
	}
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "vanik"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnv("JWT_TTL", "12h"),
		},
		GST: GSTConfig{
			HomeStateCode:  getEnv("GST_HOME_STATE", "27"),
			InvoicePrefix:  getEnv("INVOICE_PREFIX", "INV"),
			PurchasePrefix: getEnv("PURCHASE_PREFIX", "PUR"),
			AllowedRates:   parseRates(getEnv("GST_RATES", "0,5,12,18,28")),
		},
		HTTP: HTTPConfig{
			Port:      getEnv("PORT", "8080"),
			RateLimit: getEnv("RATE_LIMIT", "10-M"),
		},
	}
}

func parseRates(raw string) []decimal.Decimal {
	var rates []decimal.Decimal
	for _, part := range strings.Split(raw, ",") {
		d, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			log.Fatalf("invalid GST rate %q in GST_RATES", part)
		}
		rates = append(rates, d)
	}
	return rates
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
