package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	PublicURL   string
	Database    DatabaseConfig
	Payment     PaymentConfig
	Email       EmailConfig
	Store       StoreConfig
	API         APIConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type PaymentConfig struct {
	BaseURL       string
	AccessToken   string
	WebhookSecret string
}

type EmailConfig struct {
	BaseURL     string
	APIKey      string
	FromAddress string
}

// StoreConfig carries the storefront pricing knobs.
type StoreConfig struct {
	Currency              string
	TaxRate               float64
	FreeShippingThreshold float64
	ShippingRate          float64
	CartDir               string
}

type APIConfig struct {
	AdminKeyHash string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TAX_RATE", 0.16)
	viper.SetDefault("FREE_SHIPPING_THRESHOLD", 1500.0)
	viper.SetDefault("SHIPPING_RATE", 99.0)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		PublicURL:   getEnvOrViper("PUBLIC_URL", "http://localhost:8080"),
		Database: DatabaseConfig{
			Host:           getEnvOrViper("DB_HOST", "localhost"),
			Port:           getEnvOrViper("DB_PORT", "5432"),
			User:           getEnvOrViper("DB_USER", "postgres"),
			Password:       getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:         getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:        getEnvOrViper("DB_SSLMODE", "disable"),
			MigrationsPath: getEnvOrViper("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Payment: PaymentConfig{
			BaseURL:       getEnvOrViper("PAYMENT_BASE_URL", "https://api.mercadopago.com"),
			AccessToken:   getEnvOrViper("PAYMENT_ACCESS_TOKEN", ""),
			WebhookSecret: getEnvOrViper("PAYMENT_WEBHOOK_SECRET", ""),
		},
		Email: EmailConfig{
			BaseURL:     getEnvOrViper("EMAIL_BASE_URL", "https://api.resend.com"),
			APIKey:      getEnvOrViper("EMAIL_API_KEY", ""),
			FromAddress: getEnvOrViper("EMAIL_FROM_ADDRESS", "orders@urbanedge.mx"),
		},
		Store: StoreConfig{
			Currency:              getEnvOrViper("CURRENCY", "MXN"),
			TaxRate:               viper.GetFloat64("TAX_RATE"),
			FreeShippingThreshold: viper.GetFloat64("FREE_SHIPPING_THRESHOLD"),
			ShippingRate:          viper.GetFloat64("SHIPPING_RATE"),
			CartDir:               getEnvOrViper("CART_DIR", ".carts"),
		},
		API: APIConfig{
			AdminKeyHash: getEnvOrViper("ADMIN_API_KEY_HASH", ""),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Environment == "production" {
		if cfg.Payment.AccessToken == "" {
			return nil, fmt.Errorf("PAYMENT_ACCESS_TOKEN is required")
		}
		if cfg.Payment.WebhookSecret == "" {
			return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
		}
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
