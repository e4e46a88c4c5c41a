package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBDSN           string
	LogFile         string
	Currency        string
	StripeSecretKey string
	StripePublicKey string
	StripeWHSecret  string
	PaymentTimeout  time.Duration
}

func Load() Config {
	godotenv.Load()

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		DBDSN:           getEnv("DB_DSN", "coffeehub.db"),
		LogFile:         getEnv("LOG_FILE", "./coffeehub.log"),
		Currency:        getEnv("CURRENCY", "usd"),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		StripePublicKey: getEnv("STRIPE_PUBLIC_KEY", ""),
		StripeWHSecret:  getEnv("STRIPE_WH_SECRET", ""),
		PaymentTimeout:  getEnvDuration("PAYMENT_TIMEOUT", 10*time.Second),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s CURRENCY=%s", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.Currency)
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[config] invalid duration for %s, using default", key)
	}
	return fallback
}
