package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read for flag defaults. They are also passed to
// extensions.
const (
	EnvCurrency     = "FIFO_CURRENCY"
	EnvCurrentPrice = "FIFO_CURRENT_PRICE"
	EnvLogLevel     = "FIFO_LOG_LEVEL"
	EnvDayFirst     = "FIFO_DAY_FIRST"
)

// Config holds the defaults of the command flags.
type Config struct {
	Currency     string
	CurrentPrice string
	LogLevel     string
	DayFirst     bool
}

// cfg is the application configuration, replaced by LoadConfig in Register.
var cfg = &Config{Currency: "EUR", LogLevel: "warn", DayFirst: true}

// LoadConfig reads the configuration from the environment, after loading an
// optional .env file from the working directory.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, cannot load .env file:", err)
	}
	return &Config{
		Currency:     getEnv(EnvCurrency, "EUR"),
		CurrentPrice: getEnv(EnvCurrentPrice, ""),
		LogLevel:     getEnv(EnvLogLevel, "warn"),
		DayFirst:     getEnvAsBool(EnvDayFirst, true),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("warning, invalid boolean value for %s (%q), using default: %t", key, valueStr, fallback)
	return fallback
}
