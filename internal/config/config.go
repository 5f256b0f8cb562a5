/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the accounts-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix      string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	GatewayJWKSURL            string `mapstructure:"GATEWAY_JWKS_URL"`
	InternalAPIKey            string `mapstructure:"INTERNAL_API_KEY"`
	MaxLoadAmountCentavos     int64  `mapstructure:"MAX_LOAD_AMOUNT_CENTAVOS"`
	BalanceRateLimitPerMinute int    `mapstructure:"BALANCE_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "monopatines:rate_limit")
	viper.SetDefault("MAX_LOAD_AMOUNT_CENTAVOS", 0) // 0 disables the cap
	viper.SetDefault("BALANCE_RATE_LIMIT_PER_MINUTE", 60)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "ACCOUNTS_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("GATEWAY_JWKS_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "ACCOUNTS_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("MAX_LOAD_AMOUNT_CENTAVOS")
	_ = viper.BindEnv("MAX_LOAD_AMOUNT")
	_ = viper.BindEnv("BALANCE_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("ACCOUNTS_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "monopatines:rate_limit"
	}

	// Allow specifying the load cap in whole currency units via MAX_LOAD_AMOUNT.
	if viper.IsSet("MAX_LOAD_AMOUNT") {
		capStr := strings.TrimSpace(viper.GetString("MAX_LOAD_AMOUNT"))
		if capStr != "" {
			capValue, parseErr := strconv.ParseFloat(capStr, 64)
			if parseErr != nil {
				log.Printf("level=warn component=config msg=\"invalid MAX_LOAD_AMOUNT\" value=%q err=%v", capStr, parseErr)
			} else {
				config.MaxLoadAmountCentavos = int64(math.Round(capValue * 100))
			}
		}
	}

	if config.MaxLoadAmountCentavos < 0 {
		log.Printf("level=warn component=config msg=\"negative load cap configured; disabling cap\" cap_centavos=%d", config.MaxLoadAmountCentavos)
		config.MaxLoadAmountCentavos = 0
	}

	if config.BalanceRateLimitPerMinute <= 0 {
		config.BalanceRateLimitPerMinute = 60
	}

	return
}
