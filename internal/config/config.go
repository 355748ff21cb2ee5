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
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the banking-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	JWTSecret                  string `mapstructure:"JWT_SECRET"`
	MailAPIBaseURL             string `mapstructure:"MAIL_API_BASE_URL"`
	MailAPIKey                 string `mapstructure:"MAIL_API_KEY"`
	MailSenderAddress          string `mapstructure:"MAIL_SENDER_ADDRESS"`
	MailEventQueue             string `mapstructure:"MAIL_EVENT_QUEUE"`
	HistoryCacheTTLSeconds     int    `mapstructure:"HISTORY_CACHE_TTL_SECONDS"`
	HistoryCacheLimit          int    `mapstructure:"HISTORY_CACHE_LIMIT"`
	VerificationCodeTTLMinutes int    `mapstructure:"VERIFICATION_CODE_TTL_MINUTES"`
	AccessTokenTTLMinutes      int    `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
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
	viper.SetDefault("MAIL_EVENT_QUEUE", "banking_service.verification_mail")
	viper.SetDefault("MAIL_SENDER_ADDRESS", "no-reply@corebank.dev")
	viper.SetDefault("HISTORY_CACHE_TTL_SECONDS", 3600)
	viper.SetDefault("HISTORY_CACHE_LIMIT", 10)
	viper.SetDefault("VERIFICATION_CODE_TTL_MINUTES", 15)
	viper.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 15)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "BANKING_REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("JWT_SECRET", "JWT_SECRET", "BANKING_SERVICE_JWT_SECRET")
	_ = viper.BindEnv("MAIL_API_BASE_URL")
	_ = viper.BindEnv("MAIL_API_KEY")
	_ = viper.BindEnv("MAIL_SENDER_ADDRESS")
	_ = viper.BindEnv("MAIL_EVENT_QUEUE")
	_ = viper.BindEnv("HISTORY_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("HISTORY_CACHE_LIMIT")
	_ = viper.BindEnv("VERIFICATION_CODE_TTL_MINUTES")
	_ = viper.BindEnv("ACCESS_TOKEN_TTL_MINUTES")

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
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.JWTSecret = strings.TrimSpace(config.JWTSecret)
	if config.JWTSecret == "" {
		config.JWTSecret = strings.TrimSpace(os.Getenv("BANKING_SERVICE_JWT_SECRET"))
	}

	if config.HistoryCacheTTLSeconds <= 0 {
		config.HistoryCacheTTLSeconds = 3600
	}
	if config.HistoryCacheLimit <= 0 {
		config.HistoryCacheLimit = 10
	}
	if config.VerificationCodeTTLMinutes <= 0 {
		config.VerificationCodeTTLMinutes = 15
	}
	if config.AccessTokenTTLMinutes <= 0 {
		config.AccessTokenTTLMinutes = 15
	}

	return
}
