// Package config loads service configuration from environment variables.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/gazify-app/service-membership/internal/platform/database"
)

// KafkaConfig holds the Kafka connection settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
}

// TokenConfig holds the identifier tokenizer settings.
type TokenConfig struct {
	Secret  string
	Purpose string
}

// ScanConfig holds the expiration scan settings.
type ScanConfig struct {
	Hour     int
	Minute   int
	LeadDays int
}

// ServiceConfig holds all configuration for the membership service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    database.PostgresConfig
	KafkaConfig KafkaConfig
	RedisConfig RedisConfig
	TokenConfig TokenConfig
	ScanConfig  ScanConfig
	JWTSecret   string
}

// Load reads configuration from the environment and applies defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "membership")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "gazify-")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("TOKEN_PURPOSE", "subscriber-id")
	v.SetDefault("SCAN_HOUR", 14)
	v.SetDefault("SCAN_MINUTE", 0)
	v.SetDefault("EXPIRY_LEAD_DAYS", 5)

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		TokenConfig: TokenConfig{
			Secret:  v.GetString("TOKEN_SECRET"),
			Purpose: v.GetString("TOKEN_PURPOSE"),
		},
		ScanConfig: ScanConfig{
			Hour:     v.GetInt("SCAN_HOUR"),
			Minute:   v.GetInt("SCAN_MINUTE"),
			LeadDays: v.GetInt("EXPIRY_LEAD_DAYS"),
		},
		JWTSecret: v.GetString("JWT_SECRET"),
	}, nil
}
