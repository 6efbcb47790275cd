package config

import (
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName           string `mapstructure:"SERVICE_NAME"`
	GRPCPort              string `mapstructure:"GRPC_PORT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDatabase         string `mapstructure:"MONGO_DATABASE"`
	RedisAddr             string `mapstructure:"REDIS_ADDR"`
	NATSURL               string `mapstructure:"NATS_URL"`
	MinIOEndpoint         string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey        string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey        string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket           string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL           bool   `mapstructure:"MINIO_USE_SSL"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	OTLPEndpoint          string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables, with defaults
// suitable for local development.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	viper.SetDefault("SERVICE_NAME", "listing-service")
	viper.SetDefault("GRPC_PORT", "50052")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "marketplace_listings")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	viper.SetDefault("MINIO_BUCKET", "listing-photos")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("PROMETHEUS_METRICS_PORT", "9092")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}

	if cfg.JWTSecret == "" {
		appLogger.Warn("JWT_SECRET is empty; all authenticated RPCs will be rejected")
	}
	if cfg.MongoURI == "" {
		appLogger.Fatal("MONGO_URI is not set. This is required.")
	}
	if cfg.MongoDatabase == "" {
		appLogger.Fatal("MONGO_DATABASE is not set. This is required.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.Bool("mongo_uri_present", cfg.MongoURI != ""),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("minio_endpoint", cfg.MinIOEndpoint),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
		zap.String("otel_endpoint", cfg.OTLPEndpoint),
	)

	return &cfg, nil
}
