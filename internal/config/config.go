package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type ObservationServiceConfig struct {
	Port        string
	PostgresCfg PostgresConfig
	RabbitMQCfg RabbitMQConfig
	RedisCfg    RedisConfig
	MinioCfg    MinioConfig
	LogCfg      LogConfig
	MetricsCfg  MetricsConfig
	WorkerCfg   WorkerConfig
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
	ResultsBucket  string
	Enabled        bool
}

type PostgresConfig struct {
	DBname         string
	Username       string
	Password       string
	Host           string
	Port           string
	MaxOpenConns   int
	RetryMaxElapse time.Duration
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	Enabled  bool
}

type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	DB         int
	ResultsTTL time.Duration
	Enabled    bool
}

type LogConfig struct {
	Dir        string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type MetricsConfig struct {
	Port string
}

type WorkerConfig struct {
	StartInterval time.Duration
	NumWorkers    int
	QueueSize     int
}

// New reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func New() *ObservationServiceConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	return &ObservationServiceConfig{
		Port: getEnvOrDefault("PORT", "8085"),
		PostgresCfg: PostgresConfig{
			DBname:         getEnvOrDefault("POSTGRES_DB", "observation_service"),
			Username:       getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password:       getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:           getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:           getEnvOrDefault("POSTGRES_PORT", "5432"),
			MaxOpenConns:   getEnvIntOrDefault("POSTGRES_MAX_OPEN_CONNS", 20),
			RetryMaxElapse: getEnvDurationOrDefault("POSTGRES_RETRY_MAX_ELAPSED", 10*time.Minute),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
			Enabled:  getEnvBoolOrDefault("RABBITMQ_ENABLED", true),
		},
		RedisCfg: RedisConfig{
			Host:       getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:       getEnvOrDefault("REDIS_PORT", "6379"),
			Password:   getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:         getEnvIntOrDefault("REDIS_DB", 0),
			ResultsTTL: getEnvDurationOrDefault("RESULTS_CACHE_TTL", 24*time.Hour),
			Enabled:    getEnvBoolOrDefault("REDIS_ENABLED", true),
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9407"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
			ResultsBucket:  getEnvOrDefault("MINIO_RESULTS_BUCKET", "observation-results"),
			Enabled:        getEnvBoolOrDefault("MINIO_ENABLED", true),
		},
		LogCfg: LogConfig{
			Dir:        getEnvOrDefault("LOG_DIR", "/agrisa/log/observation_service"),
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			MaxSizeMB:  getEnvIntOrDefault("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvIntOrDefault("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvIntOrDefault("LOG_MAX_AGE_DAYS", 14),
		},
		MetricsCfg: MetricsConfig{
			Port: getEnvOrDefault("METRICS_PORT", "9095"),
		},
		WorkerCfg: WorkerConfig{
			StartInterval: getEnvDurationOrDefault("OBSERVATION_START_INTERVAL", 15*time.Minute),
			NumWorkers:    getEnvIntOrDefault("OBSERVATION_START_WORKERS", 4),
			QueueSize:     getEnvIntOrDefault("OBSERVATION_START_QUEUE_SIZE", 100),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid boolean for %s: %q, using default %t", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
