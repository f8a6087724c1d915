package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Remote    RemoteConfig
	Cache     CacheConfig
	Storage   StorageConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Places    PlacesConfig
	Mail      MailConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// RemoteConfig selects the document store. Driver is "firestore" or "memory".
type RemoteConfig struct {
	Driver          string
	ProjectID       string
	CredentialsFile string
}

// CacheConfig describes the local relational cache. Driver is "sqlite" or "postgres".
type CacheConfig struct {
	Driver        string
	Path          string
	DSN           string
	SchemaVersion int
}

// StorageConfig selects the blob store. Driver is "s3" or "memory".
type StorageConfig struct {
	Driver string
	S3     S3Config
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig is optional; an empty Host disables token revocation and password reset.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type PlacesConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// MailConfig configures outgoing SMTP mail. An empty Email logs messages instead of sending.
type MailConfig struct {
	Host          string
	Port          string
	Email         string
	Password      string
	ResetURL      string
	ResetTokenTTL time.Duration
}

type SchedulerConfig struct {
	FeedSyncSpec     string
	FeedSyncPageSize int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ReadTimeout:     parseDuration(getEnv("SERVER_READ_TIMEOUT", "15s"), 15*time.Second),
			WriteTimeout:    parseDuration(getEnv("SERVER_WRITE_TIMEOUT", "30s"), 30*time.Second),
			ShutdownTimeout: parseDuration(getEnv("SERVER_SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Remote: RemoteConfig{
			Driver:          getEnv("REMOTE_DRIVER", "firestore"),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		Cache: CacheConfig{
			Driver:        getEnv("CACHE_DRIVER", "sqlite"),
			Path:          getEnv("CACHE_PATH", "tasteclub_cache.db"),
			DSN:           getEnv("CACHE_DSN", ""),
			SchemaVersion: parseInt(getEnv("CACHE_SCHEMA_VERSION", "3"), 3),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "s3"),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "eu-central-1"),
				Bucket:          getEnv("AWS_S3_BUCKET", "tasteclub-images"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
			},
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Places: PlacesConfig{
			APIKey:  getEnv("PLACES_API_KEY", ""),
			BaseURL: getEnv("PLACES_BASE_URL", "https://places.googleapis.com/v1"),
			Timeout: parseDuration(getEnv("PLACES_TIMEOUT", "10s"), 10*time.Second),
		},
		Mail: MailConfig{
			Host:          getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:          getEnv("SMTP_PORT", "587"),
			Email:         getEnv("SMTP_EMAIL", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			ResetURL:      getEnv("PASSWORD_RESET_URL", "http://localhost:3000/reset-password"),
			ResetTokenTTL: parseDuration(getEnv("PASSWORD_RESET_TTL", "30m"), 30*time.Minute),
		},
		Scheduler: SchedulerConfig{
			FeedSyncSpec:     getEnv("FEED_SYNC_SPEC", "@every 5m"),
			FeedSyncPageSize: parseInt(getEnv("FEED_SYNC_PAGE_SIZE", "10"), 10),
		},
	}

	if config.Log.Format == "" {
		config.Log.Format = "json"
		if config.Server.Environment == "development" {
			config.Log.Format = "console"
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects combinations that cannot start the service.
func (c *Config) Validate() error {
	switch c.Remote.Driver {
	case "firestore":
		if c.Remote.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore remote driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown REMOTE_DRIVER %q", c.Remote.Driver)
	}

	switch c.Cache.Driver {
	case "sqlite":
	case "postgres":
		if c.Cache.DSN == "" {
			return fmt.Errorf("CACHE_DSN is required for the postgres cache driver")
		}
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.Cache.Driver)
	}

	switch c.Storage.Driver {
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required for the s3 storage driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Cache.SchemaVersion < 1 {
		return fmt.Errorf("CACHE_SCHEMA_VERSION must be positive")
	}
	return nil
}

// Addr returns host:port, or "" when Redis is not configured.
func (c *RedisConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
