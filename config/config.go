package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Token         TokenConfig
	Login         LoginConfig
	Upload        UploadConfig
	Storage       StorageConfig
	Chat          ChatConfig
	Activity      ActivityConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	// TrustProxy takes the client address from forwarding headers. Enable
	// only when a proxy in front overwrites them.
	TrustProxy bool
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	InitSchema       bool
}

// TokenConfig holds the signing secret and lifetime of access tokens.
// Changing Secret invalidates every token issued before the change.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// LoginConfig throttles failed logins per username and client address
type LoginConfig struct {
	MaxAttempts     int
	Window          time.Duration
	CleanupInterval time.Duration
}

// UploadConfig bounds multipart ingestion
type UploadConfig struct {
	MaxFileSize int64
}

// StorageConfig selects and configures the file store used for uploads
type StorageConfig struct {
	Driver               string // gcs or drive
	GCSBucket            string
	GCSCredentialsFile   string
	GCSPublicBaseURL     string
	DriveFolderID        string
	DriveCredentialsFile string
}

// ChatConfig configures the outbound chat webhook relay
type ChatConfig struct {
	WebhookURL string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// ActivityConfig sizes the asynchronous activity logger
type ActivityConfig struct {
	BufferSize  int
	WorkerCount int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://*"}),
			TrustProxy:      getEnvAsBool("TRUST_PROXY", false),
		},
		Database: loadDatabaseConfig(),
		Token: TokenConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
			Issuer: getEnv("JWT_ISSUER", "thesis-workflow"),
		},
		Login: LoginConfig{
			MaxAttempts:     getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			Window:          getEnvAsDuration("LOGIN_WINDOW", 15*time.Minute),
			CleanupInterval: getEnvAsDuration("LOGIN_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Upload: UploadConfig{
			MaxFileSize: int64(getEnvAsInt("UPLOAD_MAX_FILE_SIZE", 10<<20)),
		},
		Storage: StorageConfig{
			Driver:               strings.ToLower(getEnv("STORAGE_DRIVER", "gcs")),
			GCSBucket:            getEnv("GCS_BUCKET", ""),
			GCSCredentialsFile:   getEnv("GCS_CREDENTIALS_FILE", ""),
			GCSPublicBaseURL:     getEnv("GCS_PUBLIC_BASE_URL", "https://storage.googleapis.com"),
			DriveFolderID:        getEnv("DRIVE_FOLDER_ID", ""),
			DriveCredentialsFile: getEnv("DRIVE_CREDENTIALS_FILE", ""),
		},
		Chat: ChatConfig{
			WebhookURL: getEnv("CHAT_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("CHAT_TIMEOUT", 10*time.Second),
			MaxRetries: getEnvAsInt("CHAT_MAX_RETRIES", 2),
			RetryDelay: getEnvAsDuration("CHAT_RETRY_DELAY", 500*time.Millisecond),
		},
		Activity: ActivityConfig{
			BufferSize:  getEnvAsInt("ACTIVITY_BUFFER_SIZE", 1000),
			WorkerCount: getEnvAsInt("ACTIVITY_WORKERS", 2),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Token.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.Token.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.Token.Expiry <= 0 {
		return fmt.Errorf("token expiry must be positive")
	}

	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload max file size must be positive")
	}

	switch c.Storage.Driver {
	case "gcs":
		if c.IsProduction() && c.Storage.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required in production")
		}
	case "drive":
		if c.IsProduction() && c.Storage.DriveFolderID == "" {
			return fmt.Errorf("DRIVE_FOLDER_ID is required in production")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

func loadDatabaseConfig() DatabaseConfig {
	cfg := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		InitSchema:      getEnvAsBool("DB_INIT_SCHEMA", false),
	}
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		cfg.ConnectionString = dbURL
		return cfg
	}
	cfg.Host = getEnv("DB_HOST", "localhost")
	cfg.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.User = getEnv("DB_USER", "dev")
	cfg.Password = getEnv("DB_PASSWORD", "")
	cfg.Database = getEnv("DB_NAME", "thesis")
	cfg.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
