package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Ingest   IngestConfig
	Storage  StorageConfig
	SMTP     SMTPConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// IngestConfig defines inbound email pipeline parameters.
type IngestConfig struct {
	// MailDomain is the domain reply-to addresses are minted under,
	// e.g. "mail.example.com" for ticket-Abc123-reply@mail.example.com.
	MailDomain string
	// TicketScanCap bounds the short-id resolution scan.
	TicketScanCap int
	// FallbackNotifyEmail receives owner notifications for unassigned tickets.
	FallbackNotifyEmail string
	// HandshakeTimeoutSeconds bounds the subscription-confirmation GET.
	HandshakeTimeoutSeconds int
	// DedupTTLMinutes is how long processed provider message ids are remembered.
	DedupTTLMinutes int
}

// StorageConfig selects and configures the attachment object store.
type StorageConfig struct {
	// Backend is "filesystem" or "s3".
	Backend       string
	BasePath      string
	PublicBaseURL string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
	S3UseSSL      bool
}

// SMTPConfig holds outbound notification mail settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "mailroom"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 25),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Ingest: IngestConfig{
			MailDomain:              getEnv("INGEST_MAIL_DOMAIN", "mail.example.com"),
			TicketScanCap:           getEnvAsInt("INGEST_TICKET_SCAN_CAP", 500),
			FallbackNotifyEmail:     getEnv("INGEST_FALLBACK_NOTIFY_EMAIL", ""),
			HandshakeTimeoutSeconds: getEnvAsInt("INGEST_HANDSHAKE_TIMEOUT_SECONDS", 10),
			DedupTTLMinutes:         getEnvAsInt("INGEST_DEDUP_TTL_MINUTES", 1440),
		},
		Storage: StorageConfig{
			Backend:       getEnv("STORAGE_BACKEND", "filesystem"),
			BasePath:      getEnv("STORAGE_BASE_PATH", "./data/attachments"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/attachments"),
			S3Endpoint:    os.Getenv("STORAGE_S3_ENDPOINT"),
			S3AccessKey:   os.Getenv("STORAGE_S3_ACCESS_KEY"),
			S3SecretKey:   os.Getenv("STORAGE_S3_SECRET_KEY"),
			S3Bucket:      getEnv("STORAGE_S3_BUCKET", "ticket-attachments"),
			S3UseSSL:      getEnvAsBool("STORAGE_S3_USE_SSL", true),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// HandshakeTimeout bounds the one-time subscription confirmation callback.
func (i IngestConfig) HandshakeTimeout() time.Duration {
	if i.HandshakeTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(i.HandshakeTimeoutSeconds) * time.Second
}

// DedupTTL returns how long processed message ids are retained.
func (i IngestConfig) DedupTTL() time.Duration {
	if i.DedupTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(i.DedupTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
