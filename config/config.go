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
	AppName       string
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Firebase      FirebaseConfig
	Session       SessionConfig
	Sarvam        SarvamConfig
	Gemini        GeminiConfig
	Uploads       UploadConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
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
	RunMigrations    bool
}

// FirebaseConfig holds the settings used to verify Firebase ID tokens
type FirebaseConfig struct {
	ProjectID   string
	JWKSURL     string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

// SessionConfig holds the shared secret and lifetime of issued session tokens
type SessionConfig struct {
	JWTSecret string
	TTL       time.Duration
}

// SarvamConfig holds the speech provider configuration
type SarvamConfig struct {
	APIKey         string
	APIKeys        string // comma-separated fallbacks
	BaseURL        string
	Timeout        time.Duration
	STTModel       string
	TranslateModel string
	TTSModel       string
	Speaker        string
	SpeakerGender  string
	Mode           string
}

// GeminiConfig holds the generative model configuration
type GeminiConfig struct {
	APIKey                 string
	APIKeys                string // comma-separated fallbacks
	BaseURL                string
	Model                  string
	EmbeddingModel         string
	FallbackEmbeddingModel string
	MaxAttempts            int
	Timeout                time.Duration
}

// UploadConfig bounds multipart uploads staged to disk
type UploadConfig struct {
	MaxBytes int64
	TempDir  string
}

// RateLimitConfig holds per-client inbound throttling
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel        string
	LogFormat       string // json or console
	TracingEnabled  bool
	TracingExporter string // stdout or otlp
	TracingEndpoint string
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getEnv("APP_NAME", "GramGyan Backend"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: loadDatabaseConfig(),
		Firebase: FirebaseConfig{
			ProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
			JWKSURL:     getEnv("FIREBASE_JWKS_URL", "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"),
			CacheTTL:    getEnvAsDuration("FIREBASE_JWKS_CACHE_TTL", time.Hour),
			HTTPTimeout: getEnvAsDuration("FIREBASE_HTTP_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			JWTSecret: getEnv("SESSION_JWT_SECRET", ""),
			TTL:       getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Sarvam: SarvamConfig{
			APIKey:         getEnv("SARVAM_API_KEY", ""),
			APIKeys:        getEnv("SARVAM_API_KEYS", ""),
			BaseURL:        getEnv("SARVAM_BASE_URL", "https://api.sarvam.ai"),
			Timeout:        getEnvAsDuration("SARVAM_TIMEOUT", 60*time.Second),
			STTModel:       getEnv("SARVAM_STT_MODEL", "saarika:v2.5"),
			TranslateModel: getEnv("SARVAM_TRANSLATE_MODEL", "mayura:v1"),
			TTSModel:       getEnv("SARVAM_TTS_MODEL", "bulbul:v3"),
			Speaker:        getEnv("SARVAM_TTS_SPEAKER", "kavitha"),
			SpeakerGender:  getEnv("SARVAM_SPEAKER_GENDER", "Female"),
			Mode:           getEnv("SARVAM_TRANSLATE_MODE", "formal"),
		},
		Gemini: GeminiConfig{
			APIKey:                 getEnv("GEMINI_API_KEY", ""),
			APIKeys:                getEnv("GEMINI_API_KEYS", ""),
			BaseURL:                getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:                  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbeddingModel:         getEnv("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),
			FallbackEmbeddingModel: getEnv("GEMINI_FALLBACK_EMBEDDING_MODEL", "embedding-001"),
			MaxAttempts:            getEnvAsInt("GEMINI_MAX_ATTEMPTS", 3),
			Timeout:                getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Uploads: UploadConfig{
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 25<<20)),
			TempDir:  getEnv("UPLOAD_DIR", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Observability: ObservabilityConfig{
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			LogFormat:       getEnv("LOG_FORMAT", "json"),
			TracingEnabled:  getEnvAsBool("TRACING_ENABLED", false),
			TracingExporter: getEnv("TRACING_EXPORTER", "stdout"),
			TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set.
// Missing provider keys and the session secret only fail startup in
// production; elsewhere the affected operations fail on first use.
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

	if c.Gemini.MaxAttempts < 0 {
		return fmt.Errorf("gemini max attempts must not be negative")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session TTL must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("rate limit requires positive RPS and burst")
	}
	if c.Observability.TracingEnabled {
		switch c.Observability.TracingExporter {
		case "stdout", "otlp":
		default:
			return fmt.Errorf("unknown tracing exporter %q", c.Observability.TracingExporter)
		}
	}

	if c.IsProduction() {
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project ID is required in production")
		}
		if c.Session.JWTSecret == "" {
			return fmt.Errorf("session JWT secret is required in production")
		}
		if c.Sarvam.APIKey == "" && strings.TrimSpace(c.Sarvam.APIKeys) == "" {
			return fmt.Errorf("at least one Sarvam API key is required in production")
		}
		if c.Gemini.APIKey == "" && strings.TrimSpace(c.Gemini.APIKeys) == "" {
			return fmt.Errorf("at least one Gemini API key is required in production")
		}
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

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
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

// LogString returns a safe string for logging (no password).
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
		ConnectionString: getEnv("DATABASE_URL", ""),
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		RunMigrations:    getEnvAsBool("DB_RUN_MIGRATIONS", true),
	}
	if cfg.ConnectionString != "" {
		return cfg
	}
	cfg.Host = getEnv("DB_HOST", "localhost")
	cfg.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.User = getEnv("DB_USER", "gramgyan")
	cfg.Password = getEnv("DB_PASSWORD", "")
	cfg.Database = getEnv("DB_NAME", "gramgyan")
	cfg.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8000
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
