package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	OIDC        OIDCConfig
	JWT         JWTConfig
	RateLimit   RateLimitConfig
	Translation TranslationConfig
	MinIO       MinIOConfig
	CORS        CORSConfig
	History     HistoryConfig
	Seed        SeedConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// MongoDBConfig: an empty URI selects the in-memory stores.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// OIDCConfig enables verification of externally issued ID tokens next to
// locally issued access tokens.
type OIDCConfig struct {
	IssuerURL string
	ClientID  string
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type TranslationConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Timeout     time.Duration
	Concurrency int
	CacheTTL    time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string

	// MaxUploadBytes caps a single media upload.
	MaxUploadBytes int64
}

type CORSConfig struct {
	AllowedOrigins []string
}

type HistoryConfig struct {
	ReconcileInterval time.Duration
}

type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("MONGODB_DATABASE", "pmr_atlas")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 60*24)
	v.SetDefault("JWT_REFRESH_TOKEN_TTL", 60*24*7)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("TRANSLATION_MODEL", "claude-sonnet-4-5")
	v.SetDefault("TRANSLATION_MAX_TOKENS", 4096)
	v.SetDefault("TRANSLATION_TIMEOUT", 60)
	v.SetDefault("TRANSLATION_CONCURRENCY", 4)
	v.SetDefault("TRANSLATION_CACHE_TTL", 60*24)
	v.SetDefault("MINIO_BUCKET", "pmr-media")
	v.SetDefault("MEDIA_MAX_UPLOAD_MB", 25)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("HISTORY_RECONCILE_INTERVAL", 30)
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@pmr.edu")
	v.SetDefault("SEED_ADMIN_NAME", "Admin User")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		OIDC: OIDCConfig{
			IssuerURL: v.GetString("OIDC_ISSUER_URL"),
			ClientID:  v.GetString("OIDC_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Translation: TranslationConfig{
			APIKey:      os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:     v.GetString("ANTHROPIC_BASE_URL"),
			Model:       v.GetString("TRANSLATION_MODEL"),
			MaxTokens:   v.GetInt64("TRANSLATION_MAX_TOKENS"),
			Timeout:     time.Duration(v.GetInt("TRANSLATION_TIMEOUT")) * time.Second,
			Concurrency: v.GetInt("TRANSLATION_CONCURRENCY"),
			CacheTTL:    time.Duration(v.GetInt("TRANSLATION_CACHE_TTL")) * time.Minute,
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),

			MaxUploadBytes: v.GetInt64("MEDIA_MAX_UPLOAD_MB") << 20,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		History: HistoryConfig{
			ReconcileInterval: time.Duration(v.GetInt("HISTORY_RECONCILE_INTERVAL")) * time.Second,
		},
		Seed: SeedConfig{
			AdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
			AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
			AdminName:     v.GetString("SEED_ADMIN_NAME"),
		},
	}

	if cfg.Translation.Concurrency < 1 {
		return nil, fmt.Errorf("TRANSLATION_CONCURRENCY must be >= 1, got %d", cfg.Translation.Concurrency)
	}
	if cfg.JWT.Secret == "" && cfg.Server.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	return cfg, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
