package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Backend    BackendConfig
	Geocoder   GeocoderConfig
	Session    SessionConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Reconciler ReconcilerConfig
	Submission SubmissionConfig
	Media      MediaConfig
	Drafts     DraftsConfig
	Feed       FeedConfig
	Exports    ExportsConfig
}

// BackendConfig points at the marketplace REST API.
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

// GeocoderConfig points at the address resolution endpoint.
type GeocoderConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// SessionConfig locates the on-device auth token.
type SessionConfig struct {
	TokenPath string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReconcilerConfig tunes the review-status polling loop.
type ReconcilerConfig struct {
	PollInterval time.Duration
	ToastTTL     time.Duration
}

// SubmissionConfig tunes the background submission workers.
type SubmissionConfig struct {
	Workers    int
	BufferSize int
	MaxPhotos  int
}

// MediaConfig controls transient preview storage.
type MediaConfig struct {
	PreviewDir string
	PreviewTTL time.Duration
}

// DraftsConfig locates the local draft database.
type DraftsConfig struct {
	DBPath string
}

// FeedConfig governs public feed caching.
type FeedConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ExportsConfig controls summary export output.
type ExportsConfig struct {
	StorageDir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Backend = BackendConfig{
		BaseURL:        v.GetString("BACKEND_BASE_URL"),
		RequestTimeout: parseDuration(v.GetString("BACKEND_REQUEST_TIMEOUT"), 5*time.Second),
		UploadTimeout:  parseDuration(v.GetString("BACKEND_UPLOAD_TIMEOUT"), 30*time.Second),
	}

	cfg.Geocoder = GeocoderConfig{
		BaseURL:        v.GetString("GEOCODER_BASE_URL"),
		RequestTimeout: parseDuration(v.GetString("GEOCODER_REQUEST_TIMEOUT"), 5*time.Second),
	}

	cfg.Session = SessionConfig{
		TokenPath: v.GetString("SESSION_TOKEN_PATH"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Reconciler = ReconcilerConfig{
		PollInterval: parseDuration(v.GetString("RECONCILER_POLL_INTERVAL"), 12*time.Second),
		ToastTTL:     parseDuration(v.GetString("RECONCILER_TOAST_TTL"), 4*time.Second),
	}

	cfg.Submission = SubmissionConfig{
		Workers:    v.GetInt("SUBMISSION_WORKERS"),
		BufferSize: v.GetInt("SUBMISSION_BUFFER_SIZE"),
		MaxPhotos:  v.GetInt("SUBMISSION_MAX_PHOTOS"),
	}

	cfg.Media = MediaConfig{
		PreviewDir: v.GetString("MEDIA_PREVIEW_DIR"),
		PreviewTTL: parseDuration(v.GetString("MEDIA_PREVIEW_TTL"), 24*time.Hour),
	}

	cfg.Drafts = DraftsConfig{
		DBPath: v.GetString("DRAFTS_DB_PATH"),
	}

	cfg.Feed = FeedConfig{
		CacheEnabled: v.GetBool("FEED_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("FEED_CACHE_TTL"), time.Minute),
	}

	cfg.Exports = ExportsConfig{
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8475)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:3000/api/v1")
	v.SetDefault("BACKEND_REQUEST_TIMEOUT", "5s")
	v.SetDefault("BACKEND_UPLOAD_TIMEOUT", "30s")

	v.SetDefault("GEOCODER_BASE_URL", "http://localhost:3000/api/v1/geocode")
	v.SetDefault("GEOCODER_REQUEST_TIMEOUT", "5s")

	v.SetDefault("SESSION_TOKEN_PATH", "./.delegate/token")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RECONCILER_POLL_INTERVAL", "12s")
	v.SetDefault("RECONCILER_TOAST_TTL", "4s")

	v.SetDefault("SUBMISSION_WORKERS", 2)
	v.SetDefault("SUBMISSION_BUFFER_SIZE", 8)
	v.SetDefault("SUBMISSION_MAX_PHOTOS", 5)

	v.SetDefault("MEDIA_PREVIEW_DIR", "./.delegate/previews")
	v.SetDefault("MEDIA_PREVIEW_TTL", "24h")

	v.SetDefault("DRAFTS_DB_PATH", "./.delegate/drafts.db")

	v.SetDefault("FEED_CACHE_ENABLED", false)
	v.SetDefault("FEED_CACHE_TTL", "1m")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./.delegate/exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
