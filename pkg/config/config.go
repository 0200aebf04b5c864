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

// Media storage drivers.
const (
	MediaDriverLocal = "local"
	MediaDriverS3    = "s3"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	ShutdownTimeout time.Duration
	AutoMigrate     bool

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	CORS     CORSConfig
	Log      LogConfig
	Media    MediaConfig
	Results  ResultsConfig
	Mail     MailConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

// CookieConfig controls the session cookies issued on login.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Secure      bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MediaConfig selects the media backend and upload limits.
type MediaConfig struct {
	Driver           string
	LocalDir         string
	PublicBaseURL    string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	KeyPrefix        string
	MaxFileSizeBytes int64
	MaxImageWidth    int
	ThumbnailWidth   int
	WebPQuality      float32
}

// ResultsConfig tunes the results subsystem.
type ResultsConfig struct {
	PublicCacheTTL     time.Duration
	MarksheetSecret    string
	MarksheetTTL       time.Duration
	ImportMaxRows      int
	ImportMaxFileBytes int64
	SchoolName         string
}

// MailConfig configures outbound notifications.
type MailConfig struct {
	SendgridAPIKey  string
	FromName        string
	FromAddress     string
	StaffRecipients []string
	Workers         int
	MaxRetries      int
}

// CacheConfig governs cache TTLs for content endpoints.
type CacheConfig struct {
	DashboardTTL time.Duration
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)
	cfg.AutoMigrate = v.GetBool("AUTO_MIGRATE")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.Cookie = CookieConfig{
		AccessName:  v.GetString("SESSION_COOKIE_NAME"),
		RefreshName: v.GetString("REFRESH_COOKIE_NAME"),
		Domain:      v.GetString("COOKIE_DOMAIN"),
		Secure:      v.GetBool("COOKIE_SECURE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("MEDIA_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 8 * 1024 * 1024
	}
	cfg.Media = MediaConfig{
		Driver:           strings.ToLower(v.GetString("MEDIA_DRIVER")),
		LocalDir:         v.GetString("MEDIA_LOCAL_DIR"),
		PublicBaseURL:    strings.TrimRight(v.GetString("MEDIA_PUBLIC_BASE_URL"), "/"),
		S3Bucket:         v.GetString("MEDIA_S3_BUCKET"),
		S3Region:         v.GetString("MEDIA_S3_REGION"),
		S3Endpoint:       v.GetString("MEDIA_S3_ENDPOINT"),
		S3AccessKey:      v.GetString("MEDIA_S3_ACCESS_KEY"),
		S3SecretKey:      v.GetString("MEDIA_S3_SECRET_KEY"),
		KeyPrefix:        strings.Trim(v.GetString("MEDIA_KEY_PREFIX"), "/"),
		MaxFileSizeBytes: maxUpload,
		MaxImageWidth:    v.GetInt("MEDIA_MAX_IMAGE_WIDTH"),
		ThumbnailWidth:   v.GetInt("MEDIA_THUMBNAIL_WIDTH"),
		WebPQuality:      float32(v.GetFloat64("MEDIA_WEBP_QUALITY")),
	}

	cfg.Results = ResultsConfig{
		PublicCacheTTL:     parseDuration(v.GetString("RESULTS_PUBLIC_CACHE_TTL"), 15*time.Minute),
		MarksheetSecret:    v.GetString("RESULTS_MARKSHEET_SECRET"),
		MarksheetTTL:       parseDuration(v.GetString("RESULTS_MARKSHEET_TTL"), 30*time.Minute),
		ImportMaxRows:      v.GetInt("RESULTS_IMPORT_MAX_ROWS"),
		ImportMaxFileBytes: v.GetInt64("RESULTS_IMPORT_MAX_FILE_SIZE"),
		SchoolName:         v.GetString("SCHOOL_NAME"),
	}

	cfg.Mail = MailConfig{
		SendgridAPIKey:  v.GetString("SENDGRID_API_KEY"),
		FromName:        v.GetString("MAIL_FROM_NAME"),
		FromAddress:     v.GetString("MAIL_FROM_ADDRESS"),
		StaffRecipients: splitAndTrim(v.GetString("MAIL_STAFF_RECIPIENTS")),
		Workers:         v.GetInt("MAIL_WORKERS"),
		MaxRetries:      v.GetInt("MAIL_MAX_RETRIES"),
	}

	cfg.Cache = CacheConfig{
		DashboardTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 2*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("AUTO_MIGRATE", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "school-portal-api")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("SESSION_COOKIE_NAME", "session")
	v.SetDefault("REFRESH_COOKIE_NAME", "refresh_token")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MEDIA_DRIVER", MediaDriverLocal)
	v.SetDefault("MEDIA_LOCAL_DIR", "./uploads")
	v.SetDefault("MEDIA_PUBLIC_BASE_URL", "http://localhost:8080/uploads")
	v.SetDefault("MEDIA_S3_BUCKET", "")
	v.SetDefault("MEDIA_S3_REGION", "ap-south-1")
	v.SetDefault("MEDIA_S3_ENDPOINT", "")
	v.SetDefault("MEDIA_S3_ACCESS_KEY", "")
	v.SetDefault("MEDIA_S3_SECRET_KEY", "")
	v.SetDefault("MEDIA_KEY_PREFIX", "school")
	v.SetDefault("MEDIA_MAX_FILE_SIZE", 8*1024*1024)
	v.SetDefault("MEDIA_MAX_IMAGE_WIDTH", 1920)
	v.SetDefault("MEDIA_THUMBNAIL_WIDTH", 400)
	v.SetDefault("MEDIA_WEBP_QUALITY", 80)

	v.SetDefault("RESULTS_PUBLIC_CACHE_TTL", "15m")
	v.SetDefault("RESULTS_MARKSHEET_SECRET", "dev_marksheet_secret")
	v.SetDefault("RESULTS_MARKSHEET_TTL", "30m")
	v.SetDefault("RESULTS_IMPORT_MAX_ROWS", 2000)
	v.SetDefault("RESULTS_IMPORT_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("SCHOOL_NAME", "School")

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "School Office")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@example.com")
	v.SetDefault("MAIL_STAFF_RECIPIENTS", "")
	v.SetDefault("MAIL_WORKERS", 2)
	v.SetDefault("MAIL_MAX_RETRIES", 3)

	v.SetDefault("DASHBOARD_CACHE_TTL", "2m")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
