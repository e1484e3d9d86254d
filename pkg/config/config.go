package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Snapshot source backends for MAR data.
const (
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
	SourceHTTP     = "http"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Mar       MarConfig
	Directory DirectoryConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the verification side of tokens issued by the ward identity service.
type JWTConfig struct {
	Enabled bool
	Secret  string
	Issuer  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MarConfig governs the MAR reporting engine.
type MarConfig struct {
	Source         string
	Timezone       string
	Location       *time.Location
	RedisKeyPrefix string
	ExportEnabled  bool
}

// DirectoryConfig points at the ward directory REST API used by the http source.
type DirectoryConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryCount int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	authDefault := cfg.Env != EnvDevelopment
	if v.IsSet("ENABLE_AUTH") {
		authDefault = v.GetBool("ENABLE_AUTH")
	}
	cfg.JWT = JWTConfig{
		Enabled: authDefault,
		Secret:  v.GetString("JWT_SECRET"),
		Issuer:  v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mar = MarConfig{
		Source:         strings.ToLower(strings.TrimSpace(v.GetString("MAR_SOURCE"))),
		Timezone:       v.GetString("MAR_TIMEZONE"),
		RedisKeyPrefix: v.GetString("MAR_REDIS_KEY_PREFIX"),
		ExportEnabled:  v.GetBool("ENABLE_MAR_EXPORT"),
	}
	switch cfg.Mar.Source {
	case SourcePostgres, SourceRedis, SourceHTTP:
	default:
		return nil, fmt.Errorf("unsupported MAR_SOURCE %q", cfg.Mar.Source)
	}
	loc, err := time.LoadLocation(cfg.Mar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load MAR_TIMEZONE %q: %w", cfg.Mar.Timezone, err)
	}
	cfg.Mar.Location = loc

	cfg.Directory = DirectoryConfig{
		BaseURL:    strings.TrimRight(v.GetString("WARD_DIRECTORY_URL"), "/"),
		Token:      v.GetString("WARD_DIRECTORY_TOKEN"),
		Timeout:    parseDuration(v.GetString("WARD_DIRECTORY_TIMEOUT"), 10*time.Second),
		RetryCount: v.GetInt("WARD_DIRECTORY_RETRIES"),
	}
	if cfg.Mar.Source == SourceHTTP && cfg.Directory.BaseURL == "" {
		return nil, errors.New("WARD_DIRECTORY_URL is required when MAR_SOURCE=http")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ward_mar")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAR_SOURCE", SourcePostgres)
	v.SetDefault("MAR_TIMEZONE", "UTC")
	v.SetDefault("MAR_REDIS_KEY_PREFIX", "mar")
	v.SetDefault("ENABLE_MAR_EXPORT", false)

	v.SetDefault("WARD_DIRECTORY_URL", "")
	v.SetDefault("WARD_DIRECTORY_TOKEN", "")
	v.SetDefault("WARD_DIRECTORY_TIMEOUT", "10s")
	v.SetDefault("WARD_DIRECTORY_RETRIES", 2)
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
