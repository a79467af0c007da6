package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/code-100-precent/LingVoice/pkg/cache"
	"github.com/code-100-precent/LingVoice/pkg/embedding"
	"github.com/code-100-precent/LingVoice/pkg/enrollment"
	"github.com/code-100-precent/LingVoice/pkg/logger"
	"github.com/code-100-precent/LingVoice/pkg/matcher"
	"github.com/code-100-precent/LingVoice/pkg/voiceauth"
	"github.com/code-100-precent/LingVoice/pkg/voiceclone"
)

// Config main configuration structure
type Config struct {
	Server     ServerConfig          `mapstructure:"server"`
	Database   DatabaseConfig        `mapstructure:"database"`
	Log        logger.LogConfig      `mapstructure:"log"`
	Cache      cache.Config          `mapstructure:"cache"`
	Model      embedding.Config      `mapstructure:"model"`
	Enrollment enrollment.Config     `mapstructure:"enrollment"`
	Matcher    matcher.Config        `mapstructure:"matcher"`
	Token      voiceauth.TokenConfig `mapstructure:"token"`
	Clone      voiceclone.Config     `mapstructure:"clone"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Name      string `env:"SERVER_NAME"`
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`
	// MaxUploadMB 上传音频大小上限（MB）
	MaxUploadMB int64 `env:"MAX_UPLOAD_MB"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER"`
	DSN    string `env:"DSN"`
}

var GlobalConfig *Config

// Load 从环境和 .env 文件加载全局配置
func Load() error {
	env := os.Getenv("APP_ENV")
	filename := ".env"
	if env != "" {
		filename = ".env." + env
	}
	if err := godotenv.Load(filename); err != nil {
		// .env 缺失不影响启动，全部走默认值
		log.Printf("Note: %s not found or failed to load: %v (using default values)", filename, err)
	}

	GlobalConfig = &Config{
		Server: ServerConfig{
			Name:        getStringOrDefault("SERVER_NAME", "lingvoice"),
			Addr:        getStringOrDefault("ADDR", ":7073"),
			Mode:        getStringOrDefault("MODE", "development"),
			APIPrefix:   getStringOrDefault("API_PREFIX", "/api"),
			MaxUploadMB: cast.ToInt64(getStringOrDefault("MAX_UPLOAD_MB", "32")),
		},
		Database: DatabaseConfig{
			Driver: getStringOrDefault("DB_DRIVER", "sqlite"),
			DSN:    getStringOrDefault("DSN", "./lingvoice.db"),
		},
		Log: logger.LogConfig{
			Level:      getStringOrDefault("LOG_LEVEL", "info"),
			Filename:   getStringOrDefault("LOG_FILENAME", "./logs/app.log"),
			MaxSize:    getIntOrDefault("LOG_MAX_SIZE", 100),
			MaxAge:     getIntOrDefault("LOG_MAX_AGE", 30),
			MaxBackups: getIntOrDefault("LOG_MAX_BACKUPS", 5),
			Daily:      getBoolOrDefault("LOG_DAILY", true),
		},
		Cache: loadCacheConfig(),
		Model: embedding.Config{
			BaseURL:   getStringOrDefault("MODEL_BASE_URL", "http://localhost:8501"),
			Dimension: getIntOrDefault("MODEL_DIMENSION", 1024),
			Timeout:   parseDuration(getStringOrDefault("MODEL_TIMEOUT", "60s"), 60*time.Second),
		},
		Enrollment: enrollment.Config{
			Backend:   getStringOrDefault("ENROLLMENT_BACKEND", enrollment.BackendFile),
			Dir:       getStringOrDefault("ENROLLMENT_DIR", "data/embed"),
			Dimension: getIntOrDefault("ENROLLMENT_DIMENSION", getIntOrDefault("MODEL_DIMENSION", 1024)),
		},
		Matcher: matcher.Config{
			Metric:           matcher.Metric(getStringOrDefault("MATCHER_METRIC", string(matcher.MetricEuclidean))),
			Epsilon:          getFloatOrDefault("MATCHER_EPSILON", matcher.DefaultEpsilon),
			GeneralThreshold: getFloatOrDefault("MATCHER_GENERAL_THRESHOLD", matcher.DefaultGeneralThreshold),
		},
		Token: voiceauth.TokenConfig{
			Secret: getStringOrDefault("AUTH_TOKEN_SECRET", "lingvoice-dev-secret"),
			TTL:    parseDuration(getStringOrDefault("AUTH_TOKEN_TTL", "10m"), 10*time.Minute),
		},
		Clone: voiceclone.Config{
			Enabled:      getBoolOrDefault("CLONE_ENABLED", false),
			SynthesisURL: getStringOrDefault("CLONE_SYNTHESIS_URL", "http://localhost:8502"),
			TextGenURL:   getStringOrDefault("CLONE_TEXTGEN_URL", "http://localhost:8503"),
			Timeout:      parseDuration(getStringOrDefault("CLONE_TIMEOUT", "120s"), 120*time.Second),
		},
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address is required")
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN is required")
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if err := c.Matcher.Validate(); err != nil {
		return err
	}
	if err := c.Token.Validate(); err != nil {
		return err
	}
	if err := c.Clone.Validate(); err != nil {
		return err
	}
	if c.Enrollment.Dimension != c.Model.Dimension {
		return errors.New("enrollment dimension must match model dimension")
	}
	return nil
}

// getStringOrDefault gets environment variable value, returns default if empty
func getStringOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getBoolOrDefault gets boolean environment variable value, returns default if empty
func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return cast.ToBool(value)
}

// getIntOrDefault gets integer environment variable value, returns default if empty
func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return cast.ToInt(value)
}

// getFloatOrDefault gets float environment variable value, returns default if empty
func getFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return defaultValue
	}
	return f
}

// parseDuration parses duration string with default fallback
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// loadCacheConfig loads cache configuration with all default values
func loadCacheConfig() cache.Config {
	return cache.Config{
		Type: getStringOrDefault("CACHE_TYPE", "local"),
		Redis: cache.RedisConfig{
			Addr:         getStringOrDefault("REDIS_ADDR", "localhost:6379"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           getIntOrDefault("REDIS_DB", 0),
			PoolSize:     getIntOrDefault("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntOrDefault("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  parseDuration(os.Getenv("REDIS_DIAL_TIMEOUT"), 5*time.Second),
			ReadTimeout:  parseDuration(os.Getenv("REDIS_READ_TIMEOUT"), 3*time.Second),
			WriteTimeout: parseDuration(os.Getenv("REDIS_WRITE_TIMEOUT"), 3*time.Second),
			IdleTimeout:  parseDuration(os.Getenv("REDIS_IDLE_TIMEOUT"), 5*time.Minute),
		},
		Local: cache.LocalConfig{
			MaxSize:           getIntOrDefault("LOCAL_CACHE_MAX_SIZE", 1000),
			DefaultExpiration: parseDuration(os.Getenv("LOCAL_CACHE_DEFAULT_EXPIRATION"), 5*time.Minute),
			CleanupInterval:   parseDuration(os.Getenv("LOCAL_CACHE_CLEANUP_INTERVAL"), 10*time.Minute),
		},
	}
}
