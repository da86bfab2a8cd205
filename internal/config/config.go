package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Tracing      TracingConfig `mapstructure:"tracing"`
	Redis        RedisConfig
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Scoring      ScoringConfig      `mapstructure:"scoring"`
	Report       ReportConfig       `mapstructure:"report"`
	Notification NotificationConfig `mapstructure:"notification"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
}

// ScoringConfig 评分量表与分档阈值
type ScoringConfig struct {
	Min           int                          `mapstructure:"min"`
	Max           int                          `mapstructure:"max"`
	DefaultPreset string                       `mapstructure:"default_preset"`
	Presets       map[string][]ThresholdConfig `mapstructure:"presets"`
}

type ThresholdConfig struct {
	Min   int    `mapstructure:"min"`
	Label string `mapstructure:"label"`
}

// ReportConfig 报告生成配置
type ReportConfig struct {
	Platform     string                 `mapstructure:"platform"`
	DefaultTheme string                 `mapstructure:"default_theme"`
	CacheTTL     time.Duration          `mapstructure:"cache_ttl"`
	Renderer     RendererConfig         `mapstructure:"renderer"`
	Themes       map[string]ThemeConfig `mapstructure:"themes"`
}

type RendererConfig struct {
	Type      string        `mapstructure:"type"` // html, remote
	RemoteURL string        `mapstructure:"remote_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ThemeConfig struct {
	LevelName            string            `mapstructure:"level_name"`
	CoverTitle           string            `mapstructure:"cover_title"`
	CoverSubtitle        string            `mapstructure:"cover_subtitle"`
	DetailsHeading       string            `mapstructure:"details_heading"`
	DetailsIntro         string            `mapstructure:"details_intro"`
	SummaryHeading       string            `mapstructure:"summary_heading"`
	ContinuationHeading  string            `mapstructure:"continuation_heading"`
	InterpretationNote   string            `mapstructure:"interpretation_note"`
	QuestionHeading      string            `mapstructure:"question_heading"`
	ClosingHeading       string            `mapstructure:"closing_heading"`
	ClosingText          string            `mapstructure:"closing_text"`
	FirstPageCapacity    int               `mapstructure:"first_page_capacity"`
	OverflowPageCapacity int               `mapstructure:"overflow_page_capacity"`
	AnswerModeIcons      map[string]string `mapstructure:"answer_mode_icons"`
	ThresholdPreset      string            `mapstructure:"threshold_preset"`
}

type NotificationConfig struct {
	Channel   string        `mapstructure:"channel"`
	DedupeTTL time.Duration `mapstructure:"dedupe_ttl"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("REVIEW")
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Report renderer
	v.BindEnv("report.renderer.remote_url", "RENDERER_URL")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("scoring.min", 350)
	v.SetDefault("scoring.max", 900)
	v.SetDefault("scoring.default_preset", "standard")
	v.SetDefault("report.platform", "SelfAssess")
	v.SetDefault("report.default_theme", "level1")
	v.SetDefault("report.cache_ttl", 10*time.Minute)
	v.SetDefault("report.renderer.type", "html")
	v.SetDefault("report.renderer.timeout", 30*time.Second)
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("notification.channel", "review.complete")
	v.SetDefault("notification.dedupe_ttl", 30*24*time.Hour)
}

// Validate 校验评分与报告配置。页容量为 0 属于配置错误，而非运行时情形。
func (c *Config) Validate() error {
	if c.Scoring.Min >= c.Scoring.Max {
		return fmt.Errorf("scoring: min (%d) must be below max (%d)", c.Scoring.Min, c.Scoring.Max)
	}
	if len(c.Scoring.Presets) == 0 {
		return errors.New("scoring: at least one threshold preset is required")
	}
	if _, ok := c.Scoring.Presets[c.Scoring.DefaultPreset]; !ok {
		return fmt.Errorf("scoring: default preset %q is not defined", c.Scoring.DefaultPreset)
	}
	for name, bands := range c.Scoring.Presets {
		if len(bands) == 0 {
			return fmt.Errorf("scoring: preset %q has no bands", name)
		}
	}
	if len(c.Report.Themes) == 0 {
		return errors.New("report: at least one theme is required")
	}
	if _, ok := c.Report.Themes[c.Report.DefaultTheme]; !ok {
		return fmt.Errorf("report: default theme %q is not defined", c.Report.DefaultTheme)
	}
	for name, t := range c.Report.Themes {
		if t.FirstPageCapacity < 1 || t.OverflowPageCapacity < 1 {
			return fmt.Errorf("report: theme %q page capacities must be >= 1", name)
		}
		if t.ThresholdPreset != "" {
			if _, ok := c.Scoring.Presets[t.ThresholdPreset]; !ok {
				return fmt.Errorf("report: theme %q references unknown preset %q", name, t.ThresholdPreset)
			}
		}
	}
	if c.Report.Renderer.Type == "remote" && c.Report.Renderer.RemoteURL == "" {
		return errors.New("report: remote renderer requires remote_url")
	}
	return nil
}
