package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	HSCT     HSCTConfig     `yaml:"hsct" mapstructure:"hsct"`
	Collect  CollectConfig  `yaml:"collect" mapstructure:"collect"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RegistryConfig configures the business-registry API client.
type RegistryConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimitRPS  float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// HSCTConfig configures the hsctvn.com browser scraper.
type HSCTConfig struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	Headless        bool   `yaml:"headless" mapstructure:"headless"`
	SettleMillis    int    `yaml:"settle_millis" mapstructure:"settle_millis"`
	NavTimeoutSecs  int    `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
	ExecPath        string `yaml:"exec_path" mapstructure:"exec_path"`
	DisableSandbox  bool   `yaml:"disable_sandbox" mapstructure:"disable_sandbox"`
}

// CollectConfig configures collection runs.
type CollectConfig struct {
	PageSize           int     `yaml:"page_size" mapstructure:"page_size"`
	DetailDelaySecs    float64 `yaml:"detail_delay_secs" mapstructure:"detail_delay_secs"`
	SecondaryDelaySecs float64 `yaml:"secondary_delay_secs" mapstructure:"secondary_delay_secs"`
}

// ExportConfig configures spreadsheet export.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VNREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "companies.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("registry.base_url", "https://thongtindoanhnghiep.co")
	v.SetDefault("registry.timeout_secs", 30)
	v.SetDefault("registry.max_retries", 3)
	v.SetDefault("registry.rate_limit_rps", 1.0)
	v.SetDefault("registry.cache_ttl_hours", 24)
	v.SetDefault("hsct.base_url", "https://hsctvn.com")
	v.SetDefault("hsct.headless", true)
	v.SetDefault("hsct.settle_millis", 2000)
	v.SetDefault("hsct.nav_timeout_secs", 30)
	v.SetDefault("collect.page_size", 20)
	v.SetDefault("collect.detail_delay_secs", 0.5)
	v.SetDefault("collect.secondary_delay_secs", 2.0)
	v.SetDefault("export.output_dir", ".")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
