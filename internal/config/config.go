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
	SerpAPI SerpAPIConfig `yaml:"serpapi" mapstructure:"serpapi"`
	Secrets SecretsConfig `yaml:"secrets" mapstructure:"secrets"`
	Excel   ExcelConfig   `yaml:"excel" mapstructure:"excel"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SerpAPIConfig configures the search provider and quota handling.
type SerpAPIConfig struct {
	BaseURL       string   `yaml:"base_url" mapstructure:"base_url"`
	ResultCount   int      `yaml:"result_count" mapstructure:"result_count"`
	Language      string   `yaml:"language" mapstructure:"language"`
	Country       string   `yaml:"country" mapstructure:"country"`
	PhoneTerm     string   `yaml:"phone_term" mapstructure:"phone_term"`
	QuotaKeywords []string `yaml:"quota_keywords" mapstructure:"quota_keywords"`
	RatePerSec    float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// SecretsConfig locates the hosted secrets file. When the file is
// absent the key pool falls back to environment variables.
type SecretsConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// ExcelConfig describes the call-list workbook layout. Column indexes
// are zero-based.
type ExcelConfig struct {
	SheetName  string `yaml:"sheet_name" mapstructure:"sheet_name"`
	SubjectCol int    `yaml:"subject_col" mapstructure:"subject_col"`
	RegionCol  int    `yaml:"region_col" mapstructure:"region_col"`
	PhoneCol   int    `yaml:"phone_col" mapstructure:"phone_col"`
}

// OutputConfig holds the cell markers written for non-found outcomes.
type OutputConfig struct {
	NotFoundMarker   string `yaml:"not_found_marker" mapstructure:"not_found_marker"`
	ExhaustedMarker  string `yaml:"exhausted_marker" mapstructure:"exhausted_marker"`
	MissingKeyMarker string `yaml:"missing_key_marker" mapstructure:"missing_key_marker"`
	ErrorPrefix      string `yaml:"error_prefix" mapstructure:"error_prefix"`
}

// CacheConfig configures the local lookup cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the upload server.
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
	v.SetEnvPrefix("CALLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.result_count", 5)
	v.SetDefault("serpapi.language", "ja")
	v.SetDefault("serpapi.country", "jp")
	v.SetDefault("serpapi.phone_term", "電話番号")
	v.SetDefault("serpapi.quota_keywords", []string{"quota", "limit", "credits", "429", "run out of searches"})
	v.SetDefault("serpapi.rate_per_sec", 1.0)
	v.SetDefault("secrets.file", "secrets.yaml")
	v.SetDefault("excel.sheet_name", "架電リスト")
	v.SetDefault("excel.subject_col", 0)
	v.SetDefault("excel.region_col", 2)
	v.SetDefault("excel.phone_col", 10)
	v.SetDefault("output.not_found_marker", "見つかりませんでした")
	v.SetDefault("output.exhausted_marker", "APIクォータ超過")
	v.SetDefault("output.missing_key_marker", "APIキー未設定")
	v.SetDefault("output.error_prefix", "エラー: ")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "calllist-cache.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
