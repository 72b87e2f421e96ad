package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"adinsight/internal/errors"
	"adinsight/internal/metrics"
)

// Config is the full application configuration. Defaults are overlaid by an
// optional YAML file; secrets come from the environment.
type Config struct {
	ConfidenceMin       float64 `yaml:"confidence_min"`
	RandomSeed          int64   `yaml:"random_seed"`
	TrendWindowDays     int     `yaml:"trend_window_days"`
	RecentDays          int     `yaml:"recent_days"`
	LongTrendWindowDays int     `yaml:"long_trend_window_days"`
	OutlierMethod       string  `yaml:"outlier_method"`
	MaxHypotheses       int     `yaml:"max_hypotheses"`
	MaxLowCTRCreatives  int     `yaml:"max_low_ctr_creatives"`
	CreativeIdeas       int     `yaml:"creative_ideas"`

	DataPath       string `yaml:"data_path"`
	SampleDataPath string `yaml:"sample_data_path"`
	UseSampleData  bool   `yaml:"use_sample_data"`
	LogsPath       string `yaml:"logs_path"`
	OutDir         string `yaml:"out_dir"`
	HTTPPort       string `yaml:"http_port"`

	OpenAI      OpenAIConfig `yaml:"openai"`
	DatabaseURL string       `yaml:"-"`
}

// OpenAIConfig holds the optional text-completion settings. The API key is
// never read from YAML.
type OpenAIConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	APIKey      string  `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ConfidenceMin:       0.6,
		RandomSeed:          42,
		TrendWindowDays:     7,
		RecentDays:          7,
		LongTrendWindowDays: 30,
		OutlierMethod:       string(metrics.MethodIQR),
		MaxHypotheses:       15,
		MaxLowCTRCreatives:  20,
		CreativeIdeas:       40,
		SampleDataPath:      "data/sample.csv",
		LogsPath:            "logs/traces.json",
		OutDir:              "reports",
		HTTPPort:            "8080",
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   500,
			Temperature: 0.3,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// present), and environment overrides, then validates it. A missing file for
// an empty path is fine; a named path that cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.Enabled = cfg.OpenAI.APIKey != ""
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.OpenAI.Model = model
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPPort = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on configuration that would otherwise surface
// mid-batch, before any rule executes.
func (c *Config) Validate() error {
	if _, err := metrics.ParseOutlierMethod(c.OutlierMethod); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if c.ConfidenceMin <= 0 || c.ConfidenceMin > 1 {
		return errors.ConfigInvalid("confidence_min must be in (0, 1]")
	}
	if c.TrendWindowDays < 1 || c.RecentDays < 1 || c.LongTrendWindowDays < 1 {
		return errors.ConfigInvalid("window day settings must be positive")
	}
	if c.LongTrendWindowDays < c.RecentDays {
		return errors.ConfigInvalid("long_trend_window_days must not be shorter than recent_days")
	}
	if c.MaxHypotheses < 1 {
		return errors.ConfigInvalid("max_hypotheses must be positive")
	}
	return nil
}

// Method returns the validated outlier method.
func (c *Config) Method() metrics.OutlierMethod {
	m, err := metrics.ParseOutlierMethod(c.OutlierMethod)
	if err != nil {
		return metrics.MethodIQR
	}
	return m
}
