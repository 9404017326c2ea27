package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Charts ChartsConfig `yaml:"charts"`
	Loader LoaderConfig `yaml:"loader"`
	Logger LoggerConfig `yaml:"logger"`
}

type InputConfig struct {
	CSVFile string `yaml:"csv_file"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ChartsConfig is the explicit styling surface: theme and palette are
// passed into the renderer instead of being set as ambient state.
type ChartsConfig struct {
	Theme     string   `yaml:"theme"`
	Palette   []string `yaml:"palette"`
	TopN      int      `yaml:"top_n"`
	PageTitle string   `yaml:"page_title"`
}

type LoaderConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var defaultPalette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variable overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Input:  InputConfig{CSVFile: "online_retail_ii.csv"},
		Output: OutputConfig{Dir: "reports"},
		Charts: ChartsConfig{
			Theme:     "westeros",
			Palette:   defaultPalette,
			TopN:      10,
			PageTitle: "Retail Insights",
		},
		Loader: LoaderConfig{
			BatchSize: 10000,
			Workers:   10,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Input.CSVFile = getEnvString("INSIGHTS_CSV_FILE", cfg.Input.CSVFile)
	cfg.Output.Dir = getEnvString("INSIGHTS_OUT_DIR", cfg.Output.Dir)
	cfg.Charts.Theme = getEnvString("INSIGHTS_CHART_THEME", cfg.Charts.Theme)
	cfg.Charts.TopN = getEnvInt("INSIGHTS_TOP_N", cfg.Charts.TopN)
	cfg.Charts.PageTitle = getEnvString("INSIGHTS_PAGE_TITLE", cfg.Charts.PageTitle)
	cfg.Loader.BatchSize = getEnvInt("INSIGHTS_BATCH_SIZE", cfg.Loader.BatchSize)
	cfg.Loader.Workers = getEnvInt("INSIGHTS_WORKERS", cfg.Loader.Workers)
	cfg.Logger.Level = getEnvString("INSIGHTS_LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnvString("INSIGHTS_LOG_FORMAT", cfg.Logger.Format)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Input.CSVFile == "" {
		return fmt.Errorf("input CSV file path cannot be empty")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	if c.Charts.TopN < 1 {
		return fmt.Errorf("top-n must be positive, got %d", c.Charts.TopN)
	}

	if c.Loader.BatchSize < 1 {
		return fmt.Errorf("loader batch size must be positive, got %d", c.Loader.BatchSize)
	}

	if c.Loader.Workers < 1 {
		return fmt.Errorf("loader workers must be positive, got %d", c.Loader.Workers)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
