// Package cfg loads service configuration from a YAML file selected by
// CONFIG_FILE, with environment-variable overrides, falling back to an
// env-only mode when no file is set.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ModelSpec struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

type Settings struct {
	Models             []ModelSpec
	AgreementTolerance float64
	MarginTolerance    float64
	ServerPort         int
	MetricsPort        int
	DataPath           string
	FeedBaseURL        string
	FeedWsURL          string
	RequestTimeout     time.Duration
	PingInterval       time.Duration
	Season             int
}

type ConfigFile struct {
	Models []ModelSpec `yaml:"models"`

	Ensemble struct {
		AgreementTolerance float64 `yaml:"agreementTolerance"`
		MarginTolerance    float64 `yaml:"marginTolerance"`
	} `yaml:"ensemble"`

	Feed struct {
		BaseURL        string `yaml:"baseURL"`
		WsURL          string `yaml:"wsURL"`
		RequestTimeout string `yaml:"requestTimeout"`
		PingInterval   string `yaml:"pingInterval"`
		Season         int    `yaml:"season"`
	} `yaml:"feed"`

	System struct {
		ServerPort  int    `yaml:"serverPort"`
		MetricsPort int    `yaml:"metricsPort"`
		DataPath    string `yaml:"dataPath"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	requestTimeout, err := time.ParseDuration(config.Feed.RequestTimeout)
	if err != nil {
		requestTimeout = 5 * time.Second
	}

	ping, err := time.ParseDuration(config.Feed.PingInterval)
	if err != nil {
		ping = 15 * time.Second
	}

	settings := Settings{
		Models:             modelsFromEnvOrConfig(config.Models),
		AgreementTolerance: getFloatFromEnvOrConfig("AGREEMENT_TOLERANCE", config.Ensemble.AgreementTolerance, 0.15),
		MarginTolerance:    getFloatFromEnvOrConfig("MARGIN_TOLERANCE", config.Ensemble.MarginTolerance, 7.0),
		ServerPort:         getIntFromEnvOrConfig("SERVER_PORT", config.System.ServerPort, 8090),
		MetricsPort:        getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 8080),
		DataPath:           getEnvOrDefault("DATA_PATH", config.System.DataPath),
		FeedBaseURL:        getEnvOrDefault("FEED_BASE_URL", config.Feed.BaseURL),
		FeedWsURL:          getEnvOrDefault("FEED_WS_URL", config.Feed.WsURL),
		RequestTimeout:     requestTimeout,
		PingInterval:       ping,
		Season:             getIntFromEnvOrConfig("SEASON", config.Feed.Season, time.Now().Year()),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	models, err := parseModelsEnv(os.Getenv("MODELS"))
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		Models:             models,
		AgreementTolerance: getFloatOrDefault("AGREEMENT_TOLERANCE", 0.15),
		MarginTolerance:    getFloatOrDefault("MARGIN_TOLERANCE", 7.0),
		ServerPort:         getIntOrDefault("SERVER_PORT", 8090),
		MetricsPort:        getIntOrDefault("METRICS_PORT", 8080),
		DataPath:           os.Getenv("DATA_PATH"), // optional
		FeedBaseURL:        os.Getenv("FEED_BASE_URL"),
		FeedWsURL:          os.Getenv("FEED_WS_URL"),
		RequestTimeout:     getDurationOrDefault("REQUEST_TIMEOUT", 5*time.Second),
		PingInterval:       getDurationOrDefault("PING_INTERVAL", 15*time.Second),
		Season:             getIntOrDefault("SEASON", time.Now().Year()),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// parseModelsEnv parses the MODELS variable, a comma-separated list of
// id=path pairs, e.g.
// "margin_regressor=artifacts/margin.json,home_win_neural=artifacts/nn.json".
func parseModelsEnv(v string) ([]ModelSpec, error) {
	if v == "" {
		return nil, fmt.Errorf("MODELS environment variable is required when no config file is set")
	}
	var specs []ModelSpec
	for _, pair := range strings.Split(v, ",") {
		id, path, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || id == "" || path == "" {
			return nil, fmt.Errorf("invalid MODELS entry %q, want id=path", pair)
		}
		specs = append(specs, ModelSpec{ID: id, Path: path})
	}
	return specs, nil
}

func modelsFromEnvOrConfig(configModels []ModelSpec) []ModelSpec {
	if env := os.Getenv("MODELS"); env != "" {
		if specs, err := parseModelsEnv(env); err == nil {
			return specs
		}
	}
	return configModels
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs range checks on every configured value.
func validateSettings(settings *Settings) error {
	if len(settings.Models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}
	seen := make(map[string]struct{}, len(settings.Models))
	for _, m := range settings.Models {
		if m.ID == "" {
			return fmt.Errorf("model spec has an empty identifier")
		}
		if m.Path == "" {
			return fmt.Errorf("model %s: path cannot be empty", m.ID)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("model %s is configured twice", m.ID)
		}
		seen[m.ID] = struct{}{}
	}

	if settings.AgreementTolerance <= 0 || settings.AgreementTolerance >= 1 {
		return fmt.Errorf("agreement tolerance must be between 0 and 1, got %f", settings.AgreementTolerance)
	}
	if settings.MarginTolerance <= 0 || settings.MarginTolerance > 50 {
		return fmt.Errorf("margin tolerance must be between 0 and 50 points, got %f", settings.MarginTolerance)
	}
	if settings.ServerPort < 1024 || settings.ServerPort > 65535 {
		return fmt.Errorf("server port must be between 1024 and 65535, got %d", settings.ServerPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.ServerPort == settings.MetricsPort {
		return fmt.Errorf("server port and metrics port must differ, both are %d", settings.ServerPort)
	}
	if settings.RequestTimeout < time.Second || settings.RequestTimeout > time.Minute {
		return fmt.Errorf("request timeout must be between 1s and 1m, got %v", settings.RequestTimeout)
	}
	if settings.PingInterval < time.Second || settings.PingInterval > 5*time.Minute {
		return fmt.Errorf("ping interval must be between 1s and 5m, got %v", settings.PingInterval)
	}
	if settings.Season < 1900 || settings.Season > 2100 {
		return fmt.Errorf("season must be a plausible year, got %d", settings.Season)
	}

	return nil
}
