package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"exoml-server/logging"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort  string   `yaml:"server_port"`
	Environment string   `yaml:"environment"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Database. "postgres://..." selects lib/pq, anything else is a SQLite path.
	DatabaseURL string `yaml:"database_url"`

	// Notebook execution
	NotebooksDir    string        `yaml:"notebooks_dir"`
	NotebookTimeout time.Duration `yaml:"notebook_timeout"`
	JupyterBin      string        `yaml:"jupyter_bin"`
	RunRateLimit    float64       `yaml:"run_rate_limit"` // runs per second per client, 0 disables
	RunRateBurst    int           `yaml:"run_rate_burst"`

	// Artifact layout written by the notebooks
	ResultsDir string `yaml:"results_dir"`
	ModelsDir  string `yaml:"models_dir"`
	PlotsDir   string `yaml:"plots_dir"`

	// Optional YAML overlay for the feature registry
	FeaturesFile string `yaml:"features_file"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
	LogFile   string `yaml:"log_file"`

	// Console logs to stderr. Set by commands that print results on stdout.
	LogToStderr bool `yaml:"log_to_stderr"`

	// Artifact archive. Empty bucket disables it.
	ArtifactBucket string `yaml:"artifact_bucket"`
	ArtifactPrefix string `yaml:"artifact_prefix"`
	AWSRegion      string `yaml:"aws_region"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		ServerPort:      "5000",
		Environment:     "development",
		CORSOrigins:     []string{"*"},
		DatabaseURL:     "exoml.sqlite3",
		NotebooksDir:    "Notebooks",
		NotebookTimeout: 300 * time.Second,
		JupyterBin:      "jupyter",
		RunRateLimit:    0.2,
		RunRateBurst:    2,
		ResultsDir:      "static/results",
		ModelsDir:       "static/models",
		PlotsDir:        "static/plots",
		LogLevel:        "info",
		LogFormat:       "console",
		LogOutput:       "stdout",
		AWSRegion:       "us-east-1",
	}
}

// Load loads configuration from an optional YAML file (EXOML_CONFIG) and then
// environment variables, which win.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("EXOML_CONFIG"))
}

// LoadFile is Load with an explicit file path. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.NotebooksDir = getEnv("NOTEBOOKS_DIR", cfg.NotebooksDir)
	cfg.JupyterBin = getEnv("JUPYTER_BIN", cfg.JupyterBin)
	cfg.ResultsDir = getEnv("RESULTS_DIR", cfg.ResultsDir)
	cfg.ModelsDir = getEnv("MODELS_DIR", cfg.ModelsDir)
	cfg.PlotsDir = getEnv("PLOTS_DIR", cfg.PlotsDir)
	cfg.FeaturesFile = getEnv("FEATURES_FILE", cfg.FeaturesFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogOutput = getEnv("LOG_OUTPUT", cfg.LogOutput)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.ArtifactBucket = getEnv("ARTIFACT_BUCKET", cfg.ArtifactBucket)
	cfg.ArtifactPrefix = getEnv("ARTIFACT_PREFIX", cfg.ArtifactPrefix)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	var err error
	if cfg.NotebookTimeout, err = getEnvDuration("NOTEBOOK_TIMEOUT", cfg.NotebookTimeout); err != nil {
		return nil, err
	}
	if cfg.RunRateLimit, err = getEnvFloat("RUN_RATE_LIMIT", cfg.RunRateLimit); err != nil {
		return nil, err
	}
	if cfg.RunRateBurst, err = getEnvInt("RUN_RATE_BURST", cfg.RunRateBurst); err != nil {
		return nil, err
	}

	if cfg.NotebookTimeout <= 0 {
		return nil, fmt.Errorf("notebook timeout must be positive, got %s", cfg.NotebookTimeout)
	}
	if cfg.RunRateLimit < 0 {
		return nil, fmt.Errorf("run rate limit must not be negative, got %g", cfg.RunRateLimit)
	}
	if cfg.RunRateLimit > 0 && cfg.RunRateBurst < 1 {
		return nil, fmt.Errorf("run rate burst must be at least 1, got %d", cfg.RunRateBurst)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := parseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parseDuration accepts Go durations ("5m") or plain seconds ("300").
func parseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// UnmarshalYAML reads the file layer. notebook_timeout takes the same forms as
// NOTEBOOK_TIMEOUT.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain Config

	if value.Kind == yaml.MappingNode {
		rest := *value
		rest.Content = nil
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			if key.Value != "notebook_timeout" {
				rest.Content = append(rest.Content, key, val)
				continue
			}
			d, err := parseDuration(val.Value)
			if err != nil {
				return fmt.Errorf("invalid notebook_timeout at line %d: %w", val.Line, err)
			}
			c.NotebookTimeout = d
		}
		value = &rest
	}

	return value.Decode((*plain)(c))
}

// Logging returns the logger settings
func (c *Config) Logging() *logging.Config {
	return &logging.Config{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		Output:     c.LogOutput,
		FilePath:   c.LogFile,
		Stderr:     c.LogToStderr,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
	}
}
