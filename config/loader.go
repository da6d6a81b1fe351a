// Package config loads the suite configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("AGENTSMOKE").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete suite configuration.
type Config struct {
	// App describes the application under test.
	App AppConfig `yaml:"app" env:"APP"`

	// LLM configures the model endpoint.
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Browser configures the browser session.
	Browser BrowserConfig `yaml:"browser" env:"BROWSER"`

	// Artifacts configures where screenshots land.
	Artifacts ArtifactsConfig `yaml:"artifacts" env:"ARTIFACTS"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Log configures logging.
	Log LogConfig `yaml:"log" env:"LOG"`
}

// AppConfig describes the application under test and the run limits.
type AppConfig struct {
	// Base URL of the app.
	URL string `yaml:"url" env:"URL"`
	// Text that must be visible for the run to pass.
	SuccessText string `yaml:"success_text" env:"SUCCESS_TEXT"`
	// Hard cap on model-planned actions per run.
	MaxActions int `yaml:"max_actions" env:"MAX_ACTIONS"`
	// Pause between executed actions.
	ActionDelay time.Duration `yaml:"action_delay" env:"ACTION_DELAY"`
	// Overall run deadline.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// PlayerCount pins the scripted flow's lineup size; 0 means random.
	PlayerCount int `yaml:"player_count" env:"PLAYER_COUNT"`
}

// LLMConfig configures the model endpoint.
type LLMConfig struct {
	// OpenAI-compatible base URL.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API key; local endpoints usually accept any value.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Model name.
	Model string `yaml:"model" env:"MODEL"`
	// Sampling temperature.
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// Completion budget per call; 0 leaves it to the endpoint.
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// Request timeout.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// BrowserConfig configures the browser session.
type BrowserConfig struct {
	// Run without a visible window.
	Headless bool `yaml:"headless" env:"HEADLESS"`
	// Viewport size.
	ViewportWidth  int `yaml:"viewport_width" env:"VIEWPORT_WIDTH"`
	ViewportHeight int `yaml:"viewport_height" env:"VIEWPORT_HEIGHT"`
	// Optional user agent override.
	UserAgent string `yaml:"user_agent" env:"USER_AGENT"`
	// Hosts the session may navigate to.
	AllowedDomains []string `yaml:"allowed_domains" env:"ALLOWED_DOMAINS"`
	// Polling cadence and deadline for waits.
	WaitInterval time.Duration `yaml:"wait_interval" env:"WAIT_INTERVAL"`
	WaitTimeout  time.Duration `yaml:"wait_timeout" env:"WAIT_TIMEOUT"`
}

// ArtifactsConfig configures run artifacts.
type ArtifactsConfig struct {
	// Directory screenshots are written to.
	Dir string `yaml:"dir" env:"DIR"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	// Metric namespace prefix.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console.
	Format string `yaml:"format" env:"FORMAT"`
	// Output paths.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// Annotate entries with the calling site.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// Attach stack traces to error entries.
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// Loader loads configuration with a builder API.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the AGENTSMOKE env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "AGENTSMOKE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a validation step run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration. Precedence: defaults, then the YAML
// file when present, then prefixed environment variables, then the legacy
// unprefixed names.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	applyLegacyEnv(cfg)

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// missing file falls back to defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// applyLegacyEnv honors the unprefixed variable names older harness
// scripts export. A legacy variable only fills a field still at its
// default, so the YAML file and the prefixed forms keep precedence.
func applyLegacyEnv(cfg *Config) {
	def := DefaultConfig()

	if v := os.Getenv("APP_URL"); v != "" && cfg.App.URL == def.App.URL {
		cfg.App.URL = v
	}
	if v := os.Getenv("SUCCESS_TEXT"); v != "" && cfg.App.SuccessText == def.App.SuccessText {
		cfg.App.SuccessText = v
	}
	if v := os.Getenv("AI_TEST_ARTIFACT_DIR"); v != "" && cfg.Artifacts.Dir == def.Artifacts.Dir {
		cfg.Artifacts.Dir = v
	}
	if v := os.Getenv("AI_TEST_HEADLESS"); v != "" && cfg.Browser.Headless == def.Browser.Headless {
		cfg.Browser.Headless = v != "0" && !strings.EqualFold(v, "false")
	}
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads the configuration or panics.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads from environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks the loaded values for obvious mistakes.
func (c *Config) Validate() error {
	var errs []string

	if c.App.URL == "" {
		errs = append(errs, "app url must be set")
	}
	if c.App.SuccessText == "" {
		errs = append(errs, "success_text must be set")
	}
	if c.App.MaxActions <= 0 {
		errs = append(errs, "max_actions must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "temperature must be between 0 and 2")
	}
	if c.LLM.Model == "" {
		errs = append(errs, "llm model must be set")
	}
	if c.App.PlayerCount != 0 && (c.App.PlayerCount < 2 || c.App.PlayerCount > 10) {
		errs = append(errs, "player_count must be 0 or between 2 and 10")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
