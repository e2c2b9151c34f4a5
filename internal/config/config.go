// Package config builds the proxy configuration.
//
// Values are layered: built-in defaults, then an optional YAML file (the
// --config flag or VETRA_CONFIG), then environment variables. The result is
// validated once, up front.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Backend selects the completion dispatcher implementation.
type Backend string

const (
	BackendOpenAI Backend = "openai"
	BackendVertex Backend = "vertex"
	BackendMock   Backend = "mock"
)

type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	Admin    AdminConfig    `mapstructure:"admin"`
	Upstream UpstreamConfig `mapstructure:"upstream"`

	// Models is the selectable catalog, in display order.
	Models []string `mapstructure:"models"`
	// DefaultModel is the initial selection. Empty means Models[0].
	DefaultModel string `mapstructure:"default_model"`
	// Rules seeds the rule store at startup.
	Rules []string `mapstructure:"rules"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type UpstreamConfig struct {
	Backend     Backend       `mapstructure:"backend"`
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`

	// Vertex only.
	GCPProject   string            `mapstructure:"gcp_project"`
	GCPLocation  string            `mapstructure:"gcp_location"`
	ModelAliases map[string]string `mapstructure:"model_aliases"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:     7860,
		LogLevel: "info",
		Admin: AdminConfig{
			Username: "admin",
			Password: "password",
		},
		Upstream: UpstreamConfig{
			Backend:     BackendOpenAI,
			Endpoint:    "https://parthsadaria-lokiai.hf.space/chat/completions",
			APIKey:      "sigma",
			Timeout:     60 * time.Second,
			Temperature: 0.7,
			MaxTokens:   1000,
			GCPLocation: "us-central1",
		},
		Models: []string{"mistral-large-latest", "gemini", "openai-xlarge"},
		Rules: []string{
			"You are Vetra, an office bot that answers based on given rules",
			"Be respectful and helpful",
			"Do not generate harmful content",
			"Provide accurate information",
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// envKeys maps environment variables onto config keys.
var envKeys = map[string][]string{
	"PORT":                   {"port"},
	"ADMIN_USERNAME":         {"admin", "username"},
	"ADMIN_PASSWORD":         {"admin", "password"},
	"VETRA_LOG_LEVEL":        {"log_level"},
	"VETRA_BACKEND":          {"upstream", "backend"},
	"VETRA_ENDPOINT":         {"upstream", "endpoint"},
	"VETRA_API_KEY":          {"upstream", "api_key"},
	"VETRA_TIMEOUT":          {"upstream", "timeout"},
	"VETRA_TEMPERATURE":      {"upstream", "temperature"},
	"VETRA_MAX_TOKENS":       {"upstream", "max_tokens"},
	"VETRA_GCP_PROJECT":      {"upstream", "gcp_project"},
	"VETRA_GCP_LOCATION":     {"upstream", "gcp_location"},
	"VETRA_MODELS":           {"models"},
	"VETRA_DEFAULT_MODEL":    {"default_model"},
	"VETRA_SHUTDOWN_TIMEOUT": {"shutdown_timeout"},
}

// Load builds the configuration. path names a YAML file; when empty,
// VETRA_CONFIG is consulted, and when that is empty too no file is read.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path == "" {
		path, _ = lookupEnv("VETRA_CONFIG")
	}
	if path != "" {
		raw, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := decode(raw, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := decode(envOverrides(lookupEnv), cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return raw, nil
}

func envOverrides(lookupEnv func(string) (string, bool)) map[string]any {
	out := map[string]any{}
	for env, key := range envKeys {
		value, ok := lookupEnv(env)
		if !ok || value == "" {
			continue
		}

		node := out
		for _, part := range key[:len(key)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[key[len(key)-1]] = value
	}
	return out
}

// decode overlays raw onto cfg. Lists and maps present in raw replace the
// current value rather than merging into it.
func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			trimmedSliceHook(","),
		),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// trimmedSliceHook splits a comma-separated string into a trimmed,
// non-empty list.
func trimmedSliceHook(sep string) mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}

		parts := strings.Split(data.(string), sep)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		errs = append(errs, errors.New("admin username and password must be set"))
	}

	if len(c.Models) == 0 {
		errs = append(errs, errors.New("models must not be empty"))
	}
	for i, m := range c.Models {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Errorf("models[%d] is empty", i))
		}
	}
	if c.DefaultModel != "" && !slices.Contains(c.Models, c.DefaultModel) {
		errs = append(errs, fmt.Errorf("default_model %q is not in models", c.DefaultModel))
	}

	u := c.Upstream
	if u.Timeout <= 0 {
		errs = append(errs, errors.New("upstream.timeout must be positive"))
	}
	if u.MaxTokens <= 0 {
		errs = append(errs, errors.New("upstream.max_tokens must be positive"))
	}
	switch u.Backend {
	case BackendOpenAI:
		if u.Endpoint == "" {
			errs = append(errs, errors.New("upstream.endpoint is required for the openai backend"))
		}
	case BackendVertex:
		if u.GCPProject == "" {
			errs = append(errs, errors.New("upstream.gcp_project is required for the vertex backend"))
		}
	case BackendMock:
	default:
		errs = append(errs, fmt.Errorf("unknown upstream.backend %q", u.Backend))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
