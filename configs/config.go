package configs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i2y/rocketlane-mcp/internal/adapter/outbound/github"
	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// EnvPrefix is the prefix of every environment variable, e.g. ROCKETLANE_API_KEY.
const EnvPrefix = "rocketlane"

// FileConfig defines the structure loaded from the YAML configuration file.
// Secrets are not read from the file.
type FileConfig struct {
	OpenAPISource string            `yaml:"openapi_source"`
	BaseURL       string            `yaml:"base_url"`
	AuthHeader    string            `yaml:"auth_header"`
	AuthScheme    string            `yaml:"auth_scheme"`
	ToolTags      []string          `yaml:"tool_tags"`
	ToolPrefix    string            `yaml:"tool_prefix"`
	Headers       map[string]string `yaml:"headers"`
	ListenAddr    string            `yaml:"listen_addr"`
	AdminAddr     string            `yaml:"admin_addr"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "ROCKETLANE_", overriding file settings.
type Config struct {
	// Config File Path (Loaded first from env). Empty means no file.
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// Credential. Env only.
	APIKey string `envconfig:"API_KEY"`

	// File-configurable fields. No envconfig defaults, so an unset variable
	// keeps the file value.
	OpenAPISource string            `envconfig:"OPENAPI_SOURCE"`
	BaseURL       string            `envconfig:"BASE_URL"`
	AuthHeader    string            `envconfig:"AUTH_HEADER"`
	AuthScheme    string            `envconfig:"AUTH_SCHEME"`
	ToolTags      []string          `envconfig:"TOOL_TAGS"`
	ToolPrefix    string            `envconfig:"TOOL_PREFIX"`
	Headers       map[string]string `envconfig:"HEADERS"`
	ListenAddr    string            `envconfig:"LISTEN_ADDR"`
	AdminAddr     string            `envconfig:"ADMIN_ADDR"`

	// Environment-only fields
	HTTPClientTimeout        time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	MaxResponseBytes         int64         `envconfig:"MAX_RESPONSE_BYTES" default:"10485760"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile                  string        `envconfig:"LOG_FILE"`
}

const (
	defaultListenAddr = ":8080"
	defaultAdminAddr  = ":8081"
)

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// ResolveAuth applies the configured header and scheme over the scheme
// declared by the API document.
func (c *Config) ResolveAuth(declared domain.AuthScheme) domain.AuthScheme {
	auth := declared
	if c.AuthHeader != "" {
		auth.Header = c.AuthHeader
	}
	if c.AuthScheme != "" {
		auth.Prefix = c.AuthScheme
		if c.AuthHeader == "" && strings.EqualFold(c.AuthScheme, "bearer") {
			auth.Header = "Authorization"
		}
	}
	return auth
}

// HasCredential reports whether an API key is configured.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// FileReader reads a configuration file from a local path or a github:// URL.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Load loads configuration first from environment variables (to get file path),
// then from the specified YAML file, and finally merges/overrides with environment variables again.
func Load() (*Config, error) {
	return LoadWith(context.Background(), github.NewClient())
}

// LoadWith is Load with an explicit file reader.
func LoadWith(ctx context.Context, reader FileReader) (*Config, error) {
	// 1. Load initial config from Env (primarily to get ConfigFilePath)
	var initialCfg Config
	if err := envconfig.Process(EnvPrefix, &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	// 2. Load config from YAML file if path is specified
	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := reader.ReadFile(ctx, initialCfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
	}

	// 3. Start from file values, then process Env vars again for overrides.
	finalCfg := initialCfg
	finalCfg.applyFile(fileCfg)
	if err := envconfig.Process(EnvPrefix, &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	if finalCfg.ListenAddr == "" {
		finalCfg.ListenAddr = defaultListenAddr
	}
	if finalCfg.AdminAddr == "" {
		finalCfg.AdminAddr = defaultAdminAddr
	}
	if err := finalCfg.Validate(); err != nil {
		return nil, err
	}
	return &finalCfg, nil
}

func (c *Config) applyFile(f FileConfig) {
	c.OpenAPISource = f.OpenAPISource
	c.BaseURL = f.BaseURL
	c.AuthHeader = f.AuthHeader
	c.AuthScheme = f.AuthScheme
	c.ToolTags = f.ToolTags
	c.ToolPrefix = f.ToolPrefix
	c.Headers = f.Headers
	c.ListenAddr = f.ListenAddr
	c.AdminAddr = f.AdminAddr
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.HTTPClientTimeout < 0 {
		return fmt.Errorf("HTTP_CLIENT_TIMEOUT must not be negative, got %s", c.HTTPClientTimeout)
	}
	if c.MaxResponseBytes <= 0 {
		return fmt.Errorf("MAX_RESPONSE_BYTES must be positive, got %d", c.MaxResponseBytes)
	}
	if c.ToolPrefix != "" && strings.ContainsAny(c.ToolPrefix, " /.") {
		return fmt.Errorf("TOOL_PREFIX %q must not contain spaces, slashes or dots", c.ToolPrefix)
	}
	return nil
}
