package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"licensegate/internal/license"
)

// envPrefix namespaces every environment variable consumed by the service.
const envPrefix = "LICENSEGATE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	License   LicenseConfig   `yaml:"license" envconfig:"LICENSE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/licensegate.log"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"licensegate"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
}

// LicenseConfig carries the trust anchor and validation behavior. Exactly
// one of PublicKeyPEM or PublicKeyFile must be set.
type LicenseConfig struct {
	PublicKeyPEM  string           `yaml:"public_key_pem" envconfig:"PUBLIC_KEY_PEM"`
	PublicKeyFile string           `yaml:"public_key_file" envconfig:"PUBLIC_KEY_FILE"`
	TierPolicy    string           `yaml:"tier_policy" envconfig:"TIER_POLICY" default:"custom-satisfies-all"`
	Validation    ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
}

// ValidationConfig mirrors license.ValidationOptions with config defaults.
type ValidationConfig struct {
	ValidateSignature    bool `yaml:"validate_signature" envconfig:"VALIDATE_SIGNATURE" default:"true"`
	ValidateDates        bool `yaml:"validate_dates" envconfig:"VALIDATE_DATES" default:"true"`
	AllowGracePeriod     bool `yaml:"allow_grace_period" envconfig:"ALLOW_GRACE_PERIOD" default:"true"`
	GracePeriodDays      int  `yaml:"grace_period_days" envconfig:"GRACE_PERIOD_DAYS" default:"30"`
	EnableCaching        bool `yaml:"enable_caching" envconfig:"ENABLE_CACHING" default:"true"`
	CacheDurationMinutes int  `yaml:"cache_duration_minutes" envconfig:"CACHE_DURATION_MINUTES" default:"15"`
	EnableAuditLogging   bool `yaml:"enable_audit_logging" envconfig:"ENABLE_AUDIT_LOGGING" default:"false"`
}

// Options converts the validation section into the core options struct.
func (v ValidationConfig) Options() license.ValidationOptions {
	return license.ValidationOptions{
		ValidateSignature:    v.ValidateSignature,
		ValidateDates:        v.ValidateDates,
		AllowGracePeriod:     v.AllowGracePeriod,
		GracePeriodDays:      v.GracePeriodDays,
		EnableCaching:        v.EnableCaching,
		CacheDurationMinutes: v.CacheDurationMinutes,
		EnableAuditLogging:   v.EnableAuditLogging,
	}
}

// ResolvePublicKey returns the PEM trust anchor, reading it from disk when
// configured as a file path. An absent key is reported as an error; the
// validator refuses to start without one.
func (lc LicenseConfig) ResolvePublicKey() (string, error) {
	if lc.PublicKeyPEM != "" {
		return lc.PublicKeyPEM, nil
	}
	if lc.PublicKeyFile == "" {
		return "", fmt.Errorf("no public key configured: set license.public_key_pem or license.public_key_file")
	}
	data, err := os.ReadFile(lc.PublicKeyFile)
	if err != nil {
		return "", fmt.Errorf("read public key file %s: %w", lc.PublicKeyFile, err)
	}
	return string(data), nil
}

// ParseTierPolicy maps the configured policy name onto the core type.
func (lc LicenseConfig) ParseTierPolicy() (license.TierPolicy, error) {
	switch lc.TierPolicy {
	case "", "custom-satisfies-all":
		return license.CustomSatisfiesAll, nil
	case "custom-strict":
		return license.CustomStrict, nil
	default:
		return license.CustomSatisfiesAll, fmt.Errorf("unknown tier policy %q", lc.TierPolicy)
	}
}

// Load reads configuration from the environment with struct-tag defaults,
// then overlays an optional YAML file. Keys present in the file are
// authoritative; everything else keeps its environment or default value.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.License.Validation.GracePeriodDays < 0 {
		return fmt.Errorf("license.validation.grace_period_days must not be negative")
	}
	if c.License.Validation.CacheDurationMinutes < 0 {
		return fmt.Errorf("license.validation.cache_duration_minutes must not be negative")
	}
	if _, err := c.License.ParseTierPolicy(); err != nil {
		return err
	}
	return nil
}
