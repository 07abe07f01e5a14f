package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/guided-traffic/cors-setup/internal/cors"
	"github.com/spf13/viper"
)

// PreviewConfig holds the local preview server configuration
type PreviewConfig struct {
	BindAddress     string `mapstructure:"bind_address"`
	MetricsPath     string `mapstructure:"metrics_path"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // Graceful shutdown timeout in seconds
}

// Config holds the application configuration
type Config struct {
	// CORS policy
	Origins         []string   `mapstructure:"origins"`
	MethodGroups    [][]string `mapstructure:"method_groups"` // One rule is generated per group
	ResponseHeaders []string   `mapstructure:"response_headers"`
	MaxAgeSeconds   int        `mapstructure:"max_age_seconds"`

	// Target bucket, only referenced in the printed instructions
	Bucket     string `mapstructure:"bucket"`
	Project    string `mapstructure:"project"`
	ConsoleURL string `mapstructure:"console_url"`

	// Output
	OutputFile string `mapstructure:"output_file"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "text" (default) or "json"

	Preview PreviewConfig `mapstructure:"preview"`
}

// InitConfig initializes the configuration system. A missing config file is
// only an error when it was requested explicitly.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cors-setup")
	}

	viper.SetEnvPrefix("CORS_SETUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}

	return nil
}

// Load loads the configuration from viper
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without consulting viper
func Default() *Config {
	policy := cors.DefaultPolicy()
	return &Config{
		Origins:         policy.Origins,
		MethodGroups:    policy.MethodGroups,
		ResponseHeaders: policy.ResponseHeaders,
		MaxAgeSeconds:   policy.MaxAgeSeconds,
		Bucket:          DefaultBucket,
		Project:         DefaultProject,
		ConsoleURL:      DefaultConsoleURL,
		OutputFile:      cors.DefaultFileName,
		LogLevel:        "info",
		LogFormat:       "text",
		Preview: PreviewConfig{
			BindAddress:     DefaultPreviewBindAddress,
			MetricsPath:     "/metrics",
			ShutdownTimeout: 10,
		},
	}
}

// Policy returns the CORS policy described by the configuration
func (c *Config) Policy() cors.Policy {
	return cors.Policy{
		Origins:         c.Origins,
		MethodGroups:    c.MethodGroups,
		ResponseHeaders: c.ResponseHeaders,
		MaxAgeSeconds:   c.MaxAgeSeconds,
	}
}

const (
	DefaultBucket             = "insight-attendance-system.appspot.com"
	DefaultProject            = "insight-attendance-system"
	DefaultConsoleURL         = "https://console.firebase.google.com/"
	DefaultPreviewBindAddress = "127.0.0.1:8085"
)

// setDefaults sets default configuration values
func setDefaults() {
	d := Default()

	viper.SetDefault("origins", d.Origins)
	viper.SetDefault("method_groups", d.MethodGroups)
	viper.SetDefault("response_headers", d.ResponseHeaders)
	viper.SetDefault("max_age_seconds", d.MaxAgeSeconds)

	viper.SetDefault("bucket", d.Bucket)
	viper.SetDefault("project", d.Project)
	viper.SetDefault("console_url", d.ConsoleURL)
	viper.SetDefault("output_file", d.OutputFile)

	viper.SetDefault("log_level", d.LogLevel)
	viper.SetDefault("log_format", d.LogFormat)

	viper.SetDefault("preview.bind_address", d.Preview.BindAddress)
	viper.SetDefault("preview.metrics_path", d.Preview.MetricsPath)
	viper.SetDefault("preview.shutdown_timeout", d.Preview.ShutdownTimeout)
}

// validate validates the configuration
func validate(cfg *Config) error {
	if len(cfg.MethodGroups) == 0 {
		return fmt.Errorf("method_groups cannot be empty")
	}

	if err := cors.Build(cfg.Policy()).Validate(); err != nil {
		return fmt.Errorf("invalid CORS policy: %w", err)
	}

	for i, origin := range cfg.Origins {
		if origin == cors.WildcardOrigin {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("origins[%d]: %q is not a scheme://host[:port] origin", i, origin)
		}
		if u.Path != "" && u.Path != "/" {
			return fmt.Errorf("origins[%d]: %q must not contain a path", i, origin)
		}
	}

	if cfg.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if strings.HasPrefix(cfg.Bucket, "gs://") {
		return fmt.Errorf("bucket must be the bare bucket name without the gs:// prefix")
	}
	if cfg.Project == "" {
		return fmt.Errorf("project is required")
	}
	if cfg.OutputFile == "" {
		return fmt.Errorf("output_file is required")
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format: unsupported value %q (supported: text, json)", cfg.LogFormat)
	}

	if cfg.Preview.ShutdownTimeout < 0 {
		return fmt.Errorf("preview.shutdown_timeout must be non-negative, got %d", cfg.Preview.ShutdownTimeout)
	}

	return nil
}
