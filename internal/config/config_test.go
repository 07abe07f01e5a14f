package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/guided-traffic/cors-setup/internal/cors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "insight-attendance-system.appspot.com", cfg.Bucket)
	assert.Equal(t, "insight-attendance-system", cfg.Project)
	assert.Equal(t, "cors_config.json", cfg.OutputFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "127.0.0.1:8085", cfg.Preview.BindAddress)

	assert.Equal(t, cors.Build(cors.DefaultPolicy()), cors.Build(cfg.Policy()))
}

func TestLoad_CustomValues(t *testing.T) {
	viper.Reset()
	setDefaults()

	viper.Set("origins", []string{"https://app.example.com"})
	viper.Set("method_groups", [][]string{{"GET"}})
	viper.Set("response_headers", []string{"ETag", "Content-Type"})
	viper.Set("max_age_seconds", 60)
	viper.Set("bucket", "my-bucket")
	viper.Set("project", "my-project")
	viper.Set("output_file", "out/cors.json")
	viper.Set("log_format", "json")

	cfg, err := Load()
	require.NoError(t, err)

	policy := cfg.Policy()
	assert.Equal(t, []string{"https://app.example.com"}, policy.Origins)
	assert.Equal(t, [][]string{{"GET"}}, policy.MethodGroups)
	assert.Equal(t, []string{"ETag", "Content-Type"}, policy.ResponseHeaders)
	assert.Equal(t, 60, policy.MaxAgeSeconds)
	assert.Equal(t, "my-bucket", cfg.Bucket)
	assert.Equal(t, "my-project", cfg.Project)
	assert.Equal(t, "out/cors.json", cfg.OutputFile)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestInitConfig_YAMLFile(t *testing.T) {
	viper.Reset()

	path := filepath.Join(t.TempDir(), "cors-setup.yaml")
	content := `
origins:
  - https://staging.example.com
method_groups:
  - [GET, HEAD]
  - [PUT]
max_age_seconds: 120
bucket: staging-bucket
project: staging
preview:
  bind_address: 127.0.0.1:9999
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, InitConfig(path))
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://staging.example.com"}, cfg.Origins)
	assert.Equal(t, [][]string{{"GET", "HEAD"}, {"PUT"}}, cfg.MethodGroups)
	assert.Equal(t, 120, cfg.MaxAgeSeconds)
	assert.Equal(t, []string{"Content-Type"}, cfg.ResponseHeaders)
	assert.Equal(t, "staging-bucket", cfg.Bucket)
	assert.Equal(t, "127.0.0.1:9999", cfg.Preview.BindAddress)
	assert.Equal(t, "/metrics", cfg.Preview.MetricsPath)
}

func TestInitConfig_EnvironmentVariables(t *testing.T) {
	viper.Reset()
	t.Setenv("CORS_SETUP_BUCKET", "env-bucket")
	t.Setenv("CORS_SETUP_PREVIEW_BIND_ADDRESS", "127.0.0.1:7000")

	chdir(t, t.TempDir())

	require.NoError(t, InitConfig(""))
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-bucket", cfg.Bucket)
	assert.Equal(t, "127.0.0.1:7000", cfg.Preview.BindAddress)
}

func TestInitConfig_MissingExplicitFile(t *testing.T) {
	viper.Reset()

	err := InitConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errContains string
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "wildcard origin", mutate: func(c *Config) { c.Origins = []string{"*"} }},
		{name: "no method groups", mutate: func(c *Config) { c.MethodGroups = nil }, errContains: "method_groups cannot be empty"},
		{name: "empty method group", mutate: func(c *Config) { c.MethodGroups = [][]string{{}} }, errContains: "rule 0: method cannot be empty"},
		{name: "no origins", mutate: func(c *Config) { c.Origins = nil }, errContains: "origin cannot be empty"},
		{name: "origin without scheme", mutate: func(c *Config) { c.Origins = []string{"localhost:3000"} }, errContains: "origins[0]"},
		{name: "origin with path", mutate: func(c *Config) { c.Origins = []string{"http://localhost:3000/app"} }, errContains: "must not contain a path"},
		{name: "negative max age", mutate: func(c *Config) { c.MaxAgeSeconds = -5 }, errContains: "non-negative"},
		{name: "missing bucket", mutate: func(c *Config) { c.Bucket = "" }, errContains: "bucket is required"},
		{name: "bucket with scheme", mutate: func(c *Config) { c.Bucket = "gs://x" }, errContains: "without the gs:// prefix"},
		{name: "missing project", mutate: func(c *Config) { c.Project = "" }, errContains: "project is required"},
		{name: "missing output", mutate: func(c *Config) { c.OutputFile = "" }, errContains: "output_file is required"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, errContains: "log_format"},
		{name: "negative shutdown timeout", mutate: func(c *Config) { c.Preview.ShutdownTimeout = -1 }, errContains: "preview.shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
