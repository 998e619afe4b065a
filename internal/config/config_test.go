// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package config_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/Ritika-Bitcot/agent-poc/internal/config"
	"github.com/Ritika-Bitcot/agent-poc/internal/secrets"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// isolate keeps Load from picking up a developer's config or API keys.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, env := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentpoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *config.Config {
	v := viper.New()
	config.SetDefaults(v)
	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Networking.Listen)
	assert.Equal(t, []string{"*"}, cfg.Networking.CORSOrigins)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Models.Default)
	assert.Empty(t, cfg.Models.Failover)
	assert.Equal(t, 5, cfg.Agent.MaxRounds)
	assert.InDelta(t, 0.1, cfg.Agent.Temperature, 1e-9)
	assert.Equal(t, 2000, cfg.Agent.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.Agent.ToolTimeout)
	assert.Equal(t, 20, cfg.Agent.HistoryWindow)
	assert.Equal(t, 5, cfg.Agent.NotesLimit)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "./var", cfg.Storage.Path)
	assert.Equal(t, "./data", cfg.Data.Dir)
	assert.True(t, cfg.Data.Watch)
	assert.True(t, cfg.Retention.Enabled)
	assert.Equal(t, "@every 1h", cfg.Retention.Schedule)
	assert.Equal(t, 168*time.Hour, cfg.Retention.MaxAge)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.File)
}

func TestLoad_FromFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
networking:
  listen: "127.0.0.1:9999"
providers:
  anthropic:
    api_key: "test-key"
models:
  default: "anthropic/claude-sonnet-4-5"
agent:
  max_rounds: 3
  tool_timeout: "2s"
storage:
  backend: memory
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Networking.Listen)
	assert.Equal(t, "anthropic/claude-sonnet-4-5", cfg.Models.Default)
	assert.Equal(t, "test-key", cfg.Providers["anthropic"].APIKey)
	assert.Equal(t, 3, cfg.Agent.MaxRounds)
	assert.Equal(t, 2*time.Second, cfg.Agent.ToolTimeout)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_SearchPath(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("agentpoc.yaml", []byte("agent:\n  notes_limit: 7\n"), 0o600))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Agent.NotesLimit)
	assert.True(t, strings.HasSuffix(cfg.File, "agentpoc.yaml"))
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("AGENTPOC_NETWORKING_LISTEN", "10.0.0.1:8080")
	t.Setenv("AGENTPOC_AGENT_MAX_ROUNDS", "8")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8080", cfg.Networking.Listen)
	assert.Equal(t, 8, cfg.Agent.MaxRounds)
}

func TestLoad_VendorKeyEnv(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Providers["openai"].APIKey)
}

func TestLoad_ResolvesKeyringReferences(t *testing.T) {
	isolate(t)
	keyring.MockInit()
	ks := secrets.NewKeyringStore(nil)
	require.NoError(t, ks.Store("agentpoc-test", "openai-api-key", "sk-from-keyring"))

	path := writeConfig(t, `
providers:
  openai:
    api_key: "keyring://agentpoc-test/openai-api-key"
`)
	cfg, err := config.Load(path, config.WithSecrets(ks), config.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-keyring", cfg.Providers["openai"].APIKey)
}

func TestLoad_InvalidFails(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
networking:
  listen: "nonsense"
agent:
  max_rounds: 0
`)

	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, agenterr.HasCode(err, agenterr.CodeConfigValidateInvalidValue))
	assert.Contains(t, err.Error(), "networking.listen")
	assert.Contains(t, err.Error(), "agent.max_rounds")
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantMsg string
	}{
		{"empty listen", func(c *config.Config) { c.Networking.Listen = "" }, "networking.listen must not be empty"},
		{"listen without port", func(c *config.Config) { c.Networking.Listen = "localhost" }, "host:port"},
		{"listen port range", func(c *config.Config) { c.Networking.Listen = ":70000" }, "between 1 and 65535"},
		{"negative rate", func(c *config.Config) { c.Networking.RateLimit.RequestsPerSecond = -1 }, "requests_per_second"},
		{"rate without burst", func(c *config.Config) { c.Networking.RateLimit.RequestsPerSecond = 2 }, "rate_limit.burst"},
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"sqlite without path", func(c *config.Config) { c.Storage.Path = "" }, "storage.path"},
		{"empty data dir", func(c *config.Config) { c.Data.Dir = "" }, "data.dir"},
		{"model without provider", func(c *config.Config) { c.Models.Default = "gpt-4o" }, "provider/model"},
		{"unknown provider", func(c *config.Config) { c.Models.Default = "mistral/large" }, "unknown provider"},
		{"bad failover", func(c *config.Config) { c.Models.Failover = []string{"anthropic/"} }, "models.failover[0]"},
		{
			"unconfigured provider",
			func(c *config.Config) {
				c.Providers = map[string]config.ProviderConfig{"openai": {APIKey: "k"}}
				c.Models.Failover = []string{"anthropic/claude-haiku-4-5"}
			},
			"not configured",
		},
		{"zero rounds", func(c *config.Config) { c.Agent.MaxRounds = 0 }, "agent.max_rounds"},
		{"temperature range", func(c *config.Config) { c.Agent.Temperature = 3 }, "agent.temperature"},
		{"zero max tokens", func(c *config.Config) { c.Agent.MaxTokens = 0 }, "agent.max_tokens"},
		{"zero tool timeout", func(c *config.Config) { c.Agent.ToolTimeout = 0 }, "agent.tool_timeout"},
		{"zero history", func(c *config.Config) { c.Agent.HistoryWindow = 0 }, "agent.history_window"},
		{"notes limit too big", func(c *config.Config) { c.Agent.NotesLimit = 51 }, "agent.notes_limit"},
		{"bad schedule", func(c *config.Config) { c.Retention.Schedule = "every so often" }, "retention.schedule"},
		{"zero max age", func(c *config.Config) { c.Retention.MaxAge = 0 }, "retention.max_age"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.NotEmpty(t, errs)
			assert.Contains(t, errors.Join(errs...).Error(), tt.wantMsg)
			for _, err := range errs {
				assert.True(t, agenterr.IsInvalidInput(err))
			}
		})
	}
}

func TestValidate_RetentionDisabledSkipsSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Retention.Enabled = false
	cfg.Retention.Schedule = "garbage"
	assert.Empty(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Networking.Listen = ""
	cfg.Storage.Backend = "postgres"
	cfg.Agent.MaxRounds = -1
	cfg.Logging.Format = "xml"
	assert.Len(t, cfg.Validate(), 4)
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := config.LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "conversation_id", "c1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"conversation_id":"c1"`)
}

func TestBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agentpoc.yaml")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	assert.True(t, config.Bootstrap(path, logger))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigYAML, raw)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.False(t, config.Bootstrap(path, logger), "existing file is left alone")
}

func TestDefaultDocument_MatchesLoad(t *testing.T) {
	isolate(t)
	doc, err := config.DefaultDocument()
	require.NoError(t, err)
	assert.Contains(t, doc, "agent")
	assert.Contains(t, doc, "retention")

	keyring.MockInit()
	ks := secrets.NewKeyringStore(nil)
	require.NoError(t, ks.Store("agentpoc", "openai-api-key", "sk-bootstrap"))

	path := writeConfig(t, string(config.DefaultConfigYAML))
	cfg, err := config.Load(path, config.WithSecrets(ks))
	require.NoError(t, err)
	assert.Equal(t, "sk-bootstrap", cfg.Providers["openai"].APIKey)
	assert.Equal(t, 5, cfg.Agent.MaxRounds)
}
