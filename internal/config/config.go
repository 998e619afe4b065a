// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package config

import (
	"errors"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/Ritika-Bitcot/agent-poc/internal/secrets"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. AGENTPOC_NETWORKING_LISTEN.
const EnvPrefix = "AGENTPOC"

// KnownProviders are the reasoning back ends the server can construct.
var KnownProviders = []string{"openai", "anthropic", "google"}

// providerKeyEnv maps conventional vendor variables onto provider keys.
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GEMINI_API_KEY",
}

// Config is the top-level agent-poc configuration.
type Config struct {
	Networking NetworkingConfig          `mapstructure:"networking"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Models     ModelsConfig              `mapstructure:"models"`
	Agent      AgentConfig               `mapstructure:"agent"`
	Storage    StorageConfig             `mapstructure:"storage"`
	Data       DataConfig                `mapstructure:"data"`
	Retention  RetentionConfig           `mapstructure:"retention"`
	Logging    LoggingConfig             `mapstructure:"logging"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// NetworkingConfig controls the HTTP listener.
type NetworkingConfig struct {
	Listen      string          `mapstructure:"listen"`
	CORSOrigins []string        `mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig limits chat requests per client IP. A zero rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ProviderConfig holds credentials and endpoint for a reasoning back end.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// ModelsConfig selects the model and its failover chain.
type ModelsConfig struct {
	Default  string   `mapstructure:"default"`
	Failover []string `mapstructure:"failover"`
}

// AgentConfig bounds the orchestration loop.
type AgentConfig struct {
	MaxRounds     int           `mapstructure:"max_rounds"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	ToolTimeout   time.Duration `mapstructure:"tool_timeout"`
	HistoryWindow int           `mapstructure:"history_window"`
	NotesLimit    int           `mapstructure:"notes_limit"`
}

// StorageConfig selects the conversation store backend and where it lives.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// DataConfig locates the JSON files behind the tools.
type DataConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

// RetentionConfig controls scheduled conversation expiry.
type RetentionConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults installs every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("networking.listen", "0.0.0.0:8000")
	v.SetDefault("networking.cors_origins", []string{"*"})
	v.SetDefault("networking.rate_limit.requests_per_second", 0)
	v.SetDefault("networking.rate_limit.burst", 0)
	v.SetDefault("models.default", "openai/gpt-4o-mini")
	v.SetDefault("models.failover", []string{})
	v.SetDefault("agent.max_rounds", 5)
	v.SetDefault("agent.temperature", 0.1)
	v.SetDefault("agent.max_tokens", 2000)
	v.SetDefault("agent.tool_timeout", "10s")
	v.SetDefault("agent.history_window", 20)
	v.SetDefault("agent.notes_limit", 5)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "./var")
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.watch", true)
	v.SetDefault("retention.enabled", true)
	v.SetDefault("retention.schedule", "@every 1h")
	v.SetDefault("retention.max_age", "168h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Option customizes Load.
type Option func(*loadOptions)

type loadOptions struct {
	secrets secrets.Store
	logger  *slog.Logger
}

// WithSecrets resolves keyring:// values through store after loading.
func WithSecrets(store secrets.Store) Option {
	return func(o *loadOptions) { o.secrets = store }
}

// WithLogger sets the logger used while loading.
func WithLogger(l *slog.Logger) Option {
	return func(o *loadOptions) { o.logger = l }
}

// Load reads configuration from path, or from agentpoc.yaml in the usual
// search path when path is empty, with AGENTPOC_ environment overrides.
func Load(path string, opts ...Option) (*Config, error) {
	o := loadOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for name, env := range providerKeyEnv {
		key := "providers." + name + ".api_key"
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, agenterr.Wrapf(err, agenterr.CodeConfigLoadReadFailure, "binding %s", env)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, agenterr.Wrapf(err, agenterr.CodeConfigLoadReadFailure, "reading config %s", path)
		}
	} else {
		v.SetConfigName("agentpoc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("/etc/agentpoc")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, agenterr.Wrap(err, agenterr.CodeConfigParseInvalidFormat, "reading config")
			}
		}
	}

	if o.secrets != nil {
		secrets.ResolveViper(v, o.secrets, o.logger)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeConfigParseInvalidFormat, "unmarshalling config")
	}
	cfg.File = v.ConfigFileUsed()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, agenterr.Wrap(errors.Join(errs...), agenterr.CodeConfigValidateInvalidValue, "validating config")
	}
	return &cfg, nil
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateAgent()...)
	errs = append(errs, c.validateRetention()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func invalid(format string, args ...any) error {
	return agenterr.Errorf(agenterr.CodeConfigValidateInvalidValue, "config: "+format, args...)
}

func (c *Config) validateNetworking() []error {
	var errs []error
	if err := validateListen(c.Networking.Listen); err != nil {
		errs = append(errs, err)
	}
	rl := c.Networking.RateLimit
	if rl.RequestsPerSecond < 0 {
		errs = append(errs, invalid("networking.rate_limit.requests_per_second must not be negative, got %g", rl.RequestsPerSecond))
	}
	if rl.RequestsPerSecond > 0 && rl.Burst <= 0 {
		errs = append(errs, invalid("networking.rate_limit.burst must be positive when a rate is set, got %d", rl.Burst))
	}
	return errs
}

func validateListen(listen string) error {
	if listen == "" {
		return invalid("networking.listen must not be empty")
	}
	_, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return invalid("networking.listen must be a valid host:port address, got %q", listen)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return invalid("networking.listen port must be a number, got %q", portStr)
	}
	if port < 1 || port > 65535 {
		return invalid("networking.listen port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func (c *Config) validateStorage() []error {
	var errs []error
	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, invalid("storage.backend must be one of [sqlite, memory], got %q", c.Storage.Backend))
	}
	if c.Storage.Backend == "sqlite" && c.Storage.Path == "" {
		errs = append(errs, invalid("storage.path must not be empty for the sqlite backend"))
	}
	if c.Data.Dir == "" {
		errs = append(errs, invalid("data.dir must not be empty"))
	}
	return errs
}

func (c *Config) validateModels() []error {
	var errs []error
	check := func(field, ref string) {
		name, model, ok := strings.Cut(ref, "/")
		if !ok || name == "" || model == "" {
			errs = append(errs, invalid("%s must be in \"provider/model\" format, got %q", field, ref))
			return
		}
		if !isKnownProvider(name) {
			errs = append(errs, invalid("%s %q names unknown provider %q", field, ref, name))
			return
		}
		// A nil map means no providers section at all, which is valid on a
		// fresh install.
		if c.Providers != nil {
			if _, ok := c.Providers[name]; !ok {
				errs = append(errs, invalid("%s %q references provider %q which is not configured", field, ref, name))
			}
		}
	}

	if c.Models.Default == "" {
		errs = append(errs, invalid("models.default must not be empty"))
	} else {
		check("models.default", c.Models.Default)
	}
	for i, ref := range c.Models.Failover {
		check("models.failover["+strconv.Itoa(i)+"]", ref)
	}
	return errs
}

func (c *Config) validateAgent() []error {
	var errs []error
	a := c.Agent
	if a.MaxRounds <= 0 {
		errs = append(errs, invalid("agent.max_rounds must be greater than 0, got %d", a.MaxRounds))
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		errs = append(errs, invalid("agent.temperature must be between 0 and 2, got %g", a.Temperature))
	}
	if a.MaxTokens <= 0 {
		errs = append(errs, invalid("agent.max_tokens must be greater than 0, got %d", a.MaxTokens))
	}
	if a.ToolTimeout <= 0 {
		errs = append(errs, invalid("agent.tool_timeout must be positive, got %s", a.ToolTimeout))
	}
	if a.HistoryWindow <= 0 {
		errs = append(errs, invalid("agent.history_window must be greater than 0, got %d", a.HistoryWindow))
	}
	if a.NotesLimit <= 0 || a.NotesLimit > 50 {
		errs = append(errs, invalid("agent.notes_limit must be between 1 and 50, got %d", a.NotesLimit))
	}
	return errs
}

func (c *Config) validateRetention() []error {
	if !c.Retention.Enabled {
		return nil
	}
	var errs []error
	if _, err := cron.ParseStandard(c.Retention.Schedule); err != nil {
		errs = append(errs, invalid("retention.schedule %q is not a valid cron schedule: %v", c.Retention.Schedule, err))
	}
	if c.Retention.MaxAge <= 0 {
		errs = append(errs, invalid("retention.max_age must be positive, got %s", c.Retention.MaxAge))
	}
	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, invalid("logging.format must be one of [text, json], got %q", c.Logging.Format))
	}
	return errs
}

func isKnownProvider(name string) bool {
	return slices.Contains(KnownProviders, name)
}
