// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/Ritika-Bitcot/agent-poc/internal/agent"
	"github.com/Ritika-Bitcot/agent-poc/internal/config"
	"github.com/Ritika-Bitcot/agent-poc/internal/data"
	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	anthropicprov "github.com/Ritika-Bitcot/agent-poc/internal/provider/anthropic"
	googleprov "github.com/Ritika-Bitcot/agent-poc/internal/provider/google"
	openaiprov "github.com/Ritika-Bitcot/agent-poc/internal/provider/openai"
	"github.com/Ritika-Bitcot/agent-poc/internal/retention"
	"github.com/Ritika-Bitcot/agent-poc/internal/secrets"
	"github.com/Ritika-Bitcot/agent-poc/internal/server"
	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	_ "github.com/Ritika-Bitcot/agent-poc/internal/store/sqlite" // register sqlite backend
	"github.com/Ritika-Bitcot/agent-poc/internal/tools"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server    *server.Server
	Store     store.ConversationStore
	Providers *provider.Registry
	Loader    *data.Loader
	Watcher   *data.Watcher        // nil unless data.watch
	Retention *retention.Scheduler // nil unless retention.enabled

	logger *slog.Logger
}

// providerFactory builds a provider.Provider from a ProviderConfig.
type providerFactory func(pc config.ProviderConfig, logger *slog.Logger) (provider.Provider, error)

func builtinProviderFactories() map[string]providerFactory {
	return map[string]providerFactory{
		"anthropic": func(pc config.ProviderConfig, _ *slog.Logger) (provider.Provider, error) {
			return anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
		},
		"google": func(pc config.ProviderConfig, logger *slog.Logger) (provider.Provider, error) {
			return googleprov.New(googleprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint, Logger: logger})
		},
		"openai": func(pc config.ProviderConfig, _ *slog.Logger) (provider.Provider, error) {
			return openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
		},
	}
}

type wireOptions struct {
	factories map[string]providerFactory
}

type wireOption func(*wireOptions)

// withProviderFactories replaces the built-in provider constructors.
func withProviderFactories(f map[string]providerFactory) wireOption {
	return func(o *wireOptions) { o.factories = f }
}

// Wire creates all subsystems and wires them together. On error everything
// already created is closed.
func Wire(cfg *config.Config, logger *slog.Logger, opts ...wireOption) (_ *App, err error) {
	o := wireOptions{factories: builtinProviderFactories()}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	// 1. Conversation store.
	app.Store, err = store.NewConversationStore(&store.StorageConfig{Backend: cfg.Storage.Backend}, cfg.Storage.Path)
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating conversation store")
	}

	// 2. Data files behind the tools.
	if err := os.MkdirAll(cfg.Data.Dir, 0o750); err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating data directory")
	}
	app.Loader = data.NewLoader(cfg.Data.Dir, logger)
	if cfg.Data.Watch {
		w, werr := data.WatchLoader(app.Loader, 0, logger)
		if werr != nil {
			logger.Warn("data file watching disabled", "dir", cfg.Data.Dir, "error", werr)
		} else {
			app.Watcher = w
		}
	}

	toolReg, err := tools.NewRegistry(app.Loader,
		tools.WithTimeout(cfg.Agent.ToolTimeout),
		tools.WithNotesLimit(cfg.Agent.NotesLimit),
		tools.WithLogger(logger),
	)
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating tool registry")
	}

	// 3. Reasoning back ends.
	app.Providers = provider.NewRegistry()
	registerProviders(cfg, app.Providers, o.factories, logger)
	configureRouting(cfg, app.Providers, logger)

	// 4. Orchestration loop.
	loop, err := agent.NewLoop(agent.LoopConfig{
		Conversations: app.Store,
		Router:        app.Providers,
		Tools:         toolReg,
		Model:         cfg.Models.Default,
		SystemPrompt:  agent.DefaultSystemPrompt(),
		MaxRounds:     cfg.Agent.MaxRounds,
		HistoryWindow: cfg.Agent.HistoryWindow,
		NotesLimit:    cfg.Agent.NotesLimit,
		Temperature:   provider.Float32(float32(cfg.Agent.Temperature)),
		MaxTokens:     cfg.Agent.MaxTokens,
		Logger:        logger,
	})
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating agent loop")
	}

	// 5. HTTP server.
	services, err := server.NewServices(loop, app.Store, app.Providers)
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating services")
	}
	app.Server, err = server.New(server.Config{
		ListenAddr:  cfg.Networking.Listen,
		CORSOrigins: cfg.Networking.CORSOrigins,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Networking.RateLimit.RequestsPerSecond,
			Burst:             cfg.Networking.RateLimit.Burst,
		},
		CleanupMaxAge: cfg.Retention.MaxAge,
		Version:       version,
		Logger:        logger,
	}, services)
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating server")
	}

	// 6. Scheduled expiry.
	if cfg.Retention.Enabled {
		app.Retention, err = retention.New(app.Store, retention.Config{
			Schedule: cfg.Retention.Schedule,
			MaxAge:   cfg.Retention.MaxAge,
			Logger:   logger,
		})
		if err != nil {
			return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating retention scheduler")
		}
	}

	return app, nil
}

// registerProviders registers a built-in implementation for every
// configured provider. Missing keys, unresolved keyring references and
// constructor failures are logged and skipped; none is fatal at startup.
func registerProviders(cfg *config.Config, reg *provider.Registry, factories map[string]providerFactory, logger *slog.Logger) {
	for name, pc := range cfg.Providers {
		if pc.APIKey == "" {
			logger.Warn("skipping provider with empty API key", "provider", name)
			continue
		}
		if secrets.IsKeyringURI(pc.APIKey) {
			logger.Warn("skipping provider whose keyring secret could not be resolved", "provider", name)
			continue
		}
		factory, ok := factories[name]
		if !ok {
			logger.Warn("unknown provider in config, skipping", "provider", name)
			continue
		}
		p, err := factory(pc, logger)
		if err != nil {
			logger.Warn("failed to create provider", "provider", name, "error", err)
			continue
		}
		reg.Register(name, p)
		logger.Info("registered provider", "provider", name)
	}
}

// configureRouting installs the default model and every failover entry
// whose provider was registered. Without a default, chat turns answer with
// an error response rather than preventing the server from starting.
func configureRouting(cfg *config.Config, reg *provider.Registry, logger *slog.Logger) {
	if err := reg.SetDefault(cfg.Models.Default); err != nil {
		logger.Warn("default model unavailable; chat requests will fail until a provider is configured",
			"model", cfg.Models.Default, "error", err)
	}

	chain := make([]string, 0, len(cfg.Models.Failover))
	for _, ref := range cfg.Models.Failover {
		name, _ := provider.ParseRef(ref)
		if _, err := reg.Get(name); err != nil {
			logger.Warn("dropping failover model with unregistered provider", "model", ref)
			continue
		}
		chain = append(chain, ref)
	}
	if err := reg.SetFailover(chain); err != nil {
		logger.Warn("failover chain rejected", "error", err)
	}
}

// Run starts background jobs and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.Retention != nil {
		a.Retention.Start()
		defer a.Retention.Stop()
	}
	return a.Server.Start(ctx)
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	var errs []error
	if a.Watcher != nil {
		if err := a.Watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Providers != nil {
		if err := a.Providers.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
