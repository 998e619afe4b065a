// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ritika-Bitcot/agent-poc/internal/config"
)

func newServeCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the agent HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, d)
		},
	}
	cmd.Flags().String("listen", "", "override networking.listen (host:port)")
	return cmd
}

// loadServeConfig loads the config, bootstrapping the user config file on
// first run when no file was found.
func loadServeConfig(path string, d deps, logger *slog.Logger) (*config.Config, error) {
	store := d.secrets()
	cfg, err := config.Load(path, config.WithSecrets(store), config.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if path != "" || cfg.File != "" {
		return cfg, nil
	}

	def, err := config.DefaultConfigPath()
	if err != nil {
		return cfg, nil
	}
	if !config.Bootstrap(def, logger) {
		return cfg, nil
	}
	return config.Load(def, config.WithSecrets(store), config.WithLogger(logger))
}

func runServe(cmd *cobra.Command, d deps) error {
	configPath, _ := cmd.Flags().GetString("config")

	bootLogger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg, err := loadServeConfig(configPath, d, bootLogger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.WarnInsecurePermissions(cfg.File, bootLogger)

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Networking.Listen = listen
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := Wire(cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring: %w", err)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Warn("error during shutdown", "error", cerr)
		}
	}()

	logger.Info("agentpoc starting",
		"version", version,
		"listen", cfg.Networking.Listen,
		"config", cfg.File,
		"storage", cfg.Storage.Backend,
	)
	return app.Run(ctx)
}

