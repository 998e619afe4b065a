// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

//go:embed agentpoc.yaml.default
var DefaultConfigYAML []byte

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", agenterr.Wrap(err, agenterr.CodeConfigLoadReadFailure, "resolving home directory")
	}
	return filepath.Join(home, ".config", "agentpoc"), nil
}

// DefaultConfigPath returns ~/.config/agentpoc/agentpoc.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "agentpoc.yaml"), nil
}

// DefaultDocument parses the embedded default config.
func DefaultDocument() (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(DefaultConfigYAML, &doc); err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeConfigParseInvalidFormat, "parsing embedded default config")
	}
	return doc, nil
}

// Bootstrap writes the commented default config to path unless a file is
// already there. It returns true when a file was written. Failures are
// logged and skipped.
func Bootstrap(path string, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(path); err == nil {
		return false
	}
	if _, err := DefaultDocument(); err != nil {
		logger.Warn("skipping config bootstrap", "error", err)
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		logger.Debug("skipping config bootstrap: cannot create directory", "path", path, "error", err)
		return false
	}
	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		logger.Debug("skipping config bootstrap: cannot write config", "path", path, "error", err)
		return false
	}
	logger.Info("created default config", "path", path)
	return true
}
