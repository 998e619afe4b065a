// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning when the config file at path is
// group- or world-readable. It reports whether it warned.
func WarnInsecurePermissions(path string, logger *slog.Logger) bool {
	if path == "" {
		return false
	}
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Debug("could not stat config file for permission check", "path", path, "error", err)
		return false
	}

	const readable fs.FileMode = 0o044
	if info.Mode().Perm()&readable == 0 {
		return false
	}
	logger.Warn("config file is readable by other users and may expose API keys",
		"path", path,
		"mode", info.Mode().Perm().String(),
		"recommended", "0600",
	)
	return true
}
