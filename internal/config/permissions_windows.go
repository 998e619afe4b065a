// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

//go:build windows

package config

import "log/slog"

// WarnInsecurePermissions is a no-op on Windows, which uses ACLs instead of
// mode bits.
func WarnInsecurePermissions(path string, logger *slog.Logger) bool {
	if path != "" && logger != nil {
		logger.Debug("config permission check not implemented on Windows", "path", path)
	}
	return false
}
