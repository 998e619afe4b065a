// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

//go:build !windows

package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritika-Bitcot/agent-poc/internal/config"
)

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestWarnInsecurePermissions(t *testing.T) {
	tests := []struct {
		name     string
		perm     os.FileMode
		wantWarn bool
	}{
		{"owner only 0600", 0o600, false},
		{"owner read 0400", 0o400, false},
		{"group readable 0640", 0o640, true},
		{"world readable 0604", 0o604, true},
		{"everyone 0644", 0o644, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "agentpoc.yaml")
			require.NoError(t, os.WriteFile(path, []byte("networking:\n  listen: ':8080'\n"), 0o600))
			require.NoError(t, os.Chmod(path, tt.perm))

			var buf bytes.Buffer
			warned := config.WarnInsecurePermissions(path, bufferLogger(&buf))

			assert.Equal(t, tt.wantWarn, warned)
			if tt.wantWarn {
				assert.Contains(t, buf.String(), "readable by other users")
				assert.Contains(t, buf.String(), path)
				assert.Contains(t, buf.String(), "0600")
			} else {
				assert.NotContains(t, buf.String(), "level=WARN")
			}
		})
	}
}

func TestWarnInsecurePermissions_EmptyAndMissing(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, config.WarnInsecurePermissions("", bufferLogger(&buf)))
	assert.Empty(t, buf.String())

	assert.False(t, config.WarnInsecurePermissions("/nonexistent/agentpoc.yaml", bufferLogger(&buf)))
	assert.NotContains(t, buf.String(), "level=WARN")
}
