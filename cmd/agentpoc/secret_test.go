// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

func TestSecretList(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		wantKeys []string
		wantMsg  string
	}{
		{name: "empty store", wantMsg: "No secrets stored.\n"},
		{name: "single key", keys: []string{"openai-api-key"}, wantKeys: []string{"openai-api-key"}},
		{name: "multiple keys", keys: []string{"google-api-key", "openai-api-key"}, wantKeys: []string{"google-api-key", "openai-api-key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, testDeps("", newMockSecretStore(tt.keys...)), "secret", "list")
			require.NoError(t, err)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, out)
				return
			}
			lines := strings.Fields(out)
			sort.Strings(lines)
			assert.Equal(t, tt.wantKeys, lines)
		})
	}
}

func TestSecretSet(t *testing.T) {
	t.Run("value argument", func(t *testing.T) {
		s := newMockSecretStore()
		out, err := execute(t, testDeps("", s), "secret", "set", "openai-api-key", "sk-123")
		require.NoError(t, err)
		assert.Equal(t, "sk-123", s.data["openai-api-key"])
		assert.Contains(t, out, "keyring://agentpoc/openai-api-key")
	})

	t.Run("value from stdin", func(t *testing.T) {
		s := newMockSecretStore()
		_, err := execute(t, testDeps("  sk-stdin  \n", s), "secret", "set", "openai-api-key")
		require.NoError(t, err)
		assert.Equal(t, "sk-stdin", s.data["openai-api-key"])
	})

	t.Run("custom service", func(t *testing.T) {
		out, err := execute(t, testDeps("", newMockSecretStore()), "secret", "set", "k", "v", "--service", "other")
		require.NoError(t, err)
		assert.Contains(t, out, "keyring://other/k")
	})

	t.Run("empty value rejected", func(t *testing.T) {
		s := newMockSecretStore()
		_, err := execute(t, testDeps("\n", s), "secret", "set", "openai-api-key")
		require.Error(t, err)
		assert.True(t, agenterr.HasCode(err, agenterr.CodeCLIInputInvalid))
		assert.Empty(t, s.data)
	})
}

func TestSecretDelete(t *testing.T) {
	s := newMockSecretStore("openai-api-key")

	out, err := execute(t, testDeps("", s), "secret", "delete", "openai-api-key")
	require.NoError(t, err)
	assert.Equal(t, "Deleted secret: openai-api-key\n", out)
	assert.Empty(t, s.data)

	_, err = execute(t, testDeps("", s), "secret", "delete", "openai-api-key")
	require.Error(t, err)
	assert.True(t, agenterr.HasCode(err, agenterr.CodeSecretEntryNotFound))
	assert.Contains(t, err.Error(), `secret "openai-api-key" not found`)
}
