// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ritika-Bitcot/agent-poc/internal/config"
	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	"github.com/Ritika-Bitcot/agent-poc/internal/secrets"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

const testAnswer = "Your account is active and in good standing."

// mockSecretStore is an in-memory secrets.Store.
type mockSecretStore struct {
	data map[string]string
}

func newMockSecretStore(keys ...string) *mockSecretStore {
	m := &mockSecretStore{data: make(map[string]string)}
	for _, k := range keys {
		m.data[k] = "redacted"
	}
	return m
}

func (m *mockSecretStore) Store(_, key, value string) error {
	m.data[key] = value
	return nil
}

func (m *mockSecretStore) Retrieve(_, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", agenterr.Errorf(agenterr.CodeSecretEntryNotFound, "not found")
	}
	return v, nil
}

func (m *mockSecretStore) Delete(_, key string) error {
	if _, ok := m.data[key]; !ok {
		return agenterr.Errorf(agenterr.CodeSecretEntryNotFound, "not found")
	}
	delete(m.data, key)
	return nil
}

func (m *mockSecretStore) List(_ string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// answerProvider answers every request with a fixed text.
type answerProvider struct {
	name   string
	answer string
}

func (p *answerProvider) Name() string                     { return p.name }
func (p *answerProvider) Available(_ context.Context) bool { return true }
func (p *answerProvider) Close() error                     { return nil }

func (p *answerProvider) Chat(_ context.Context, _ provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	ch := make(chan provider.ChatEvent, 2)
	ch <- provider.ChatEvent{Type: provider.EventTypeTextDelta, Text: p.answer}
	ch <- provider.ChatEvent{Type: provider.EventTypeDone}
	close(ch)
	return ch, nil
}

func fakeFactories() map[string]providerFactory {
	return map[string]providerFactory{
		"openai": func(config.ProviderConfig, *slog.Logger) (provider.Provider, error) {
			return &answerProvider{name: "openai", answer: testAnswer}, nil
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Networking: config.NetworkingConfig{Listen: "127.0.0.1:0", CORSOrigins: []string{"*"}},
		Providers:  map[string]config.ProviderConfig{"openai": {APIKey: "sk-test"}},
		Models:     config.ModelsConfig{Default: "openai/gpt-test"},
		Agent: config.AgentConfig{
			MaxRounds:     3,
			Temperature:   0.1,
			MaxTokens:     500,
			ToolTimeout:   5 * time.Second,
			HistoryWindow: 10,
			NotesLimit:    5,
		},
		Storage:   config.StorageConfig{Backend: "memory", Path: t.TempDir()},
		Data:      config.DataConfig{Dir: t.TempDir()},
		Retention: config.RetentionConfig{Schedule: "@every 1h", MaxAge: time.Hour},
		Logging:   config.LoggingConfig{Level: "error", Format: "text"},
	}
}

// newTestApp wires an App with the fake provider and serves it over HTTP.
func newTestApp(t *testing.T) (*App, *httptest.Server) {
	t.Helper()
	app, err := Wire(testConfig(t), discardLogger(), withProviderFactories(fakeFactories()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ts := httptest.NewServer(app.Server.Handler())
	t.Cleanup(ts.Close)
	return app, ts
}

func testDeps(stdin string, store secrets.Store) deps {
	return deps{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		secrets:    func() secrets.Store { return store },
		stdin:      strings.NewReader(stdin),
	}
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(d)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}
