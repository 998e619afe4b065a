// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	"github.com/Ritika-Bitcot/agent-poc/internal/server"
	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

// fakeChat echoes the request into an account card.
type fakeChat struct {
	mu   sync.Mutex
	reqs []types.AgentRequest
}

func (f *fakeChat) Run(_ context.Context, req types.AgentRequest) *types.AgentResponse {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	convID := req.ConversationID
	if convID == "" {
		convID = "conv-new"
	}
	resp := types.NewOtherResponse(convID, "You said: "+req.Text)
	resp.CardKey = types.CardAccountOverview
	return resp
}

func (f *fakeChat) requests() []types.AgentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.AgentRequest(nil), f.reqs...)
}

type fakeProviders struct{}

func (fakeProviders) Health(context.Context) []provider.HealthMetrics {
	return []provider.HealthMetrics{{Provider: "openai", Available: true}}
}

type fixture struct {
	handler http.Handler
	chat    *fakeChat
	store   *store.MemoryConversationStore
	now     *time.Time
}

func newFixture(t *testing.T, mutate ...func(*server.Config)) *fixture {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{chat: &fakeChat{}, store: store.NewMemoryConversationStore(), now: &now}
	f.store.SetClock(func() time.Time { return *f.now })

	svc, err := server.NewServices(f.chat, f.store, fakeProviders{})
	require.NoError(t, err)

	cfg := server.Config{
		ListenAddr:    "127.0.0.1:0",
		CleanupMaxAge: 24 * time.Hour,
		Version:       "1.2.3",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	srv, err := server.New(cfg, svc)
	require.NoError(t, err)
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

// seed creates a conversation with n alternating messages.
func (f *fixture) seed(t *testing.T, userID string, n int) string {
	t.Helper()
	ctx := context.Background()
	id, err := f.store.GetOrCreate(ctx, userID, "")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		role := store.MessageRoleHuman
		if i%2 == 1 {
			role = store.MessageRoleAssistant
		}
		require.NoError(t, f.store.Append(ctx, id, role, "message", nil))
	}
	return id
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
