// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package agent_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ritika-Bitcot/agent-poc/internal/agent"
	"github.com/Ritika-Bitcot/agent-poc/internal/data"
	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	"github.com/Ritika-Bitcot/agent-poc/internal/tools"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// step is one scripted reasoning response. A non-nil err fails Chat itself;
// streamErr emits an error event instead.
type step struct {
	text      string
	calls     []provider.ToolCall
	err       error
	streamErr string
}

func answer(text string) step { return step{text: text} }

func callTools(calls ...provider.ToolCall) step { return step{calls: calls} }

func call(id, name, args string) provider.ToolCall {
	return provider.ToolCall{ID: id, Name: name, Arguments: args}
}

// scriptedProvider replays steps in order and repeats the last one once the
// script runs out.
type scriptedProvider struct {
	name string

	mu       sync.Mutex
	steps    []step
	requests []provider.ChatRequest
	failures int
	// onChat runs before each response; tests use it to cancel contexts.
	onChat func(n int)
}

var _ provider.Provider = (*scriptedProvider)(nil)
var _ provider.HealthReporter = (*scriptedProvider)(nil)

func newScripted(steps ...step) *scriptedProvider {
	return &scriptedProvider{name: "mock", steps: steps}
}

func (p *scriptedProvider) Name() string                     { return p.name }
func (p *scriptedProvider) Available(_ context.Context) bool { return true }
func (p *scriptedProvider) Close() error                     { return nil }
func (p *scriptedProvider) RecordSuccess()                   {}

func (p *scriptedProvider) RecordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
}

func (p *scriptedProvider) Chat(_ context.Context, req provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	n := len(p.requests)
	var s step
	if len(p.steps) > 0 {
		idx := n - 1
		if idx >= len(p.steps) {
			idx = len(p.steps) - 1
		}
		s = p.steps[idx]
	}
	onChat := p.onChat
	p.mu.Unlock()

	if onChat != nil {
		onChat(n)
	}
	if s.err != nil {
		return nil, s.err
	}

	ch := make(chan provider.ChatEvent, len(s.calls)+3)
	if s.streamErr != "" {
		ch <- provider.ChatEvent{Type: provider.EventTypeTextDelta, Text: "partial"}
		ch <- provider.ChatEvent{Type: provider.EventTypeError, Error: s.streamErr}
		close(ch)
		return ch, nil
	}
	if s.text != "" {
		ch <- provider.ChatEvent{Type: provider.EventTypeTextDelta, Text: s.text}
	}
	for i := range s.calls {
		tc := s.calls[i]
		ch <- provider.ChatEvent{Type: provider.EventTypeToolCall, ToolCall: &tc}
	}
	ch <- provider.ChatEvent{Type: provider.EventTypeDone}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Requests() []provider.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]provider.ChatRequest(nil), p.requests...)
}

func (p *scriptedProvider) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// routerFor registers providers in a real registry; the first is the
// default and the rest form the failover chain.
func routerFor(t *testing.T, provs ...*scriptedProvider) *provider.Registry {
	t.Helper()
	reg := provider.NewRegistry()
	var chain []string
	for i, p := range provs {
		reg.Register(p.name, p)
		if i > 0 {
			chain = append(chain, p.name+"/model")
		}
	}
	require.NoError(t, reg.SetDefault(provs[0].name+"/model"))
	require.NoError(t, reg.SetFailover(chain))
	return reg
}

// fakeTools answers tool calls from a fixed table.
type fakeTools struct {
	mu      sync.Mutex
	results map[string]tools.Result
	errs    map[string]error
	panics  map[string]bool
	calls   []provider.ToolCall
}

var _ agent.ToolInvoker = (*fakeTools)(nil)

func newFakeTools() *fakeTools {
	return &fakeTools{
		results: make(map[string]tools.Result),
		errs:    make(map[string]error),
		panics:  make(map[string]bool),
	}
}

func (f *fakeTools) Definitions() []provider.ToolDefinition {
	return []provider.ToolDefinition{
		{Name: tools.FetchAccountDetails},
		{Name: tools.FetchFacilityDetails},
		{Name: tools.FetchNotes},
		{Name: tools.SaveNotes},
	}
}

func (f *fakeTools) Invoke(_ context.Context, name, args string) (tools.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, provider.ToolCall{Name: name, Arguments: args})
	res, hasRes := f.results[name]
	err := f.errs[name]
	boom := f.panics[name]
	f.mu.Unlock()

	if boom {
		panic("tool exploded")
	}
	if err != nil {
		return nil, err
	}
	if !hasRes {
		return nil, agenterr.New(agenterr.CodeAgentToolNotFound, "unknown tool: "+name, agenterr.FieldTool(name))
	}
	return res, nil
}

func (f *fakeTools) Calls() []provider.ToolCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.ToolCall(nil), f.calls...)
}

// failingStore fails every operation.
type failingStore struct {
	store.ConversationStore
	appends int
}

var errStoreDown = agenterr.New(agenterr.CodeStoreDatabaseFailure, "database is locked")

func (s *failingStore) GetOrCreate(context.Context, string, string) (string, error) {
	return "", errStoreDown
}

func (s *failingStore) Append(context.Context, string, store.MessageRole, string, map[string]string) error {
	s.appends++
	return errStoreDown
}

func (s *failingStore) History(context.Context, string, int) ([]*store.Message, error) {
	return nil, errStoreDown
}

// appendFailingStore resolves conversations but cannot write.
type appendFailingStore struct {
	*store.MemoryConversationStore
}

func (s appendFailingStore) Append(context.Context, string, store.MessageRole, string, map[string]string) error {
	return errors.New("disk full")
}

func accountRecord(id string) data.Record {
	return data.Record{
		"account_id":          id,
		"name":                "Glow Aesthetics",
		"status":              "ACTIVE",
		"current_balance":     1200,
		"pending_balance":     50,
		"current_tier":        "GOLD",
		"next_tier":           "PLATINUM",
		"points_to_next_tier": 300,
	}
}

func facilityRecord(id, accountID, name string) data.Record {
	return data.Record{
		"id":         id,
		"name":       name,
		"account_id": accountID,
		"status":     "ACTIVE",
	}
}

func noteRecord(id, userID, title, createdAt string) data.Record {
	return data.Record{
		"id":         id,
		"user_id":    userID,
		"title":      title,
		"content":    "content of " + title,
		"created_at": createdAt,
	}
}

type loopFixture struct {
	loop     *agent.Loop
	provider *scriptedProvider
	tools    *fakeTools
	store    *store.MemoryConversationStore
}

func newFixture(t *testing.T, prov *scriptedProvider, mutate ...func(*agent.LoopConfig)) *loopFixture {
	t.Helper()
	st := store.NewMemoryConversationStore()
	ft := newFakeTools()
	cfg := agent.LoopConfig{
		Conversations: st,
		Router:        routerFor(t, prov),
		Tools:         ft,
		MaxRounds:     5,
		NotesLimit:    5,
		Logger:        discardLogger(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	l, err := agent.NewLoop(cfg)
	require.NoError(t, err)
	return &loopFixture{loop: l, provider: prov, tools: ft, store: st}
}
