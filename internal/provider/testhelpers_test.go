// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package provider_test

import (
	"context"
	"sync/atomic"

	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
)

// mockProvider is a minimal provider.Provider whose availability can be
// flipped by tests.
type mockProvider struct {
	name      string
	available atomic.Bool
	closed    atomic.Bool
	closeErr  error
}

func newMockProvider(name string, available bool) *mockProvider {
	m := &mockProvider{name: name}
	m.available.Store(available)
	return m
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Available(_ context.Context) bool { return m.available.Load() }

func (m *mockProvider) Chat(_ context.Context, _ provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	ch := make(chan provider.ChatEvent, 3)
	ch <- provider.ChatEvent{Type: provider.EventTypeTextDelta, Text: "hello"}
	ch <- provider.ChatEvent{Type: provider.EventTypeUsage, Usage: &provider.Usage{InputTokens: 10, OutputTokens: 5}}
	ch <- provider.ChatEvent{Type: provider.EventTypeDone}
	close(ch)
	return ch, nil
}

func (m *mockProvider) Close() error {
	m.closed.Store(true)
	return m.closeErr
}

// trackedProvider reports availability through a real HealthTracker.
type trackedProvider struct {
	*mockProvider
	health *provider.HealthTracker
}

func (p *trackedProvider) Available(_ context.Context) bool { return p.health.IsHealthy() }
func (p *trackedProvider) RecordFailure()                   { p.health.RecordFailure() }
func (p *trackedProvider) RecordSuccess()                   { p.health.RecordSuccess() }
func (p *trackedProvider) HealthMetrics() provider.HealthMetrics {
	return p.health.HealthMetrics()
}
