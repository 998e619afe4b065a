// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package provider

import (
	"sync"
	"time"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/health"
)

// HealthMetrics is the serializable snapshot reported by /health.
type HealthMetrics = health.Metrics

// DefaultHealthCooldown is the cooldown after a single failed model call.
const DefaultHealthCooldown = 30 * time.Second

// maxBackoffShift caps the cooldown at 8x the base cooldown.
const maxBackoffShift = 3

// HealthTracker records model call outcomes for one back end. Each failure
// in a row doubles the cooldown, up to 8x the base; any success clears it.
// The router skips a back end while it is cooling down.
type HealthTracker struct {
	mu   sync.RWMutex
	base time.Duration
	now  func() time.Time

	streak    int // consecutive failures
	failures  int64
	failedAt  time.Time
	succeeded time.Time
}

// NewHealthTracker creates a tracker that starts healthy.
func NewHealthTracker(cooldown time.Duration) (*HealthTracker, error) {
	if cooldown <= 0 {
		return nil, agenterr.Errorf(agenterr.CodeConfigValidateInvalidValue,
			"health tracker cooldown must be positive, got %s", cooldown)
	}
	return &HealthTracker{base: cooldown, now: time.Now}, nil
}

// cooldownLocked returns the current cooldown; zero while healthy.
func (h *HealthTracker) cooldownLocked() time.Duration {
	if h.streak == 0 {
		return 0
	}
	return h.base << min(h.streak-1, maxBackoffShift)
}

func (h *HealthTracker) availableLocked() bool {
	return h.streak == 0 || !h.now().Before(h.failedAt.Add(h.cooldownLocked()))
}

// IsHealthy reports whether calls may be routed to the back end: it has not
// failed since its last success, or its cooldown has elapsed.
func (h *HealthTracker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.availableLocked()
}

// RecordSuccess clears the failure streak.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streak = 0
	h.succeeded = h.now()
}

// RecordFailure extends the failure streak and restarts the cooldown.
func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streak++
	h.failures++
	h.failedAt = h.now()
}

// SetNowFunc overrides the time source.
func (h *HealthTracker) SetNowFunc(fn func() time.Time) {
	h.mu.Lock()
	h.now = fn
	h.mu.Unlock()
}

// HealthMetrics returns a snapshot of the tracker's state.
func (h *HealthTracker) HealthMetrics() HealthMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m := HealthMetrics{
		FailureCount:        h.failures,
		ConsecutiveFailures: h.streak,
		Available:           h.availableLocked(),
	}
	if h.failures > 0 {
		at := h.failedAt
		m.LastFailureAt = &at
	}
	if !h.succeeded.IsZero() {
		at := h.succeeded
		m.LastSuccessAt = &at
	}
	if h.streak > 0 {
		until := h.failedAt.Add(h.cooldownLocked())
		m.CooldownUntil = &until
	}
	return m
}
