// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

// Package health holds the provider health snapshot served by /health.
package health

import "time"

// Metrics is a point-in-time view of one reasoning back end.
type Metrics struct {
	Provider            string     `json:"provider"`
	Available           bool       `json:"available"`
	FailureCount        int64      `json:"failure_count"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	CooldownUntil       *time.Time `json:"cooldown_until,omitempty"`
}
