// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package retention_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritika-Bitcot/agent-poc/internal/retention"
	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingExpirer struct {
	calls  atomic.Int32
	maxAge time.Duration
	err    error
}

func (e *countingExpirer) ExpireOlderThan(_ context.Context, maxAge time.Duration) (int64, error) {
	e.calls.Add(1)
	e.maxAge = maxAge
	if e.err != nil {
		return 0, e.err
	}
	return 2, nil
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		store retention.Expirer
		cfg   retention.Config
	}{
		{"nil store", nil, retention.Config{Schedule: "@every 1h", MaxAge: time.Hour}},
		{"zero max age", &countingExpirer{}, retention.Config{Schedule: "@every 1h"}},
		{"bad schedule", &countingExpirer{}, retention.Config{Schedule: "whenever", MaxAge: time.Hour}},
		{"six fields", &countingExpirer{}, retention.Config{Schedule: "0 0 * * * *", MaxAge: time.Hour}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := retention.New(tt.store, tt.cfg)
			require.Error(t, err)
			assert.True(t, agenterr.HasCode(err, agenterr.CodeRetentionScheduleInvalid))
		})
	}
}

func TestRunOnce_ExpiresIdleConversations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem := store.NewMemoryConversationStore()
	mem.SetClock(func() time.Time { return now })

	idle, err := mem.GetOrCreate(ctx, "user-1", "")
	require.NoError(t, err)

	now = now.Add(48 * time.Hour)
	fresh, err := mem.GetOrCreate(ctx, "user-2", "")
	require.NoError(t, err)

	s, err := retention.New(mem, retention.Config{Schedule: "@every 1h", MaxAge: 24 * time.Hour, Logger: quietLogger()})
	require.NoError(t, err)

	n, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	c, err := mem.Get(ctx, idle)
	require.NoError(t, err)
	assert.False(t, c.IsActive)
	c, err = mem.Get(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, c.IsActive)

	n, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunOnce_PropagatesStoreError(t *testing.T) {
	exp := &countingExpirer{err: errors.New("disk gone")}
	s, err := retention.New(exp, retention.Config{Schedule: "0 3 * * *", MaxAge: time.Hour, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, time.Hour, exp.maxAge)
}

func TestStartStop(t *testing.T) {
	exp := &countingExpirer{}
	s, err := retention.New(exp, retention.Config{Schedule: "@every 1s", MaxAge: time.Hour, Logger: quietLogger()})
	require.NoError(t, err)

	assert.True(t, s.Next().IsZero())
	s.Start()
	s.Start()
	assert.False(t, s.Next().IsZero())

	assert.Eventually(t, func() bool { return exp.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	s.Stop()
	s.Stop()
	calls := exp.calls.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, calls, exp.calls.Load(), "no sweeps after Stop")

	s.Start()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, calls, exp.calls.Load(), "a stopped scheduler does not restart")
}
