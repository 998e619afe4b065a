// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalLayouts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2024-03-01T10:30:00Z"`, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"naive with micros", `"2024-03-01T10:30:00.123456"`, time.Date(2024, 3, 1, 10, 30, 0, 123456000, time.UTC)},
		{"naive space", `"2024-03-01 10:30:00"`, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"date only", `"2024-03-01"`, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts types.Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestTimestamp_NullAndEmpty(t *testing.T) {
	var ts types.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	assert.True(t, ts.IsZero())

	out, err := json.Marshal(types.Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestamp_RejectsGarbage(t *testing.T) {
	var ts types.Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"last tuesday"`), &ts))
}

func TestRewardsFromAccount(t *testing.T) {
	acct := types.AccountOverview{
		AccountID:        "A-1",
		CurrentTier:      "Gold",
		NextTier:         "Platinum",
		PointsToNextTier: 150,
		CurrentBalance:   500,
	}

	r := types.RewardsFromAccount(acct)
	assert.Equal(t, "Gold", r.CurrentTier)
	assert.Equal(t, 500, r.TotalPoints)
	assert.Equal(t, 0, r.PointsEarnedThisQuarter)

	total, earned := 900, 120
	acct.TotalPoints = &total
	acct.PointsEarnedThisQuarter = &earned
	r = types.RewardsFromAccount(acct)
	assert.Equal(t, 900, r.TotalPoints)
	assert.Equal(t, 120, r.PointsEarnedThisQuarter)
}
