// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package types

import (
	"strings"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// CardKey identifies which UI card a caller should render for a response.
type CardKey string

const (
	CardAccountOverview  CardKey = "account_overview"
	CardFacilityOverview CardKey = "facility_overview"
	CardNotesOverview    CardKey = "notes_overview"
	CardOther            CardKey = "other"
)

// Valid reports whether k is one of the four presentation categories.
func (k CardKey) Valid() bool {
	switch k {
	case CardAccountOverview, CardFacilityOverview, CardNotesOverview, CardOther:
		return true
	default:
		return false
	}
}

// ParseCardKey parses a case-insensitive string into a CardKey.
func ParseCardKey(s string) (CardKey, error) {
	k := CardKey(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", agenterr.Errorf(agenterr.CodeAgentLoopInvalidInput,
			"invalid card key: %q", s)
	}
	return k, nil
}
