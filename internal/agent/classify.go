// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package agent

import (
	"strings"

	"github.com/Ritika-Bitcot/agent-poc/internal/tools"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

// OverviewPhrases mark a query as an explicit request for the account card.
// Matching is case-insensitive.
var OverviewPhrases = []string{"account overview", "show account", "account details"}

// ClassificationRule maps evidence to a card. Rules are tried in order and
// the first match wins.
type ClassificationRule struct {
	Name  string
	Match func(Evidence) bool
	Card  types.CardKey
}

// DefaultRules is the decision order for card selection.
var DefaultRules = []ClassificationRule{
	{
		Name: "notes_tool_called",
		Match: func(ev Evidence) bool {
			return ev.Called(tools.FetchNotes) || ev.Called(tools.SaveNotes)
		},
		Card: types.CardNotesOverview,
	},
	{
		Name:  "account_and_facility_data",
		Match: func(ev Evidence) bool { return ev.HasAccount && ev.HasFacility },
		Card:  types.CardAccountOverview,
	},
	{
		Name:  "facility_data_only",
		Match: func(ev Evidence) bool { return ev.HasFacility && !ev.HasAccount },
		Card:  types.CardFacilityOverview,
	},
	{
		Name:  "account_data_with_overview_phrase",
		Match: func(ev Evidence) bool { return ev.HasAccount && containsAny(ev.Query, OverviewPhrases) },
		Card:  types.CardAccountOverview,
	},
}

// Classify picks the card for ev using DefaultRules.
func Classify(ev Evidence) types.CardKey {
	return ClassifyWith(DefaultRules, ev)
}

// ClassifyWith picks the card for ev from rules, falling back to "other".
func ClassifyWith(rules []ClassificationRule, ev Evidence) types.CardKey {
	card, _ := matchRule(rules, ev)
	return card
}

// matchRule also returns the winning rule's name for logging.
func matchRule(rules []ClassificationRule, ev Evidence) (types.CardKey, string) {
	for _, r := range rules {
		if r.Match != nil && r.Match(ev) && r.Card.Valid() {
			return r.Card, r.Name
		}
	}
	return types.CardOther, "default"
}

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
