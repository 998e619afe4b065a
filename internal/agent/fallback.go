// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package agent

import (
	"fmt"
	"strings"

	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

// TierPhrases mark a question about loyalty standing. When one matches, the
// account summary focuses on tier, points and free vials.
var TierPhrases = []string{
	"tier",
	"points",
	"point",
	"rewards",
	"reward",
	"loyalty",
	"free vial",
	"vials",
	"next level",
	"evolux",
}

const (
	noDataText = "I couldn't find any information to answer your request. " +
		"Please try rephrasing your question or check the account and facility IDs."
	roundCapPrefix = "I reached the limit of steps I can take for one request, so here is what I found so far. "
	roundCapNoData = "I reached the limit of steps I can take for one request before finding an answer. " +
		"Please try a more specific question."
)

// fallbackInput is what the fallback templates may draw on. The records are
// everything fetched, not only what the card shows: an "other" card for
// "how many points do I have?" still answers from the account.
type fallbackInput struct {
	Card        types.CardKey
	Query       string
	Accounts    []types.AccountOverview
	Facilities  []types.FacilityOverview
	Notes       []types.NoteOverview
	Saved       string
	Termination Termination
}

// fallbackText produces a deterministic summary when the reasoning step
// gave no usable answer.
func fallbackText(in fallbackInput) string {
	body := fallbackBody(in)
	if in.Termination == TerminationRoundCap {
		if body == "" {
			return roundCapNoData
		}
		return roundCapPrefix + body
	}
	if body == "" {
		return noDataText
	}
	return body
}

func fallbackBody(in fallbackInput) string {
	if in.Card == types.CardNotesOverview {
		if in.Saved != "" {
			return in.Saved
		}
		return notesSummary(in.Notes)
	}
	if len(in.Accounts) > 0 {
		acct := in.Accounts[0]
		if containsAny(in.Query, TierPhrases) {
			return tierSummary(acct)
		}
		text := accountSummary(acct)
		if fac := facilityNames(in.Facilities); fac != "" {
			text += " " + fac
		}
		return text
	}
	return facilitySummary(in.Facilities)
}

func accountSummary(a types.AccountOverview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Account %s (%s) is %s.", a.Name, a.AccountID, strings.ToLower(a.Status))
	fmt.Fprintf(&b, " Current loyalty balance is %d points (%d pending).", a.CurrentBalance, a.PendingBalance)
	if a.TotalAmountDue > 0 {
		fmt.Fprintf(&b, " Total amount due is $%.2f.", a.TotalAmountDue)
	}
	if a.CurrentTier != "" {
		fmt.Fprintf(&b, " Current tier: %s.", a.CurrentTier)
	}
	return b.String()
}

func tierSummary(a types.AccountOverview) string {
	r := types.RewardsFromAccount(a)
	var b strings.Builder
	fmt.Fprintf(&b, "You are currently at the %s tier with %d points.", orUnknown(r.CurrentTier), r.TotalPoints)
	if r.NextTier != "" {
		fmt.Fprintf(&b, " You need %d more points to reach %s.", r.PointsToNextTier, r.NextTier)
	}
	if !r.QuarterEndDate.IsZero() {
		fmt.Fprintf(&b, " The current quarter ends on %s.", r.QuarterEndDate.Format("January 2, 2006"))
	}
	fmt.Fprintf(&b, " You have %d free %s available", r.FreeVialsAvailable, plural(r.FreeVialsAvailable, "vial", "vials"))
	if r.RewardsRequiredForNextFreeVial > 0 {
		fmt.Fprintf(&b, " and %d of %d rewards toward the next one",
			r.RewardsRedeemedTowardsNextFreeVial, r.RewardsRequiredForNextFreeVial)
	}
	b.WriteString(".")
	return b.String()
}

func facilitySummary(facilities []types.FacilityOverview) string {
	switch len(facilities) {
	case 0:
		return ""
	case 1:
		f := facilities[0]
		var b strings.Builder
		fmt.Fprintf(&b, "Facility %s is %s.", f.Name, orUnknown(strings.ToLower(f.Status)))
		if f.AgreementStatus != "" {
			fmt.Fprintf(&b, " Agreement status: %s", f.AgreementStatus)
			if f.AgreementType != "" {
				fmt.Fprintf(&b, " (%s)", f.AgreementType)
			}
			b.WriteString(".")
		}
		if f.MedicalLicenseStatus != "" {
			fmt.Fprintf(&b, " Medical license status: %s.", f.MedicalLicenseStatus)
		}
		return b.String()
	}
	parts := make([]string, 0, len(facilities))
	for _, f := range facilities {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Name, orUnknown(strings.ToLower(f.Status))))
	}
	return fmt.Sprintf("Found %d facilities: %s.", len(facilities), strings.Join(parts, ", "))
}

func facilityNames(facilities []types.FacilityOverview) string {
	if len(facilities) == 0 {
		return ""
	}
	names := make([]string, 0, len(facilities))
	for _, f := range facilities {
		names = append(names, f.Name)
	}
	return fmt.Sprintf("It has %d %s: %s.", len(facilities),
		plural(len(facilities), "facility", "facilities"), strings.Join(names, ", "))
}

func notesSummary(notes []types.NoteOverview) string {
	if len(notes) == 0 {
		return "You don't have any saved notes yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here %s your %d most recent %s:", plural(len(notes), "is", "are"), len(notes),
		plural(len(notes), "note", "notes"))
	for i, n := range notes {
		fmt.Fprintf(&b, "\n%d. %s", i+1, n.Title)
		if !n.CreatedAt.IsZero() {
			fmt.Fprintf(&b, " (%s)", n.CreatedAt.Format("2006-01-02"))
		}
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
