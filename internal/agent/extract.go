// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package agent

import (
	"strings"

	"github.com/Ritika-Bitcot/agent-poc/internal/data"
	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	"github.com/Ritika-Bitcot/agent-poc/internal/tools"
)

// minAnswerLength is the trimmed length an assistant message must exceed to
// count as an answer.
const minAnswerLength = 10

// toolOutcome is one executed tool call, in arrival order.
type toolOutcome struct {
	Call   provider.ToolCall
	Result tools.Result
	Err    error
}

// ToolData is the structured data accumulated across one run. A key seen
// twice keeps the last result.
type ToolData struct {
	Accounts   []data.Record
	Facilities []data.Record
	Notes      []data.Record
	Saved      *tools.SaveAck

	// facilityFetched is set when the facility tool answered, even with
	// an empty list.
	facilityFetched bool
}

// HasAccount reports whether account data was fetched.
func (d ToolData) HasAccount() bool { return len(d.Accounts) > 0 }

// HasFacility reports whether facility data was fetched.
func (d ToolData) HasFacility() bool { return len(d.Facilities) > 0 }

// HasNotes reports whether note data was fetched.
func (d ToolData) HasNotes() bool { return len(d.Notes) > 0 }

// extractToolData folds the outcomes into a ToolData. Failed calls carry no
// data and are skipped.
func extractToolData(outcomes []toolOutcome) ToolData {
	var d ToolData
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			continue
		}
		switch r := o.Result.(type) {
		case tools.AccountResult:
			d.Accounts = r.Accounts
		case tools.FacilityResult:
			d.Facilities = r.Facilities
			d.facilityFetched = true
		case tools.NotesResult:
			d.Notes = r.Notes
		case tools.SaveAck:
			ack := r
			d.Saved = &ack
		}
	}
	return d
}

// Evidence is everything the classifier may look at.
type Evidence struct {
	Query       string
	ToolsCalled []string
	HasAccount  bool
	HasFacility bool
	HasNotes    bool
}

// Called reports whether the named tool ran at least once.
func (e Evidence) Called(name string) bool {
	for _, t := range e.ToolsCalled {
		if t == name {
			return true
		}
	}
	return false
}

func newEvidence(query string, outcomes []toolOutcome, d ToolData) Evidence {
	return Evidence{
		Query:       query,
		ToolsCalled: calledTools(outcomes),
		HasAccount:  d.HasAccount(),
		HasFacility: d.HasFacility(),
		HasNotes:    d.HasNotes(),
	}
}

// extractAnswer walks the assistant texts of the current run from most
// recent backward and returns the first real answer, or "".
func extractAnswer(assistantTexts []string) string {
	for i := len(assistantTexts) - 1; i >= 0; i-- {
		text := strings.TrimSpace(assistantTexts[i])
		if len(text) <= minAnswerLength || isEcho(text) {
			continue
		}
		return text
	}
	return ""
}
