// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package agent

import (
	_ "embed"
	"strings"

	"github.com/Ritika-Bitcot/agent-poc/internal/tools"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

//go:embed prompts/system.md
var defaultSystemPrompt string

// DefaultSystemPrompt returns the built-in tool-usage policy.
func DefaultSystemPrompt() string { return defaultSystemPrompt }

// Marker phrases of the injected context block. An assistant message
// containing one of these is an echo of the prompt, not an answer.
const (
	markerUserQuery  = "User Query:"
	markerContext    = "Context:"
	markerPleaseHelp = "Please help"
)

var echoMarkers = []string{markerUserQuery, markerContext, markerPleaseHelp}

// composeUserMessage frames the literal query together with the caller's
// identifiers, telling the reasoning step which id goes to which tool.
func composeUserMessage(req types.AgentRequest) string {
	var b strings.Builder
	b.WriteString(markerUserQuery)
	b.WriteString(" ")
	b.WriteString(req.Text)
	b.WriteString("\n\n")
	b.WriteString(markerContext)
	b.WriteString("\n")
	b.WriteString("- Account ID: " + req.AccountID + " (use as account_id for " +
		tools.FetchAccountDetails + " and " + tools.FetchFacilityDetails + ")\n")
	b.WriteString("- User ID: " + req.UserID + " (use as user_id for " +
		tools.FetchNotes + " and " + tools.SaveNotes + ")\n")
	if req.FacilityID != "" {
		b.WriteString("- Facility ID: " + req.FacilityID + " (use as facility_id for " +
			tools.FetchFacilityDetails + ")\n")
	}
	if req.Title != "" {
		b.WriteString("- Title: " + req.Title + "\n")
	}
	return b.String()
}

// isEcho reports whether text repeats the injected context block.
func isEcho(text string) bool {
	for _, m := range echoMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
