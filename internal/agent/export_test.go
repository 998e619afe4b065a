// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package agent

type (
	ToolOutcome   = toolOutcome
	FallbackInput = fallbackInput
)

var (
	ExtractToolData    = extractToolData
	NewEvidence        = newEvidence
	ExtractAnswer      = extractAnswer
	IsEcho             = isEcho
	ComposeUserMessage = composeUserMessage
	FallbackText       = fallbackText
	MatchRule          = matchRule
)
