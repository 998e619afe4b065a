// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package anthropic

import (
	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
)

// ConvertMessages exposes convertMessages for white-box testing.
var ConvertMessages = convertMessages

// BuildParams exposes buildParams for white-box testing.
var BuildParams = func(req provider.ChatRequest) (anthropicsdk.MessageNewParams, error) {
	return buildParams(req)
}
