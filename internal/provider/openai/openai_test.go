// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package openai_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	"github.com/Ritika-Bitcot/agent-poc/internal/provider/openai"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

var _ provider.Provider = (*openai.Provider)(nil)
var _ provider.HealthReporter = (*openai.Provider)(nil)

func TestOpenAIProvider_Basics(t *testing.T) {
	p := mustNewProvider(t, "")
	assert.Equal(t, "openai", p.Name())
	assert.True(t, p.Available(context.Background()))
	assert.NoError(t, p.Close())
}

func TestOpenAIProvider_MissingAPIKey(t *testing.T) {
	_, err := openai.New(openai.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
	assert.True(t, agenterr.IsInvalidInput(err))
	assert.True(t, agenterr.HasCode(err, agenterr.CodeProviderRequestInvalid))
}

func TestConvertMessages(t *testing.T) {
	msgs := []provider.Message{
		{Role: provider.MessageRoleUser, Content: "show account overview"},
		{Role: provider.MessageRoleAssistant, ToolCalls: []provider.ToolCall{
			{ID: "call-1", Name: "fetch_account_details", Arguments: `{"account_id":"A1"}`},
			{ID: "call-2", Name: "fetch_facility_details"},
		}},
		{Role: provider.MessageRoleTool, Content: `{"account_overview":[]}`, ToolCallID: "call-1", ToolName: "fetch_account_details"},
		{Role: provider.MessageRoleAssistant, Content: "Here is your account."},
	}

	params, err := openai.ConvertMessages(msgs, "be helpful")
	require.NoError(t, err)
	require.Len(t, params, 5)

	require.NotNil(t, params[0].OfSystem)
	assert.Equal(t, "be helpful", params[0].OfSystem.Content.OfString.Value)

	require.NotNil(t, params[1].OfUser)
	assert.Equal(t, "show account overview", params[1].OfUser.Content.OfString.Value)

	require.NotNil(t, params[2].OfAssistant)
	calls := params[2].OfAssistant.ToolCalls
	require.Len(t, calls, 2)
	assert.Equal(t, "call-1", calls[0].ID)
	assert.Equal(t, "fetch_account_details", calls[0].Function.Name)
	assert.Equal(t, `{"account_id":"A1"}`, calls[0].Function.Arguments)
	assert.Equal(t, "{}", calls[1].Function.Arguments, "empty arguments are sent as an empty object")

	require.NotNil(t, params[3].OfTool)
	assert.Equal(t, "call-1", params[3].OfTool.ToolCallID)
	assert.Equal(t, `{"account_overview":[]}`, params[3].OfTool.Content.OfString.Value)

	require.NotNil(t, params[4].OfAssistant)
	assert.Equal(t, "Here is your account.", params[4].OfAssistant.Content.OfString.Value)
}

func TestConvertMessages_UnknownRole(t *testing.T) {
	_, err := openai.ConvertMessages([]provider.Message{{Role: "narrator", Content: "x"}}, "")
	require.Error(t, err)
	assert.True(t, agenterr.HasCode(err, agenterr.CodeProviderRequestInvalid))
}

func TestBuildParams(t *testing.T) {
	req := provider.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
		Tools: []provider.ToolDefinition{{
			Name:        "fetch_notes",
			Description: "Fetch notes",
			InputSchema: map[string]any{"type": "object"},
		}},
		Options: provider.ChatOptions{Temperature: provider.Float32(0.1), MaxTokens: 2000},
	}

	params, err := openai.BuildParams(req)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", string(params.Model))
	assert.InDelta(t, 0.1, params.Temperature.Value, 1e-6)
	assert.Equal(t, int64(2000), params.MaxCompletionTokens.Value)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "fetch_notes", params.Tools[0].Function.Name)
	assert.True(t, params.StreamOptions.IncludeUsage.Value)

	params, err = openai.BuildParams(provider.ChatRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.False(t, params.Temperature.Valid(), "nil temperature leaves the API default")
}

func sseChunk(body string) string {
	return fmt.Sprintf("data: %s\n\n", body)
}

func TestOpenAIProvider_ChatStreamsToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call-1","type":"function","function":{"name":"fetch_account_details","arguments":""}}]},"finish_reason":null}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"account_id\":"}}]},"finish_reason":null}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"A1\"}"}}]},"finish_reason":null}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":7,"total_tokens":19}}`,
		}
		for _, c := range chunks {
			_, _ = w.Write([]byte(sseChunk(c)))
		}
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := mustNewProvider(t, srv.URL)
	events := collect(t, p, provider.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "show account"}},
	})

	var calls []*provider.ToolCall
	var usage *provider.Usage
	for _, ev := range events {
		switch ev.Type {
		case provider.EventTypeToolCall:
			calls = append(calls, ev.ToolCall)
		case provider.EventTypeUsage:
			usage = ev.Usage
		case provider.EventTypeError:
			t.Fatalf("unexpected error event: %s", ev.Error)
		}
	}
	require.Len(t, calls, 1)
	assert.Equal(t, "call-1", calls[0].ID)
	assert.Equal(t, "fetch_account_details", calls[0].Name)
	assert.JSONEq(t, `{"account_id":"A1"}`, calls[0].Arguments)
	require.NotNil(t, usage)
	assert.Equal(t, 12, usage.InputTokens)
	assert.Equal(t, provider.EventTypeDone, events[len(events)-1].Type)
}

func TestOpenAIProvider_ChatUpstreamErrorMarksUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := mustNewProvider(t, srv.URL)
	events := collect(t, p, provider.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
	})

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, provider.EventTypeError, last.Type)
	assert.NotEmpty(t, last.Error)
	assert.False(t, p.Available(context.Background()))
	assert.Equal(t, int64(1), p.HealthMetrics().FailureCount)
}

func collect(t *testing.T, p *openai.Provider, req provider.ChatRequest) []provider.ChatEvent {
	t.Helper()
	ch, err := p.Chat(context.Background(), req)
	require.NoError(t, err)
	var events []provider.ChatEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

// mustNewProvider creates a provider with a dummy API key for unit tests.
func mustNewProvider(t *testing.T, baseURL string) *openai.Provider {
	t.Helper()
	p, err := openai.New(openai.Config{
		APIKey:  "test-key-not-real",
		BaseURL: baseURL,
	})
	require.NoError(t, err)
	return p
}
