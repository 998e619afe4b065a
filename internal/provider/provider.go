// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package provider

import (
	"context"
)

// Provider is a reasoning back end: given a message history and a set of
// tools it either requests tool calls or produces a final answer.
type Provider interface {
	Name() string
	Available(ctx context.Context) bool
	Chat(ctx context.Context, req ChatRequest) (<-chan ChatEvent, error)
	Close() error
}

// HealthReporter is implemented by providers that track their own health.
// The agent loop reports call outcomes through it so the router can skip
// a provider during its cooldown.
type HealthReporter interface {
	RecordSuccess()
	RecordFailure()
}

// Router resolves a "provider/model" reference to a concrete provider.
// Providers named in exclude are skipped; the agent loop passes the ones it
// already tried when failing over.
type Router interface {
	Route(ctx context.Context, modelRef string, exclude ...string) (Provider, string, error)
	MaxAttempts() int
}

// ChatRequest represents a request to the LLM.
type ChatRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolDefinition
	SystemPrompt string
	Options      ChatOptions
}

// ChatOptions contains model configuration. A nil Temperature leaves the
// back end's default in place.
type ChatOptions struct {
	Temperature   *float32
	MaxTokens     int
	StopSequences []string
}

// Message represents a conversation message.
//
// Assistant messages that requested tools carry them in ToolCalls; the tool
// results that answer them follow as MessageRoleTool messages with a
// matching ToolCallID.
type Message struct {
	Role       MessageRole
	Content    string
	ToolCallID string
	ToolName   string
	ToolCalls  []ToolCall
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
	MessageRoleTool      MessageRole = "tool"
)

// ToolDefinition describes a tool available to the agent.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ChatEvent is a streaming response event.
type ChatEvent struct {
	Type     EventType
	Text     string
	ToolCall *ToolCall
	Usage    *Usage
	Error    string
}

// EventType defines the type of chat event.
type EventType string

const (
	EventTypeTextDelta EventType = "text_delta"
	EventTypeToolCall  EventType = "tool_call"
	EventTypeUsage     EventType = "usage"
	EventTypeDone      EventType = "done"
	EventTypeError     EventType = "error"
)

// ToolCall represents a tool invocation by the LLM.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}

// Float32 returns a pointer to v, for ChatOptions.Temperature.
func Float32(v float32) *float32 { return &v }
