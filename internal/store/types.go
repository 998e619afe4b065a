// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package store

import (
	"time"
)

// MessageRole identifies the sender of a message in a conversation.
type MessageRole string

const (
	MessageRoleHuman     MessageRole = "human"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
	MessageRoleSystem    MessageRole = "system"
)

// Valid reports whether r is a known message role.
func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleHuman, MessageRoleAssistant, MessageRoleTool, MessageRoleSystem:
		return true
	default:
		return false
	}
}

// Conversation is the durable record of one multi-turn exchange with a user.
// LastAccessed never moves backwards and MessageCount only grows.
type Conversation struct {
	ID           string    `json:"conversation_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	MessageCount int64     `json:"message_count"`
	IsActive     bool      `json:"is_active"`
}

// Message is one append-only entry in a conversation. Seq is the store's
// insertion order and breaks ties between equal CreatedAt values.
type Message struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	Role           MessageRole       `json:"role"`
	Content        string            `json:"content"`
	CreatedAt      time.Time         `json:"created_at"`
	Seq            int64             `json:"seq"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Stats aggregates over every stored conversation.
type Stats struct {
	Count        int64      `json:"count"`
	ActiveCount  int64      `json:"active_count"`
	MessageCount int64      `json:"message_count"`
	Oldest       *time.Time `json:"oldest,omitempty"`
	Newest       *time.Time `json:"newest,omitempty"`
}

// ListOpts provides pagination and filtering for List.
type ListOpts struct {
	Limit           int
	Offset          int
	UserID          string
	IncludeInactive bool
}

// DefaultListLimit applies when ListOpts.Limit is not positive.
const DefaultListLimit = 100
