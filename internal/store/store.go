// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package store

import (
	"context"
	"time"
)

// ConversationStore persists conversations and their messages across requests.
// Every method is safe to retry and safe for concurrent use.
type ConversationStore interface {
	// GetOrCreate returns providedID when it names an active conversation
	// owned by userID. Otherwise it creates a new conversation and returns
	// its id. Either way last_accessed is bumped.
	GetOrCreate(ctx context.Context, userID, providedID string) (string, error)

	// Append adds a message and bumps message_count and last_accessed.
	Append(ctx context.Context, conversationID string, role MessageRole, content string, metadata map[string]string) error

	Get(ctx context.Context, id string) (*Conversation, error)
	List(ctx context.Context, opts ListOpts) ([]*Conversation, error)

	// History returns the most recent limit messages in chronological order.
	History(ctx context.Context, conversationID string, limit int) ([]*Message, error)

	Stats(ctx context.Context) (Stats, error)

	// ExpireOlderThan deactivates active conversations not accessed within
	// maxAge and reports how many were affected.
	ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)

	// Delete removes a conversation and its messages. It reports false when
	// no such conversation existed.
	Delete(ctx context.Context, id string) (bool, error)

	Close() error
}
