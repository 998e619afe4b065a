// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// Append inserts a message and updates the conversation counters in one
// transaction. The AUTOINCREMENT seq column orders messages that share a
// created_at value.
func (s *ConversationStore) Append(ctx context.Context, conversationID string, role store.MessageRole, content string, metadata map[string]string) error {
	if !role.Valid() {
		return agenterr.Errorf(agenterr.CodeStoreMessageAppendInvalid, "invalid message role %q", role)
	}

	meta := []byte("{}")
	if len(metadata) > 0 {
		var err error
		meta, err = json.Marshal(metadata)
		if err != nil {
			return agenterr.Wrap(err, agenterr.CodeStoreMessageAppendInvalid, "marshalling message metadata")
		}
	}

	now := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "beginning append transaction")
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE conversations SET message_count = message_count + 1, last_accessed = MAX(last_accessed, ?) WHERE id = ?`,
		now, conversationID)
	if err != nil {
		return agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "updating conversation counters",
			agenterr.FieldConversationID(conversationID))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "checking rows affected",
			agenterr.FieldConversationID(conversationID))
	}
	if rows == 0 {
		return agenterr.New(agenterr.CodeStoreConversationGetNotFound, "conversation not found",
			agenterr.FieldConversationID(conversationID))
	}

	const insertQ = `INSERT INTO conversation_messages (id, conversation_id, message_type, content, created_at, metadata)
VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertQ, uuid.NewString(), conversationID, string(role), content, now, string(meta)); err != nil {
		return agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "inserting message",
			agenterr.FieldConversationID(conversationID))
	}

	if err := tx.Commit(); err != nil {
		return agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "committing append",
			agenterr.FieldConversationID(conversationID))
	}
	return nil
}

func (s *ConversationStore) History(ctx context.Context, conversationID string, limit int) ([]*store.Message, error) {
	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	// Sub-select the N most recent, then re-order chronologically.
	const q = `SELECT seq, id, conversation_id, message_type, content, created_at, metadata
FROM (
	SELECT seq, id, conversation_id, message_type, content, created_at, metadata
	FROM conversation_messages WHERE conversation_id = ?
	ORDER BY created_at DESC, seq DESC LIMIT ?
) ORDER BY created_at ASC, seq ASC`

	rows, err := s.db.QueryContext(ctx, q, conversationID, limit)
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "loading history",
			agenterr.FieldConversationID(conversationID))
	}
	defer rows.Close()

	msgs := []*store.Message{}
	for rows.Next() {
		var msg store.Message
		var createdAt, metaJSON string
		if err := rows.Scan(
			&msg.Seq,
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&createdAt,
			&metaJSON,
		); err != nil {
			return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "scanning message row")
		}
		msg.CreatedAt = parseTime(createdAt)
		if metaJSON != "" && metaJSON != "{}" {
			if err := json.Unmarshal([]byte(metaJSON), &msg.Metadata); err != nil {
				return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "unmarshalling message metadata")
			}
		}
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "iterating messages")
	}
	return msgs, nil
}

// timeLayout is fixed-width so stored values sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
