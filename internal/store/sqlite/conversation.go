// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// Compile-time interface check.
var _ store.ConversationStore = (*ConversationStore)(nil)

// ConversationStore implements store.ConversationStore backed by SQLite.
type ConversationStore struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a ConversationStore.
type Option func(*ConversationStore)

// WithClock overrides the time source used for created_at and last_accessed.
func WithClock(now func() time.Time) Option {
	return func(s *ConversationStore) { s.now = now }
}

// NewConversationStore opens (or creates) a SQLite database at dbPath and
// initialises the conversations and conversation_messages tables.
func NewConversationStore(dbPath string, opts ...Option) (*ConversationStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "pinging sqlite db")
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "migrating sqlite db")
	}

	s := &ConversationStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	last_accessed TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	is_active     INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);
CREATE INDEX IF NOT EXISTS idx_conversations_last_accessed ON conversations(is_active, last_accessed);

CREATE TABLE IF NOT EXISTS conversation_messages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	conversation_id TEXT NOT NULL,
	message_type    TEXT NOT NULL,
	content         TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL,
	metadata        TEXT NOT NULL DEFAULT '{}',
	FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_conversation_messages_order ON conversation_messages(conversation_id, created_at, seq);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *ConversationStore) Close() error {
	return s.db.Close()
}

func (s *ConversationStore) GetOrCreate(ctx context.Context, userID, providedID string) (string, error) {
	if userID == "" {
		return "", agenterr.New(agenterr.CodeStoreInvalidInput, "user id is required")
	}

	now := formatTime(s.now())

	if providedID != "" {
		// Ownership and liveness are checked in the same statement that bumps
		// last_accessed, so a foreign or expired id simply matches no rows.
		const touchQ = `UPDATE conversations SET last_accessed = MAX(last_accessed, ?)
WHERE id = ? AND user_id = ? AND is_active = 1`
		result, err := s.db.ExecContext(ctx, touchQ, now, providedID, userID)
		if err != nil {
			return "", agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "touching conversation",
				agenterr.FieldConversationID(providedID))
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return "", agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "checking rows affected",
				agenterr.FieldConversationID(providedID))
		}
		if rows > 0 {
			return providedID, nil
		}
	}

	id := uuid.NewString()
	const insertQ = `INSERT INTO conversations (id, user_id, created_at, last_accessed, message_count, is_active)
VALUES (?, ?, ?, ?, 0, 1)`
	if _, err := s.db.ExecContext(ctx, insertQ, id, userID, now, now); err != nil {
		return "", agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "creating conversation",
			agenterr.FieldUserID(userID))
	}
	return id, nil
}

func (s *ConversationStore) Get(ctx context.Context, id string) (*store.Conversation, error) {
	if err := s.touch(ctx, id); err != nil {
		return nil, err
	}

	const q = `SELECT id, user_id, created_at, last_accessed, message_count, is_active
FROM conversations WHERE id = ?`

	c, err := scanConversation(s.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, agenterr.New(agenterr.CodeStoreConversationGetNotFound, "conversation not found",
			agenterr.FieldConversationID(id))
	}
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "getting conversation",
			agenterr.FieldConversationID(id))
	}
	return c, nil
}

func (s *ConversationStore) List(ctx context.Context, opts store.ListOpts) ([]*store.Conversation, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	const q = `SELECT id, user_id, created_at, last_accessed, message_count, is_active
FROM conversations
WHERE (? = '' OR user_id = ?) AND (? = 1 OR is_active = 1)
ORDER BY last_accessed DESC, id ASC LIMIT ? OFFSET ?`

	includeInactive := 0
	if opts.IncludeInactive {
		includeInactive = 1
	}

	rows, err := s.db.QueryContext(ctx, q, opts.UserID, opts.UserID, includeInactive, limit, opts.Offset)
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "listing conversations")
	}
	defer rows.Close()

	convs := []*store.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "scanning conversation row")
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "iterating conversations")
	}
	return convs, nil
}

func (s *ConversationStore) Stats(ctx context.Context) (store.Stats, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(is_active), 0), COALESCE(SUM(message_count), 0),
MIN(created_at), MAX(created_at) FROM conversations`

	var st store.Stats
	var oldest, newest sql.NullString
	if err := s.db.QueryRowContext(ctx, q).Scan(&st.Count, &st.ActiveCount, &st.MessageCount, &oldest, &newest); err != nil {
		return store.Stats{}, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "computing conversation stats")
	}
	if oldest.Valid {
		t := parseTime(oldest.String)
		st.Oldest = &t
	}
	if newest.Valid {
		t := parseTime(newest.String)
		st.Newest = &t
	}
	return st, nil
}

func (s *ConversationStore) ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, agenterr.Errorf(agenterr.CodeStoreInvalidInput, "max age must be positive, got %s", maxAge)
	}

	cutoff := formatTime(s.now().Add(-maxAge))
	result, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET is_active = 0 WHERE is_active = 1 AND last_accessed < ?`, cutoff)
	if err != nil {
		return 0, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "expiring conversations")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "checking rows affected")
	}
	return n, nil
}

func (s *ConversationStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return false, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "deleting conversation",
			agenterr.FieldConversationID(id))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "checking rows affected",
			agenterr.FieldConversationID(id))
	}
	return rows > 0, nil
}

// touch bumps last_accessed without letting it move backwards.
func (s *ConversationStore) touch(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET last_accessed = MAX(last_accessed, ?) WHERE id = ?`,
		formatTime(s.now()), id)
	if err != nil {
		return agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "touching conversation",
			agenterr.FieldConversationID(id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*store.Conversation, error) {
	var c store.Conversation
	var createdAt, lastAccessed string
	var active int
	if err := row.Scan(&c.ID, &c.UserID, &createdAt, &lastAccessed, &c.MessageCount, &active); err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.LastAccessed = parseTime(lastAccessed)
	c.IsActive = active != 0
	return &c, nil
}
