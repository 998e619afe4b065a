// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

var _ ConversationStore = (*MemoryConversationStore)(nil)

// MemoryConversationStore keeps conversations in process memory. It backs the
// "memory" storage backend and is convenient in tests.
type MemoryConversationStore struct {
	mu       sync.Mutex
	convs    map[string]*Conversation
	messages map[string][]*Message
	seq      int64
	now      func() time.Time
}

// NewMemoryConversationStore returns an empty in-memory store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		convs:    make(map[string]*Conversation),
		messages: make(map[string][]*Message),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (s *MemoryConversationStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryConversationStore) GetOrCreate(_ context.Context, userID, providedID string) (string, error) {
	if userID == "" {
		return "", agenterr.New(agenterr.CodeStoreInvalidInput, "user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if providedID != "" {
		if c, ok := s.convs[providedID]; ok && c.UserID == userID && c.IsActive {
			touch(c, now)
			return c.ID, nil
		}
	}

	c := &Conversation{
		ID:           uuid.NewString(),
		UserID:       userID,
		CreatedAt:    now,
		LastAccessed: now,
		IsActive:     true,
	}
	s.convs[c.ID] = c
	return c.ID, nil
}

func (s *MemoryConversationStore) Append(_ context.Context, conversationID string, role MessageRole, content string, metadata map[string]string) error {
	if !role.Valid() {
		return agenterr.Errorf(agenterr.CodeStoreMessageAppendInvalid, "invalid message role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[conversationID]
	if !ok {
		return agenterr.New(agenterr.CodeStoreConversationGetNotFound, "conversation not found",
			agenterr.FieldConversationID(conversationID))
	}

	now := s.now()
	s.seq++
	s.messages[conversationID] = append(s.messages[conversationID], &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
		Seq:            s.seq,
		Metadata:       copyMetadata(metadata),
	})
	c.MessageCount++
	touch(c, now)
	return nil
}

func (s *MemoryConversationStore) Get(_ context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok {
		return nil, agenterr.New(agenterr.CodeStoreConversationGetNotFound, "conversation not found",
			agenterr.FieldConversationID(id))
	}
	touch(c, s.now())
	cp := *c
	return &cp, nil
}

func (s *MemoryConversationStore) List(_ context.Context, opts ListOpts) ([]*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		if opts.UserID != "" && c.UserID != opts.UserID {
			continue
		}
		if !opts.IncludeInactive && !c.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	// Same order as the sqlite backend: last_accessed DESC, id ASC.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastAccessed.Equal(out[j].LastAccessed) {
			return out[i].LastAccessed.After(out[j].LastAccessed)
		}
		return out[i].ID < out[j].ID
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if opts.Offset >= len(out) {
		return []*Conversation{}, nil
	}
	out = out[opts.Offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryConversationStore) History(_ context.Context, conversationID string, limit int) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[conversationID]
	if !ok {
		return nil, agenterr.New(agenterr.CodeStoreConversationGetNotFound, "conversation not found",
			agenterr.FieldConversationID(conversationID))
	}
	touch(c, s.now())

	msgs := append([]*Message(nil), s.messages[conversationID]...)
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].Seq < msgs[j].Seq
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]*Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		cp.Metadata = copyMetadata(m.Metadata)
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryConversationStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	for _, c := range s.convs {
		st.Count++
		st.MessageCount += c.MessageCount
		if c.IsActive {
			st.ActiveCount++
		}
		created := c.CreatedAt
		if st.Oldest == nil || created.Before(*st.Oldest) {
			st.Oldest = &created
		}
		if st.Newest == nil || created.After(*st.Newest) {
			st.Newest = &created
		}
	}
	return st, nil
}

func (s *MemoryConversationStore) ExpireOlderThan(_ context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, agenterr.Errorf(agenterr.CodeStoreInvalidInput, "max age must be positive, got %s", maxAge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	var n int64
	for _, c := range s.convs {
		if c.IsActive && c.LastAccessed.Before(cutoff) {
			c.IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *MemoryConversationStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.convs[id]; !ok {
		return false, nil
	}
	delete(s.convs, id)
	delete(s.messages, id)
	return true, nil
}

func (s *MemoryConversationStore) Close() error { return nil }

func touch(c *Conversation, now time.Time) {
	if now.After(c.LastAccessed) {
		c.LastAccessed = now
	}
}

func copyMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
