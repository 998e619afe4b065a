// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package server

import (
	"context"
	"time"

	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

// ChatService runs one conversational turn. It never fails: every outcome
// is an AgentResponse.
type ChatService interface {
	Run(ctx context.Context, req types.AgentRequest) *types.AgentResponse
}

// ConversationService is the read and maintenance side of the
// conversation store.
type ConversationService interface {
	List(ctx context.Context, opts store.ListOpts) ([]*store.Conversation, error)
	Get(ctx context.Context, id string) (*store.Conversation, error)
	History(ctx context.Context, conversationID string, limit int) ([]*store.Message, error)
	Stats(ctx context.Context) (store.Stats, error)
	Delete(ctx context.Context, id string) (bool, error)
	ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}

// ProviderService reports reasoning back end health.
type ProviderService interface {
	Health(ctx context.Context) []provider.HealthMetrics
}

var (
	_ ConversationService = (store.ConversationStore)(nil)
	_ ProviderService     = (*provider.Registry)(nil)
)

// Services holds dependencies injected into route handlers.
// Use NewServices to ensure all required services are provided.
type Services struct {
	chat          ChatService
	conversations ConversationService
	providers     ProviderService // optional; nil omits provider health
}

// NewServices creates a Services instance with validation. The optional
// providers argument enables provider health on /health.
func NewServices(chat ChatService, conversations ConversationService, providers ...ProviderService) (*Services, error) {
	if chat == nil {
		return nil, agenterr.New(agenterr.CodeServerConfigInvalid, "chat service is required")
	}
	if conversations == nil {
		return nil, agenterr.New(agenterr.CodeServerConfigInvalid, "conversation service is required")
	}
	if len(providers) > 1 {
		return nil, agenterr.New(agenterr.CodeServerConfigInvalid, "at most one provider service may be supplied")
	}
	s := &Services{chat: chat, conversations: conversations}
	if len(providers) > 0 && providers[0] != nil {
		s.providers = providers[0]
	}
	return s, nil
}
