// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// DefaultHistoryLimit applies to GET /conversations/{id}/messages without a limit.
const DefaultHistoryLimit = 50

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Service banner",
		Tags:        []string{"system"},
	}, s.handleRoot)

	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, s.handleHealth)

	s.registerChatRoutes()

	huma.Register(s.api, huma.Operation{
		OperationID: "list-conversations",
		Method:      http.MethodGet,
		Path:        "/conversations",
		Summary:     "List conversation ids with store statistics",
		Tags:        []string{"conversations"},
	}, s.handleListConversations)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-conversation",
		Method:      http.MethodGet,
		Path:        "/conversations/{id}",
		Summary:     "Get a conversation",
		Tags:        []string{"conversations"},
	}, s.handleGetConversation)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-conversation-messages",
		Method:      http.MethodGet,
		Path:        "/conversations/{id}/messages",
		Summary:     "Get the message history of a conversation",
		Tags:        []string{"conversations"},
	}, s.handleListMessages)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-conversation",
		Method:      http.MethodDelete,
		Path:        "/conversations/{id}",
		Summary:     "Delete a conversation and its messages",
		Tags:        []string{"conversations"},
	}, s.handleDeleteConversation)

	huma.Register(s.api, huma.Operation{
		OperationID: "cleanup-conversations",
		Method:      http.MethodPost,
		Path:        "/cleanup",
		Summary:     "Deactivate conversations idle longer than max_age",
		Tags:        []string{"conversations"},
	}, s.handleCleanup)
}

// --- Request/Response types for huma ---

type rootOutput struct {
	Body struct {
		Message string `json:"message" example:"Agent POC API is running"`
		Version string `json:"version"`
		Status  string `json:"status" example:"healthy"`
	}
}

// HealthBody is the JSON body of the health endpoint response.
type HealthBody struct {
	Status    string                   `json:"status" example:"healthy" doc:"Health status"`
	Service   string                   `json:"service" example:"agent-poc-api"`
	Providers []provider.HealthMetrics `json:"providers,omitempty" doc:"Reasoning back end health"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

type listConversationsInput struct {
	UserID          string `query:"user_id" doc:"Only conversations owned by this user"`
	Limit           int    `query:"limit" minimum:"0" doc:"Maximum ids to return"`
	Offset          int    `query:"offset" minimum:"0"`
	IncludeInactive bool   `query:"include_inactive" doc:"Include expired conversations"`
}
type listConversationsOutput struct {
	Body struct {
		Conversations []string    `json:"conversations"`
		Stats         store.Stats `json:"stats"`
	}
}

type conversationIDInput struct {
	ID string `path:"id"`
}
type getConversationOutput struct {
	Body struct {
		ConversationID string              `json:"conversation_id"`
		Conversation   *store.Conversation `json:"conversation"`
		Stats          store.Stats         `json:"stats"`
		Message        string              `json:"message"`
	}
}

type listMessagesInput struct {
	ID    string `path:"id"`
	Limit int    `query:"limit" minimum:"0" doc:"Most recent messages to return"`
}
type listMessagesOutput struct {
	Body struct {
		ConversationID string           `json:"conversation_id"`
		Messages       []*store.Message `json:"messages"`
	}
}

type messageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

type cleanupInput struct {
	MaxAge string `query:"max_age" doc:"Go duration such as 24h; defaults to the retention max age"`
}
type cleanupOutput struct {
	Body struct {
		Message      string `json:"message"`
		CleanedCount int64  `json:"cleaned_count"`
	}
}

// --- Handlers ---

func (s *Server) handleRoot(_ context.Context, _ *struct{}) (*rootOutput, error) {
	out := &rootOutput{}
	out.Body.Message = "Agent POC API is running"
	out.Body.Version = s.cfg.Version
	out.Body.Status = "healthy"
	return out, nil
}

func (s *Server) handleHealth(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
	out := &HealthResponse{Body: HealthBody{Status: "healthy", Service: ServiceName}}
	if s.services.providers != nil {
		out.Body.Providers = s.services.providers.Health(ctx)
	}
	return out, nil
}

func (s *Server) handleListConversations(ctx context.Context, input *listConversationsInput) (*listConversationsOutput, error) {
	convs, err := s.services.conversations.List(ctx, store.ListOpts{
		Limit:           input.Limit,
		Offset:          input.Offset,
		UserID:          input.UserID,
		IncludeInactive: input.IncludeInactive,
	})
	if err != nil {
		return nil, s.httpError(err, "listing conversations")
	}
	stats, err := s.services.conversations.Stats(ctx)
	if err != nil {
		return nil, s.httpError(err, "reading conversation stats")
	}

	out := &listConversationsOutput{}
	out.Body.Conversations = make([]string, 0, len(convs))
	for _, c := range convs {
		out.Body.Conversations = append(out.Body.Conversations, c.ID)
	}
	out.Body.Stats = stats
	return out, nil
}

func (s *Server) handleGetConversation(ctx context.Context, input *conversationIDInput) (*getConversationOutput, error) {
	conv, err := s.services.conversations.Get(ctx, input.ID)
	if err != nil {
		return nil, s.httpError(err, fmt.Sprintf("conversation %q not found", input.ID))
	}
	stats, err := s.services.conversations.Stats(ctx)
	if err != nil {
		return nil, s.httpError(err, "reading conversation stats")
	}

	out := &getConversationOutput{}
	out.Body.ConversationID = conv.ID
	out.Body.Conversation = conv
	out.Body.Stats = stats
	out.Body.Message = "Conversation information retrieved successfully"
	return out, nil
}

func (s *Server) handleListMessages(ctx context.Context, input *listMessagesInput) (*listMessagesOutput, error) {
	if _, err := s.services.conversations.Get(ctx, input.ID); err != nil {
		return nil, s.httpError(err, fmt.Sprintf("conversation %q not found", input.ID))
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	msgs, err := s.services.conversations.History(ctx, input.ID, limit)
	if err != nil {
		return nil, s.httpError(err, "reading conversation history")
	}

	out := &listMessagesOutput{}
	out.Body.ConversationID = input.ID
	out.Body.Messages = msgs
	if out.Body.Messages == nil {
		out.Body.Messages = []*store.Message{}
	}
	return out, nil
}

func (s *Server) handleDeleteConversation(ctx context.Context, input *conversationIDInput) (*messageOutput, error) {
	deleted, err := s.services.conversations.Delete(ctx, input.ID)
	if err != nil {
		return nil, s.httpError(err, fmt.Sprintf("deleting conversation %q", input.ID))
	}
	if !deleted {
		return nil, huma.Error404NotFound("Conversation not found")
	}
	out := &messageOutput{}
	out.Body.Message = fmt.Sprintf("Conversation %s deleted successfully", input.ID)
	return out, nil
}

func (s *Server) handleCleanup(ctx context.Context, input *cleanupInput) (*cleanupOutput, error) {
	maxAge := s.cfg.CleanupMaxAge
	if input.MaxAge != "" {
		d, err := time.ParseDuration(input.MaxAge)
		if err != nil || d <= 0 {
			return nil, huma.Error400BadRequest(fmt.Sprintf("max_age must be a positive duration, got %q", input.MaxAge))
		}
		maxAge = d
	}

	n, err := s.services.conversations.ExpireOlderThan(ctx, maxAge)
	if err != nil {
		return nil, s.httpError(err, "cleaning up conversations")
	}
	s.logger.Info("cleaned up idle conversations", "count", n, "max_age", maxAge)

	out := &cleanupOutput{}
	out.Body.Message = fmt.Sprintf("Cleaned up %d old conversations", n)
	out.Body.CleanedCount = n
	return out, nil
}

// httpError maps a coded error onto a huma status error. Server-side
// failures are logged since their detail is not returned to the client.
func (s *Server) httpError(err error, msg string) error {
	status := agenterr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
		return huma.NewError(status, msg)
	}
	return huma.NewError(status, msg, err)
}
