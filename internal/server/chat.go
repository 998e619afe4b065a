// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

// unknownConversationID labels responses to requests that could not be
// decoded far enough to carry a conversation id.
const unknownConversationID = "error"

// chatInput takes the body raw so that malformed JSON still produces an
// AgentResponse instead of a problem document.
type chatInput struct {
	RawBody []byte `contentType:"application/json"`
}

type chatOutput struct {
	Status int
	Body   *types.AgentResponse
}

func (s *Server) registerChatRoutes() {
	for _, op := range []struct{ id, path, summary string }{
		{"chat", "/chat", "Send a message to the agent"},
		{"postman", "/postman", "Send a message to the agent (same contract as /chat)"},
	} {
		huma.Register(s.api, huma.Operation{
			OperationID: op.id,
			Method:      http.MethodPost,
			Path:        op.path,
			Summary:     op.summary,
			Description: "Body is an AgentRequest. Every outcome, including malformed input and " +
				"agent failures, is an AgentResponse; failures carry card_key \"other\".",
			Tags: []string{"chat"},
		}, s.handleChat)
	}
}

func (s *Server) handleChat(ctx context.Context, input *chatInput) (*chatOutput, error) {
	if !s.limiter.allow(clientIPFromContext(ctx)) {
		err := agenterr.New(agenterr.CodeServerRequestInvalid, rateLimitedResponse)
		return &chatOutput{
			Status: http.StatusTooManyRequests,
			Body:   types.NewErrorResponse(unknownConversationID, err),
		}, nil
	}

	req, err := decodeAgentRequest(input.RawBody)
	if err != nil {
		s.logger.Warn("rejecting malformed chat request", "error", err)
		convID := req.ConversationID
		if convID == "" {
			convID = unknownConversationID
		}
		return &chatOutput{Status: http.StatusOK, Body: types.NewErrorResponse(convID, err)}, nil
	}

	return &chatOutput{Status: http.StatusOK, Body: s.services.chat.Run(ctx, req)}, nil
}

// decodeAgentRequest parses body. Field presence is checked by the agent
// loop, which answers missing fields with its own error response.
func decodeAgentRequest(body []byte) (types.AgentRequest, error) {
	var req types.AgentRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return req, agenterr.New(agenterr.CodeServerRequestInvalid, "request body is empty")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, agenterr.Wrap(err, agenterr.CodeServerRequestInvalid, "decoding request body")
	}
	return req, nil
}
