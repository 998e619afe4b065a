// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package types

// AgentRequest is one user turn submitted to the orchestration loop.
type AgentRequest struct {
	Text           string `json:"text" doc:"User's message or query" example:"show account overview"`
	UserID         string `json:"user_id" doc:"Unique identifier for the user"`
	Title          string `json:"title,omitempty" doc:"Title or context for the conversation"`
	AccountID      string `json:"account_id" doc:"Account ID for the user"`
	FacilityID     string `json:"facility_id,omitempty" doc:"Optional facility ID"`
	ConversationID string `json:"conversation_id,omitempty" doc:"Optional conversation ID for multi-turn conversations"`
}

// AgentResponse is the boundary payload for every turn, including failed ones.
// Sections not relevant to CardKey are empty or null.
type AgentResponse struct {
	ConversationID   string             `json:"conversation_id" doc:"Unique conversation identifier"`
	FinalResponse    string             `json:"final_response" doc:"Human-friendly natural language response"`
	CardKey          CardKey            `json:"card_key" enum:"account_overview,facility_overview,notes_overview,other" doc:"UI card type for frontend rendering"`
	AccountOverview  []AccountOverview  `json:"account_overview"`
	FacilityOverview []FacilityOverview `json:"facility_overview"`
	NoteOverview     []NoteOverview     `json:"note_overview"`
	RewardsOverview  *RewardsOverview   `json:"rewards_overview"`
	OrderOverview    []OrderOverview    `json:"order_overview"`
}

// ErrorResponsePrefix opens every apologetic failure message.
const ErrorResponsePrefix = "I apologize, but I encountered an error processing your request: "

// NewOtherResponse builds an "other" card carrying text and no structured data.
func NewOtherResponse(conversationID, text string) *AgentResponse {
	return &AgentResponse{
		ConversationID:  conversationID,
		FinalResponse:   text,
		CardKey:         CardOther,
		AccountOverview: []AccountOverview{},
		NoteOverview:    []NoteOverview{},
	}
}

// NewErrorResponse builds the apologetic "other" card for a failed turn.
func NewErrorResponse(conversationID string, err error) *AgentResponse {
	desc := "unknown error"
	if err != nil {
		desc = err.Error()
	}
	return NewOtherResponse(conversationID, ErrorResponsePrefix+desc)
}
