// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// Config holds Google provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
	Logger  *slog.Logger
}

// Provider implements provider.Provider using the Google Gemini API.
type Provider struct {
	client *genai.Client
	config Config
	health *provider.HealthTracker
	logger *slog.Logger
}

// New creates a new Google provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, agenterr.New(agenterr.CodeProviderRequestInvalid, "google: missing api_key in config", agenterr.FieldProvider("google"))
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, agenterr.Wrapf(err, agenterr.CodeProviderUpstreamFailure, "google: creating client")
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, agenterr.Wrapf(err, agenterr.CodeProviderRequestInvalid, "google: creating health tracker")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{
		client: client,
		config: cfg,
		health: health,
		logger: logger,
	}, nil
}

func (p *Provider) Name() string { return "google" }

func (p *Provider) Available(_ context.Context) bool {
	return p.health.IsHealthy()
}

func (p *Provider) RecordFailure() { p.health.RecordFailure() }
func (p *Provider) RecordSuccess() { p.health.RecordSuccess() }

func (p *Provider) HealthMetrics() provider.HealthMetrics { return p.health.HealthMetrics() }

func (p *Provider) Chat(ctx context.Context, req provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, agenterr.Wrapf(err, agenterr.CodeProviderRequestInvalid, "google: converting messages")
	}

	config := buildConfig(req)

	eventCh := make(chan provider.ChatEvent, 100)

	go func() {
		defer close(eventCh)
		p.streamChat(ctx, req.Model, contents, config, eventCh)
	}()

	return eventCh, nil
}

func (p *Provider) Close() error { return nil }

// buildConfig converts a provider.ChatRequest into a genai.GenerateContentConfig.
func buildConfig(req provider.ChatRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.Options.Temperature != nil {
		cfg.Temperature = genai.Ptr(*req.Options.Temperature)
	}

	if req.Options.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Options.MaxTokens)
	}

	if len(req.Options.StopSequences) > 0 {
		cfg.StopSequences = req.Options.StopSequences
	}

	var system []*genai.Part
	if req.SystemPrompt != "" {
		system = append(system, &genai.Part{Text: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		if msg.Role == provider.MessageRoleSystem && msg.Content != "" {
			system = append(system, &genai.Part{Text: msg.Content})
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}

	if len(req.Tools) > 0 {
		cfg.Tools = convertTools(req.Tools)
	}

	return cfg
}

// convertMessages transforms provider.Message slices into genai.Content
// slices. System messages are excluded (handled via SystemInstruction in
// buildConfig) and consecutive tool results share one user turn.
func convertMessages(msgs []provider.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	for _, msg := range msgs {
		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case provider.MessageRoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				args := map[string]any{}
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
						return nil, agenterr.Wrapf(err, agenterr.CodeProviderRequestInvalid,
							"google: tool call %q arguments are not a JSON object", tc.Name)
					}
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: geminiCallID(tc.ID, tc.Name), Name: tc.Name, Args: args},
				})
			}
			if len(parts) == 0 {
				continue
			}
			result = append(result, &genai.Content{Role: "model", Parts: parts})
		case provider.MessageRoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       geminiCallID(msg.ToolCallID, msg.ToolName),
					Name:     msg.ToolName,
					Response: map[string]any{"result": msg.Content},
				},
			}
			if n := len(result); n > 0 && isFunctionResponseTurn(result[n-1]) {
				result[n-1].Parts = append(result[n-1].Parts, part)
				continue
			}
			result = append(result, &genai.Content{Role: "user", Parts: []*genai.Part{part}})
		case provider.MessageRoleSystem:
			continue
		default:
			return nil, agenterr.Errorf(agenterr.CodeProviderRequestInvalid, "google: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}

// geminiCallID drops ids that streamChat synthesized from the function name.
func geminiCallID(id, name string) string {
	if id == name {
		return ""
	}
	return id
}

func isFunctionResponseTurn(c *genai.Content) bool {
	if c.Role != "user" || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

// convertTools transforms provider.ToolDefinition slices into genai.Tool slices.
func convertTools(tools []provider.ToolDefinition) []*genai.Tool {
	var decls []*genai.FunctionDeclaration
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.InputSchema,
		})
	}
	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

// streamChat runs the streaming loop, converting SDK responses into provider.ChatEvent values.
func (p *Provider) streamChat(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	ch chan<- provider.ChatEvent,
) {
	for result, err := range p.client.Models.GenerateContentStream(ctx, model, contents, config) {
		if err != nil {
			if ctx.Err() == nil {
				p.health.RecordFailure()
			}
			ch <- provider.ChatEvent{
				Type:  provider.EventTypeError,
				Error: err.Error(),
			}
			return
		}

		for _, candidate := range result.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					ch <- provider.ChatEvent{
						Type: provider.EventTypeTextDelta,
						Text: part.Text,
					}
				}
				if part.FunctionCall != nil {
					args, err := json.Marshal(part.FunctionCall.Args)
					if err != nil {
						p.health.RecordFailure()
						argsStr := fmt.Sprintf("%v", part.FunctionCall.Args)
						if len(argsStr) > 200 {
							argsStr = argsStr[:200] + "..."
						}
						p.logger.Error("failed to marshal tool call arguments",
							"function", part.FunctionCall.Name,
							"args_preview", argsStr,
							"error", err,
						)
						ch <- provider.ChatEvent{
							Type:  provider.EventTypeError,
							Error: agenterr.Errorf(agenterr.CodeProviderUpstreamFailure, "google: marshaling tool call arguments for %q: %w", part.FunctionCall.Name, err).Error(),
						}
						return
					}
					id := part.FunctionCall.ID
					if id == "" {
						// Gemini often omits call ids; the name pairs the response.
						id = part.FunctionCall.Name
					}
					ch <- provider.ChatEvent{
						Type: provider.EventTypeToolCall,
						ToolCall: &provider.ToolCall{
							ID:        id,
							Name:      part.FunctionCall.Name,
							Arguments: string(args),
						},
					}
				}
			}
		}

		if result.UsageMetadata != nil {
			ch <- provider.ChatEvent{
				Type: provider.EventTypeUsage,
				Usage: &provider.Usage{
					InputTokens:     int(result.UsageMetadata.PromptTokenCount),
					OutputTokens:    int(result.UsageMetadata.CandidatesTokenCount),
					CacheReadTokens: int(result.UsageMetadata.CachedContentTokenCount),
				},
			}
		}
	}

	p.health.RecordSuccess()
	ch <- provider.ChatEvent{Type: provider.EventTypeDone}
}
