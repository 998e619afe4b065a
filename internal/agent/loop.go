// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package agent

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	"github.com/Ritika-Bitcot/agent-poc/internal/tools"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

const (
	// DefaultMaxRounds bounds the reasoning/tool cycle when MaxRounds is unset.
	DefaultMaxRounds = 5
	// DefaultHistoryWindow is how many stored messages are replayed per turn.
	DefaultHistoryWindow = 20

	// degradedIDPrefix marks conversation ids minted while the store was down.
	degradedIDPrefix = "local_"
)

// Termination records how the reasoning cycle ended.
type Termination string

const (
	TerminationComplete  Termination = "complete"
	TerminationRoundCap  Termination = "round_cap"
	TerminationError     Termination = "error"
	TerminationCancelled Termination = "cancelled"
)

// Metadata keys on persisted assistant turns.
const (
	MetaCardKey     = "card_key"
	MetaRounds      = "rounds"
	MetaTermination = "termination"
	MetaTools       = "tools"
	MetaDegraded    = "degraded"
	MetaRule        = "rule"
)

// ToolInvoker is the part of the tool registry the loop depends on.
type ToolInvoker interface {
	Definitions() []provider.ToolDefinition
	Invoke(ctx context.Context, name, args string) (tools.Result, error)
}

var _ ToolInvoker = (*tools.Registry)(nil)

// LoopHooks provides optional test hooks for each pipeline stage.
type LoopHooks struct {
	OnRound    func(round int)
	OnToolCall func(call provider.ToolCall)
	OnFinish   func(resp *types.AgentResponse, termination Termination)
}

// LoopConfig holds dependencies for the Loop.
type LoopConfig struct {
	Conversations store.ConversationStore
	Router        provider.Router
	Tools         ToolInvoker

	// Model is a "provider/model" reference; empty routes to the default.
	Model        string
	SystemPrompt string

	MaxRounds     int
	HistoryWindow int
	NotesLimit    int
	Temperature   *float32
	MaxTokens     int

	// Rules overrides DefaultRules.
	Rules []ClassificationRule

	Logger *slog.Logger
	Hooks  *LoopHooks

	// NewDegradedID mints conversation ids when the store is unavailable.
	NewDegradedID func() (string, error)
}

// Loop runs one user turn end to end: conversation bookkeeping, a bounded
// reasoning/tool cycle, classification and response assembly.
type Loop struct {
	conversations store.ConversationStore
	router        provider.Router
	tools         ToolInvoker
	assembler     *Assembler
	rules         []ClassificationRule

	model         string
	systemPrompt  string
	maxRounds     int
	historyWindow int
	notesLimit    int
	temperature   *float32
	maxTokens     int

	logger        *slog.Logger
	hooks         *LoopHooks
	newDegradedID func() (string, error)
}

// NewLoop creates a Loop with the given dependencies.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	var missing []string
	if cfg.Conversations == nil {
		missing = append(missing, "Conversations")
	}
	if cfg.Router == nil {
		missing = append(missing, "Router")
	}
	if cfg.Tools == nil {
		missing = append(missing, "Tools")
	}
	if len(missing) > 0 {
		return nil, agenterr.New(
			agenterr.CodeConfigValidateInvalidValue,
			"agent loop missing dependencies: "+strings.Join(missing, ", "),
		)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notesLimit := cfg.NotesLimit
	if notesLimit <= 0 {
		notesLimit = DefaultNotesLimit
	}
	assembler, err := NewAssembler(notesLimit, logger)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		conversations: cfg.Conversations,
		router:        cfg.Router,
		tools:         cfg.Tools,
		assembler:     assembler,
		rules:         cfg.Rules,
		model:         cfg.Model,
		systemPrompt:  cfg.SystemPrompt,
		maxRounds:     cfg.MaxRounds,
		historyWindow: cfg.HistoryWindow,
		notesLimit:    notesLimit,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
		logger:        logger,
		hooks:         cfg.Hooks,
		newDegradedID: cfg.NewDegradedID,
	}
	if l.rules == nil {
		l.rules = DefaultRules
	}
	if l.systemPrompt == "" {
		l.systemPrompt = DefaultSystemPrompt()
	}
	if l.maxRounds <= 0 {
		l.maxRounds = DefaultMaxRounds
	}
	if l.historyWindow <= 0 {
		l.historyWindow = DefaultHistoryWindow
	}
	if l.newDegradedID == nil {
		l.newDegradedID = func() (string, error) { return gonanoid.New() }
	}
	return l, nil
}

// turn is the mutable state of one Run.
type turn struct {
	req            types.AgentRequest
	conversationID string
	degraded       bool

	messages       []provider.Message
	outcomes       []toolOutcome
	assistantTexts []string
	rounds         int
	termination    Termination

	humanSaved bool // the human turn reached the store
	answered   bool // an assistant turn was attempted
}

// Run processes one request. It never returns an error: every failure,
// including a panic, becomes an "other" response.
func (l *Loop) Run(ctx context.Context, req types.AgentRequest) (resp *types.AgentResponse) {
	t := &turn{req: req, conversationID: req.ConversationID}

	defer func() {
		if r := recover(); r != nil {
			err := agenterr.Errorf(agenterr.CodeAgentLoopFailure, "internal error: %v", r)
			l.logger.Error("agent loop panic",
				"conversation_id", t.conversationID,
				"user_id", req.UserID,
				"panic", r,
			)
			resp = types.NewErrorResponse(t.conversationID, err)
			t.termination = TerminationError
			l.persistRecovered(ctx, t, resp)
		}
	}()

	if err := validateRequest(req); err != nil {
		return types.NewErrorResponse(req.ConversationID, err)
	}

	t.conversationID, t.degraded = l.resolveConversation(ctx, req)
	t.messages = l.prepare(ctx, t)

	if err := l.cycle(ctx, t); err != nil {
		if ctx.Err() != nil {
			return l.cancelled(ctx, t)
		}
		l.logger.Error("reasoning step failed",
			"conversation_id", t.conversationID,
			"round", t.rounds,
			"error", err,
		)
		t.termination = TerminationError
		resp = types.NewErrorResponse(t.conversationID, err)
		l.persistAssistant(ctx, t, resp, "")
		l.finish(resp, t.termination)
		return resp
	}
	if ctx.Err() != nil {
		return l.cancelled(ctx, t)
	}

	resp, rule := l.respond(t)
	l.persistAssistant(ctx, t, resp, rule)
	l.finish(resp, t.termination)
	return resp
}

func validateRequest(req types.AgentRequest) error {
	var missing []string
	if strings.TrimSpace(req.Text) == "" {
		missing = append(missing, "text")
	}
	if req.UserID == "" {
		missing = append(missing, "user_id")
	}
	if req.AccountID == "" {
		missing = append(missing, "account_id")
	}
	if len(missing) > 0 {
		return agenterr.New(
			agenterr.CodeAgentLoopInvalidInput,
			"missing required fields: "+strings.Join(missing, ", "),
			agenterr.FieldUserID(req.UserID),
			agenterr.FieldConversationID(req.ConversationID),
		)
	}
	return nil
}

// resolveConversation returns the conversation id for this turn. When the
// store fails the turn continues under a locally minted id and nothing is
// persisted.
func (l *Loop) resolveConversation(ctx context.Context, req types.AgentRequest) (string, bool) {
	id, err := l.conversations.GetOrCreate(ctx, req.UserID, req.ConversationID)
	if err == nil {
		return id, false
	}

	local, genErr := l.newDegradedID()
	if genErr != nil || local == "" {
		local = uuid.New().String()
	}
	local = degradedIDPrefix + local
	l.logger.Warn("conversation store unavailable, continuing degraded",
		"user_id", req.UserID,
		"conversation_id", local,
		"error", err,
	)
	return local, true
}

// prepare replays stored history, persists the new human turn and returns
// the message list for the first round.
func (l *Loop) prepare(ctx context.Context, t *turn) []provider.Message {
	var history []*store.Message
	if !t.degraded {
		h, err := l.conversations.History(ctx, t.conversationID, l.historyWindow)
		if err != nil {
			l.logger.Warn("loading conversation history",
				"conversation_id", t.conversationID,
				"error", err,
			)
		} else {
			history = h
		}
	}

	messages := make([]provider.Message, 0, len(history)+2)
	hasSystem := false
	for _, m := range history {
		switch m.Role {
		case store.MessageRoleHuman:
			messages = append(messages, provider.Message{Role: provider.MessageRoleUser, Content: m.Content})
		case store.MessageRoleAssistant:
			messages = append(messages, provider.Message{Role: provider.MessageRoleAssistant, Content: m.Content})
		case store.MessageRoleSystem:
			hasSystem = true
			messages = append(messages, provider.Message{Role: provider.MessageRoleSystem, Content: m.Content})
		}
	}
	if !hasSystem {
		messages = append([]provider.Message{{Role: provider.MessageRoleSystem, Content: l.systemPrompt}}, messages...)
	}
	messages = append(messages, provider.Message{
		Role:    provider.MessageRoleUser,
		Content: composeUserMessage(t.req),
	})

	meta := map[string]string{"account_id": t.req.AccountID}
	if t.req.FacilityID != "" {
		meta["facility_id"] = t.req.FacilityID
	}
	if t.req.Title != "" {
		meta["title"] = t.req.Title
	}
	t.humanSaved = l.persist(ctx, t, store.MessageRoleHuman, t.req.Text, meta)
	return messages
}

// cycle runs reasoning rounds until the model answers without tool calls,
// the round cap is hit or the context ends.
func (l *Loop) cycle(ctx context.Context, t *turn) error {
	t.termination = TerminationRoundCap
	defs := l.tools.Definitions()

	for t.rounds < l.maxRounds {
		if err := ctx.Err(); err != nil {
			t.termination = TerminationCancelled
			return agenterr.Wrap(err, agenterr.CodeAgentLoopFailure, "request cancelled")
		}
		t.rounds++
		if l.hooks != nil && l.hooks.OnRound != nil {
			l.hooks.OnRound(t.rounds)
		}

		text, calls, err := l.reason(ctx, t.messages, defs)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) != "" {
			t.assistantTexts = append(t.assistantTexts, text)
		}
		t.messages = append(t.messages, provider.Message{
			Role:      provider.MessageRoleAssistant,
			Content:   text,
			ToolCalls: calls,
		})
		if len(calls) == 0 {
			t.termination = TerminationComplete
			return nil
		}

		for _, call := range calls {
			outcome := l.invokeTool(ctx, t, call)
			t.outcomes = append(t.outcomes, outcome)
			t.messages = append(t.messages, provider.Message{
				Role:       provider.MessageRoleTool,
				Content:    toolContent(outcome),
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	l.logger.Warn("round cap reached",
		"conversation_id", t.conversationID,
		"round", t.rounds,
	)
	return nil
}

// reason makes one reasoning call, failing over to the next healthy
// provider when a call cannot be started or its stream breaks.
func (l *Loop) reason(ctx context.Context, messages []provider.Message, defs []provider.ToolDefinition) (string, []provider.ToolCall, error) {
	attempts := l.router.MaxAttempts()
	if attempts < 1 {
		attempts = 1
	}

	var tried []string
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		prov, model, err := l.router.Route(ctx, l.model, tried...)
		if err != nil {
			if lastErr != nil {
				return "", nil, lastErr
			}
			return "", nil, agenterr.Wrap(err, agenterr.CodeAgentLoopFailure, "routing reasoning step")
		}
		tried = append(tried, prov.Name())

		req := provider.ChatRequest{
			Model:    model,
			Messages: messages,
			Tools:    defs,
			Options: provider.ChatOptions{
				Temperature: l.temperature,
				MaxTokens:   l.maxTokens,
			},
		}
		events, err := prov.Chat(ctx, req)
		if err != nil {
			if hr, ok := prov.(provider.HealthReporter); ok {
				hr.RecordFailure()
			}
			lastErr = agenterr.Wrapf(err, agenterr.CodeProviderUpstreamFailure, "chat call to %s", prov.Name())
			l.logger.Warn("reasoning call failed",
				"provider", prov.Name(),
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		text, calls, err := processEvents(events)
		if err != nil {
			lastErr = agenterr.Wrapf(err, agenterr.CodeProviderUpstreamFailure, "stream from %s", prov.Name())
			if ctx.Err() != nil {
				return "", nil, lastErr
			}
			l.logger.Warn("reasoning stream failed",
				"provider", prov.Name(),
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}
		return text, calls, nil
	}
	return "", nil, lastErr
}

// processEvents drains one stream. Partial output is discarded when the
// stream reports an error.
func processEvents(events <-chan provider.ChatEvent) (string, []provider.ToolCall, error) {
	var buf strings.Builder
	var calls []provider.ToolCall
	var streamErr error

	for ev := range events {
		switch ev.Type {
		case provider.EventTypeTextDelta:
			buf.WriteString(ev.Text)
		case provider.EventTypeToolCall:
			if ev.ToolCall != nil {
				calls = append(calls, *ev.ToolCall)
			}
		case provider.EventTypeError:
			streamErr = agenterr.New(agenterr.CodeProviderUpstreamFailure, ev.Error)
		}
	}
	if streamErr != nil {
		return "", nil, streamErr
	}
	return buf.String(), calls, nil
}

// invokeTool runs one call. Tool faults are recorded in the outcome and
// never abort the cycle.
func (l *Loop) invokeTool(ctx context.Context, t *turn, call provider.ToolCall) toolOutcome {
	if l.hooks != nil && l.hooks.OnToolCall != nil {
		l.hooks.OnToolCall(call)
	}
	res, err := l.tools.Invoke(ctx, call.Name, call.Arguments)
	if err != nil {
		l.logger.Warn("tool call failed",
			"conversation_id", t.conversationID,
			"tool", call.Name,
			"round", t.rounds,
			"error", err,
		)
	}
	return toolOutcome{Call: call, Result: res, Err: err}
}

func toolContent(o toolOutcome) string {
	if o.Err != nil {
		return "error: " + o.Err.Error()
	}
	if o.Result == nil {
		return "{}"
	}
	return o.Result.Content()
}

// respond classifies the turn and assembles the response, falling back to
// templated text when no usable answer was produced.
func (l *Loop) respond(t *turn) (*types.AgentResponse, string) {
	d := extractToolData(t.outcomes)
	ev := newEvidence(t.req.Text, t.outcomes, d)
	card, rule := matchRule(l.rules, ev)

	// Interim text that accompanied tool calls is not an answer when the
	// cycle was cut short.
	answer := ""
	if t.termination == TerminationComplete {
		answer = extractAnswer(t.assistantTexts)
	}
	if answer == "" {
		answer = fallbackText(l.fallbackInput(card, t, d))
	}

	l.logger.Debug("turn classified",
		"conversation_id", t.conversationID,
		"card_key", card,
		"rule", rule,
		"tools", strings.Join(ev.ToolsCalled, ","),
	)
	return l.assembler.Assemble(t.conversationID, answer, card, d), rule
}

func (l *Loop) fallbackInput(card types.CardKey, t *turn, d ToolData) fallbackInput {
	notes := l.assembler.Notes(d.Notes)
	if len(notes) > l.notesLimit {
		notes = notes[:l.notesLimit]
	}
	in := fallbackInput{
		Card:        card,
		Query:       t.req.Text,
		Accounts:    l.assembler.Accounts(d.Accounts),
		Facilities:  l.assembler.Facilities(d.Facilities),
		Notes:       notes,
		Termination: t.termination,
	}
	if d.Saved != nil && d.Saved.Success {
		in.Saved = d.Saved.Message
	}
	return in
}

// cancelled answers a run whose context ended. Nothing further is persisted.
func (l *Loop) cancelled(ctx context.Context, t *turn) *types.AgentResponse {
	t.termination = TerminationCancelled
	l.logger.Warn("agent run cancelled",
		"conversation_id", t.conversationID,
		"round", t.rounds,
		"error", ctx.Err(),
	)
	resp := types.NewErrorResponse(t.conversationID,
		agenterr.Wrap(ctx.Err(), agenterr.CodeAgentLoopFailure, "request cancelled"))
	l.finish(resp, t.termination)
	return resp
}

func (l *Loop) persistAssistant(ctx context.Context, t *turn, resp *types.AgentResponse, rule string) {
	t.answered = true
	meta := map[string]string{
		MetaCardKey:     string(resp.CardKey),
		MetaRounds:      strconv.Itoa(t.rounds),
		MetaTermination: string(t.termination),
		MetaTools:       strings.Join(calledTools(t.outcomes), ","),
		MetaDegraded:    strconv.FormatBool(t.degraded),
	}
	if rule != "" {
		meta[MetaRule] = rule
	}
	l.persist(ctx, t, store.MessageRoleAssistant, resp.FinalResponse, meta)
}

// persistRecovered stores the apology for a run that panicked after its
// human turn was saved, so the history keeps its human/assistant pairing.
// A cancelled run stores nothing, as in cancelled.
func (l *Loop) persistRecovered(ctx context.Context, t *turn, resp *types.AgentResponse) {
	if !t.humanSaved || t.answered || ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("persisting recovered turn",
				"conversation_id", t.conversationID,
				"panic", r,
			)
		}
	}()
	l.persistAssistant(ctx, t, resp, "")
}

// persist appends best effort; failures are logged and the turn goes on.
// It reports whether the message was stored.
func (l *Loop) persist(ctx context.Context, t *turn, role store.MessageRole, content string, meta map[string]string) bool {
	if t.degraded {
		return false
	}
	if err := l.conversations.Append(ctx, t.conversationID, role, content, meta); err != nil {
		l.logger.Warn("persisting message",
			"conversation_id", t.conversationID,
			"role", string(role),
			"error", err,
		)
		return false
	}
	return true
}

func (l *Loop) finish(resp *types.AgentResponse, termination Termination) {
	if l.hooks != nil && l.hooks.OnFinish != nil {
		l.hooks.OnFinish(resp, termination)
	}
}

func calledTools(outcomes []toolOutcome) []string {
	var names []string
	seen := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		if !seen[o.Call.Name] {
			seen[o.Call.Name] = true
			names = append(names, o.Call.Name)
		}
	}
	return names
}
