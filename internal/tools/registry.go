// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

// Package tools implements the fixed set of data tools the agent may call.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Ritika-Bitcot/agent-poc/internal/data"
	"github.com/Ritika-Bitcot/agent-poc/internal/provider"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// Tool names. The reasoning step must use these exactly.
const (
	FetchAccountDetails  = "fetch_account_details"
	FetchFacilityDetails = "fetch_facility_details"
	FetchNotes           = "fetch_notes"
	SaveNotes            = "save_notes"
)

const (
	// DefaultTimeout bounds a single tool call.
	DefaultTimeout = 10 * time.Second
	// DefaultNotesLimit applies when fetch_notes is called without a limit.
	DefaultNotesLimit = 5
	// MaxNotesLimit caps the limit argument of fetch_notes.
	MaxNotesLimit = 50
)

// DataSource is the storage the tools read and write.
type DataSource interface {
	AccountByID(ctx context.Context, accountID string) (data.Record, bool, error)
	FacilityByID(ctx context.Context, facilityID string) (data.Record, bool, error)
	FacilitiesByAccount(ctx context.Context, accountID string) ([]data.Record, error)
	NotesByUser(ctx context.Context, userID string) ([]data.Record, error)
	SaveNote(ctx context.Context, userID string, note data.Record) error
}

type handler func(ctx context.Context, args json.RawMessage) (Result, error)

type tool struct {
	def     provider.ToolDefinition
	schema  *gojsonschema.Schema
	handler handler
}

// Registry holds the four data tools. It is immutable after construction and
// safe for concurrent use.
type Registry struct {
	source     DataSource
	timeout    time.Duration
	notesLimit int
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger

	tools map[string]*tool
	order []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithNotesLimit sets the default fetch_notes limit.
func WithNotesLimit(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.notesLimit = min(n, MaxNotesLimit)
		}
	}
}

// WithClock overrides the time source used for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator overrides note id generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry builds the registry and compiles every tool's input schema.
func NewRegistry(source DataSource, opts ...Option) (*Registry, error) {
	if source == nil {
		return nil, agenterr.New(agenterr.CodeAgentLoopInvalidInput, "tool data source is required")
	}

	r := &Registry{
		source:     source,
		timeout:    DefaultTimeout,
		notesLimit: DefaultNotesLimit,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		logger:     slog.Default(),
		tools:      make(map[string]*tool),
	}
	for _, opt := range opts {
		opt(r)
	}

	specs := []struct {
		name        string
		description string
		schema      map[string]any
		handler     handler
	}{
		{
			name:        FetchAccountDetails,
			description: "Retrieve account details, loyalty tier, rewards and balances for an account ID.",
			schema: objectSchema([]string{"account_id"}, map[string]any{
				"account_id": stringProp("The account ID to look up"),
			}),
			handler: r.fetchAccount,
		},
		{
			name: FetchFacilityDetails,
			description: "Retrieve facility details for an account. With facility_id returns that facility; " +
				"without it returns every facility on the account.",
			schema: objectSchema([]string{"account_id"}, map[string]any{
				"account_id":  stringProp("The account ID the facilities belong to"),
				"facility_id": optionalStringProp("Optional facility ID for a single facility"),
			}),
			handler: r.fetchFacility,
		},
		{
			name:        FetchNotes,
			description: "Retrieve a user's saved notes, newest first, optionally filtered by creation date.",
			schema: objectSchema([]string{"user_id"}, map[string]any{
				"user_id": stringProp("The user whose notes to fetch"),
				"date": map[string]any{
					"type":        []any{"string", "null"},
					"pattern":     `^\d{4}-\d{2}-\d{2}$`,
					"description": "Optional date filter in YYYY-MM-DD format",
				},
				"limit": map[string]any{
					"type":        []any{"integer", "null"},
					"minimum":     1,
					"maximum":     MaxNotesLimit,
					"description": "Maximum number of notes to return",
				},
			}),
			handler: r.fetchNotes,
		},
		{
			name:        SaveNotes,
			description: "Save meeting minutes or notes for a user.",
			schema: objectSchema([]string{"user_id", "title", "content"}, map[string]any{
				"user_id": stringProp("The user saving the note"),
				"title":   stringProp("Title of the note"),
				"content": stringProp("Body of the note"),
			}),
			handler: r.saveNote,
		},
	}

	for _, s := range specs {
		compiled, err := compileSchema(s.schema)
		if err != nil {
			return nil, agenterr.Wrapf(err, agenterr.CodeAgentLoopInvalidInput, "compiling schema for %s", s.name)
		}
		r.tools[s.name] = &tool{
			def: provider.ToolDefinition{
				Name:        s.name,
				Description: s.description,
				InputSchema: s.schema,
			},
			schema:  compiled,
			handler: s.handler,
		}
		r.order = append(r.order, s.name)
	}

	return r, nil
}

// Definitions returns the tool definitions in a stable order.
func (r *Registry) Definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// Has reports whether name is a registered tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Invoke validates args against the tool's schema and runs it under the
// registry timeout. Panics inside a tool are returned as failures.
func (r *Registry) Invoke(ctx context.Context, name, args string) (Result, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, agenterr.New(agenterr.CodeAgentToolNotFound,
			fmt.Sprintf("unknown tool %q", name), agenterr.FieldTool(name))
	}

	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if err := validateArgs(name, t.schema, args); err != nil {
		return nil, err
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: agenterr.Errorf(agenterr.CodeAgentToolFailure, "tool %s panicked: %v", name, p)}
			}
		}()
		res, err := t.handler(callCtx, json.RawMessage(args))
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err == nil {
			return out.res, nil
		}
		if r.timedOut(ctx, callCtx) {
			return nil, r.timeoutErr(name)
		}
		return nil, agenterr.With(
			agenterr.Wrapf(out.err, agenterr.CodeAgentToolFailure, "tool %s failed", name),
			agenterr.FieldTool(name))
	case <-callCtx.Done():
		if r.timedOut(ctx, callCtx) {
			return nil, r.timeoutErr(name)
		}
		return nil, agenterr.Wrapf(ctx.Err(), agenterr.CodeAgentToolFailure, "tool %s cancelled", name)
	}
}

// timedOut reports whether callCtx expired on the registry timeout rather
// than because the caller's context ended.
func (r *Registry) timedOut(parent, callCtx context.Context) bool {
	return parent.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded)
}

func (r *Registry) timeoutErr(name string) error {
	return agenterr.New(agenterr.CodeAgentToolTimeout,
		fmt.Sprintf("tool %s timed out after %s", name, r.timeout), agenterr.FieldTool(name))
}
