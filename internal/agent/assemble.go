// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package agent

import (
	"embed"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Ritika-Bitcot/agent-poc/internal/data"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

//go:embed schemas/*.json
var recordSchemas embed.FS

// DefaultNotesLimit caps note_overview when no limit is configured.
const DefaultNotesLimit = 5

// Assembler turns raw tool records into typed response sections. Records
// that fail their schema or do not decode are dropped.
type Assembler struct {
	account    *gojsonschema.Schema
	facility   *gojsonschema.Schema
	note       *gojsonschema.Schema
	notesLimit int
	logger     *slog.Logger
}

// NewAssembler compiles the embedded record schemas.
func NewAssembler(notesLimit int, logger *slog.Logger) (*Assembler, error) {
	if notesLimit <= 0 {
		notesLimit = DefaultNotesLimit
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Assembler{notesLimit: notesLimit, logger: logger}
	for name, dst := range map[string]**gojsonschema.Schema{
		"account":  &a.account,
		"facility": &a.facility,
		"note":     &a.note,
	} {
		raw, err := recordSchemas.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, agenterr.Wrapf(err, agenterr.CodeAgentLoopFailure, "reading %s schema", name)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, agenterr.Wrapf(err, agenterr.CodeAgentLoopFailure, "compiling %s schema", name)
		}
		*dst = schema
	}
	return a, nil
}

// Sections is the typed, visibility-filtered payload for one card.
type Sections struct {
	Accounts   []types.AccountOverview
	Facilities []types.FacilityOverview
	Notes      []types.NoteOverview
	Rewards    *types.RewardsOverview
}

// Sections decodes d and applies the visibility rule for card:
// accounts and rewards only on the account card, facilities on the account
// and facility cards, notes only on the notes card.
func (a *Assembler) Sections(card types.CardKey, d ToolData) Sections {
	s := Sections{
		Accounts: []types.AccountOverview{},
		Notes:    []types.NoteOverview{},
	}

	switch card {
	case types.CardAccountOverview:
		s.Accounts = a.Accounts(d.Accounts)
		if len(s.Accounts) > 0 {
			s.Rewards = types.RewardsFromAccount(s.Accounts[0])
		}
		if d.facilityFetched || len(d.Facilities) > 0 {
			s.Facilities = a.Facilities(d.Facilities)
		}
	case types.CardFacilityOverview:
		if d.facilityFetched || len(d.Facilities) > 0 {
			s.Facilities = a.Facilities(d.Facilities)
		}
	case types.CardNotesOverview:
		notes := a.Notes(d.Notes)
		if len(notes) > a.notesLimit {
			notes = notes[:a.notesLimit]
		}
		s.Notes = notes
	}
	return s
}

// Assemble builds the final response for a classified turn.
func (a *Assembler) Assemble(conversationID, text string, card types.CardKey, d ToolData) *types.AgentResponse {
	if !card.Valid() {
		card = types.CardOther
	}
	s := a.Sections(card, d)
	return &types.AgentResponse{
		ConversationID:   conversationID,
		FinalResponse:    text,
		CardKey:          card,
		AccountOverview:  s.Accounts,
		FacilityOverview: s.Facilities,
		NoteOverview:     s.Notes,
		RewardsOverview:  s.Rewards,
		OrderOverview:    nil,
	}
}

// Accounts validates and decodes account records.
func (a *Assembler) Accounts(records []data.Record) []types.AccountOverview {
	return decodeAll[types.AccountOverview](a, "account", a.account, records)
}

// Facilities validates and decodes facility records.
func (a *Assembler) Facilities(records []data.Record) []types.FacilityOverview {
	return decodeAll[types.FacilityOverview](a, "facility", a.facility, records)
}

// Notes validates and decodes note records, newest first.
func (a *Assembler) Notes(records []data.Record) []types.NoteOverview {
	notes := decodeAll[types.NoteOverview](a, "note", a.note, records)
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt.Time)
	})
	return notes
}

func decodeAll[T any](a *Assembler, kind string, schema *gojsonschema.Schema, records []data.Record) []T {
	out := make([]T, 0, len(records))
	for i, rec := range records {
		v, err := decodeRecord[T](schema, rec)
		if err != nil {
			a.logger.Debug("dropping malformed record",
				"kind", kind,
				"index", i,
				"error", err,
			)
			continue
		}
		out = append(out, v)
	}
	return out
}

func decodeRecord[T any](schema *gojsonschema.Schema, rec data.Record) (T, error) {
	var zero T
	if rec == nil {
		return zero, agenterr.New(agenterr.CodeAgentToolInvalidInput, "record is null")
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(rec))
	if err != nil {
		return zero, agenterr.Wrap(err, agenterr.CodeAgentToolInvalidInput, "validating record")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return zero, agenterr.New(agenterr.CodeAgentToolInvalidInput, strings.Join(msgs, "; "))
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return zero, agenterr.Wrap(err, agenterr.CodeAgentToolInvalidInput, "encoding record")
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, agenterr.Wrap(err, agenterr.CodeAgentToolInvalidInput, "decoding record")
	}
	return v, nil
}
