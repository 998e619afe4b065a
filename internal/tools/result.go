// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package tools

import (
	"encoding/json"

	"github.com/Ritika-Bitcot/agent-poc/internal/data"
)

// Kind tags which variant a Result is.
type Kind string

const (
	KindAccount  Kind = "account_overview"
	KindFacility Kind = "facility_overview"
	KindNotes    Kind = "note_overview"
	KindSaveAck  Kind = "save_ack"
)

// Result is the output of one tool call. Exactly one of the concrete types
// below implements it, so callers switch on the type instead of sniffing JSON.
type Result interface {
	Kind() Kind
	// Content is the JSON text handed back to the reasoning step.
	Content() string
}

// AccountResult carries the matched account, or nothing when not found.
type AccountResult struct {
	Accounts []data.Record
}

func (AccountResult) Kind() Kind { return KindAccount }

func (r AccountResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"account_overview": nonNil(r.Accounts)})
}

func (r AccountResult) Content() string { return mustContent(r) }

// FacilityResult carries facilities for an account, or one facility by id.
type FacilityResult struct {
	Facilities []data.Record
}

func (FacilityResult) Kind() Kind { return KindFacility }

func (r FacilityResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"facility_overview": nonNil(r.Facilities)})
}

func (r FacilityResult) Content() string { return mustContent(r) }

// NotesResult carries a user's notes, newest first. Success is false only
// when the user has no notes at all.
type NotesResult struct {
	Notes      []data.Record
	TotalCount int
	Success    bool
	Message    string
}

func (NotesResult) Kind() Kind { return KindNotes }

func (r NotesResult) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"note_overview": nonNil(r.Notes),
		"message":       r.Message,
	}
	if r.Success {
		out["success"] = true
		out["total_count"] = r.TotalCount
	}
	return json.Marshal(out)
}

func (r NotesResult) Content() string { return mustContent(r) }

// SaveAck acknowledges a saved note.
type SaveAck struct {
	Success bool
	NoteID  string
	Note    data.Record
	Message string
}

func (SaveAck) Kind() Kind { return KindSaveAck }

func (r SaveAck) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"success": r.Success,
		"message": r.Message,
		"note":    r.Note,
	}
	if r.NoteID != "" {
		out["note_id"] = r.NoteID
	}
	return json.Marshal(out)
}

func (r SaveAck) Content() string { return mustContent(r) }

func nonNil(records []data.Record) []data.Record {
	if records == nil {
		return []data.Record{}
	}
	return records
}

func mustContent(v json.Marshaler) string {
	raw, err := v.MarshalJSON()
	if err != nil {
		// Records originate from decoded JSON, so this only fires on a
		// programming error such as a channel stored in a record.
		return `{"error":"unencodable tool result"}`
	}
	return string(raw)
}
