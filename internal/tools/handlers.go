// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Ritika-Bitcot/agent-poc/internal/data"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

type accountArgs struct {
	AccountID string `json:"account_id"`
}

type facilityArgs struct {
	AccountID  string  `json:"account_id"`
	FacilityID *string `json:"facility_id"`
}

type notesArgs struct {
	UserID string  `json:"user_id"`
	Date   *string `json:"date"`
	Limit  *int    `json:"limit"`
}

type saveArgs struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func decodeArgs(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return agenterr.Wrap(err, agenterr.CodeAgentToolInvalidInput, "decoding arguments")
	}
	return nil
}

func (r *Registry) fetchAccount(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args accountArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	acct, ok, err := r.source.AccountByID(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return AccountResult{Accounts: []data.Record{}}, nil
	}
	return AccountResult{Accounts: []data.Record{acct}}, nil
}

func (r *Registry) fetchFacility(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args facilityArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	if args.FacilityID != nil && *args.FacilityID != "" {
		fac, ok, err := r.source.FacilityByID(ctx, *args.FacilityID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return FacilityResult{Facilities: []data.Record{}}, nil
		}
		return FacilityResult{Facilities: []data.Record{fac}}, nil
	}

	facs, err := r.source.FacilitiesByAccount(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	return FacilityResult{Facilities: facs}, nil
}

func (r *Registry) fetchNotes(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args notesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	notes, err := r.source.NotesByUser(ctx, args.UserID)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return NotesResult{Notes: []data.Record{}, Message: "No notes found for this user"}, nil
	}

	if args.Date != nil && *args.Date != "" {
		filtered := make([]data.Record, 0, len(notes))
		for _, n := range notes {
			if created, _ := n["created_at"].(string); strings.HasPrefix(created, *args.Date) {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}

	SortNotesNewestFirst(notes)

	limit := r.notesLimit
	if args.Limit != nil {
		limit = *args.Limit
	}
	if len(notes) > limit {
		notes = notes[:limit]
	}

	return NotesResult{
		Notes:      notes,
		TotalCount: len(notes),
		Success:    true,
		Message:    fmt.Sprintf("Retrieved %d notes for user %s", len(notes), args.UserID),
	}, nil
}

func (r *Registry) saveNote(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args saveArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	now := r.now().UTC().Format(time.RFC3339Nano)
	id := r.newID()
	note := data.Record{
		"id":         id,
		"user_id":    args.UserID,
		"title":      args.Title,
		"content":    args.Content,
		"created_at": now,
		"updated_at": now,
	}

	if err := r.source.SaveNote(ctx, args.UserID, note); err != nil {
		r.logger.Warn("saving note failed", "user_id", args.UserID, "error", err)
		return nil, err
	}

	return SaveAck{
		Success: true,
		NoteID:  id,
		Note:    note,
		Message: fmt.Sprintf("Note '%s' saved successfully", args.Title),
	}, nil
}

// SortNotesNewestFirst orders raw note records by created_at, newest first.
// Unparseable timestamps sort last.
func SortNotesNewestFirst(notes []data.Record) {
	created := func(n data.Record) time.Time {
		s, _ := n["created_at"].(string)
		ts, err := types.ParseTimestamp(s)
		if err != nil {
			return time.Time{}
		}
		return ts.Time
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return created(notes[i]).After(created(notes[j]))
	})
}
