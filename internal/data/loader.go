// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

// Package data reads the JSON files that back the account, facility, and
// notes tools, and appends notes to them.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// File names inside the data directory.
const (
	AccountFile  = "account_data.json"
	FacilityFile = "facility_data.json"
	NotesFile    = "notes_data.json"
)

// Record is one raw JSON object from a data file. Records are shared between
// callers and must be treated as read-only.
type Record = map[string]any

type accountFile struct {
	AccountOverview []Record `json:"account_overview"`
}

type facilityFile struct {
	FacilityOverview []Record `json:"facility_overview"`
}

// Loader lazily loads and caches the data files in a directory.
// A missing file reads as empty. A malformed file is logged and reads as empty.
type Loader struct {
	dir    string
	logger *slog.Logger

	mu         sync.RWMutex
	accounts   []Record
	facilities []Record
	notes      map[string][]Record
	loaded     map[string]bool

	// writeMu serialises note saves so concurrent appends are not lost.
	writeMu sync.Mutex
}

// NewLoader creates a Loader for dir. A nil logger uses slog.Default().
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		dir:    dir,
		logger: logger,
		loaded: make(map[string]bool),
	}
}

// Dir returns the directory the loader reads from.
func (l *Loader) Dir() string { return l.dir }

// Invalidate drops every cached file so the next read goes to disk.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = nil
	l.facilities = nil
	l.notes = nil
	l.loaded = make(map[string]bool)
}

// AccountByID returns the account with the given id.
func (l *Loader) AccountByID(ctx context.Context, accountID string) (Record, bool, error) {
	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, a := range accounts {
		if stringField(a, "account_id") == accountID {
			return a, true, nil
		}
	}
	return nil, false, nil
}

// FacilityByID returns the facility with the given id.
func (l *Loader) FacilityByID(ctx context.Context, facilityID string) (Record, bool, error) {
	facilities, err := l.loadFacilities(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, f := range facilities {
		if stringField(f, "id") == facilityID {
			return f, true, nil
		}
	}
	return nil, false, nil
}

// FacilitiesByAccount returns every facility belonging to accountID.
func (l *Loader) FacilitiesByAccount(ctx context.Context, accountID string) ([]Record, error) {
	facilities, err := l.loadFacilities(ctx)
	if err != nil {
		return nil, err
	}
	out := []Record{}
	for _, f := range facilities {
		if stringField(f, "account_id") == accountID {
			out = append(out, f)
		}
	}
	return out, nil
}

// NotesByUser returns a fresh slice of the notes saved by userID.
func (l *Loader) NotesByUser(ctx context.Context, userID string) ([]Record, error) {
	notes, err := l.loadNotes(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Record{}, notes[userID]...), nil
}

// SaveNote appends note to userID's notes and rewrites the notes file
// atomically. The current file contents are re-read first so that edits made
// outside the process are preserved.
func (l *Loader) SaveNote(ctx context.Context, userID string, note Record) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return agenterr.Wrap(err, agenterr.CodeDataSaveFailure, "saving note",
			agenterr.FieldUserID(userID))
	}

	notes := map[string][]Record{}
	if err := l.readJSON(NotesFile, &notes); err != nil {
		return agenterr.Wrap(err, agenterr.CodeDataSaveFailure, "reading notes before save",
			agenterr.FieldUserID(userID))
	}
	if notes == nil {
		notes = map[string][]Record{}
	}
	notes[userID] = append(notes[userID], note)

	payload, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return agenterr.Wrap(err, agenterr.CodeDataSaveFailure, "encoding notes",
			agenterr.FieldUserID(userID))
	}
	if err := writeFileAtomic(filepath.Join(l.dir, NotesFile), payload); err != nil {
		return agenterr.Wrap(err, agenterr.CodeDataSaveFailure, "writing notes file",
			agenterr.FieldUserID(userID))
	}

	l.mu.Lock()
	l.notes = nil
	delete(l.loaded, NotesFile)
	l.mu.Unlock()
	return nil
}

func (l *Loader) loadAccounts(ctx context.Context) ([]Record, error) {
	return cached(ctx, l, AccountFile, func() []Record { return l.accounts }, func() error {
		var f accountFile
		if err := l.decodeOrEmpty(AccountFile, &f); err != nil {
			return err
		}
		l.accounts = f.AccountOverview
		return nil
	})
}

func (l *Loader) loadFacilities(ctx context.Context) ([]Record, error) {
	return cached(ctx, l, FacilityFile, func() []Record { return l.facilities }, func() error {
		var f facilityFile
		if err := l.decodeOrEmpty(FacilityFile, &f); err != nil {
			return err
		}
		l.facilities = f.FacilityOverview
		return nil
	})
}

func (l *Loader) loadNotes(ctx context.Context) (map[string][]Record, error) {
	return cached(ctx, l, NotesFile, func() map[string][]Record { return l.notes }, func() error {
		notes := map[string][]Record{}
		if err := l.decodeOrEmpty(NotesFile, &notes); err != nil {
			return err
		}
		l.notes = notes
		return nil
	})
}

// cached returns get() for name, running load under the write lock first
// when name is not cached. The check and the read share one critical
// section, so a concurrent Invalidate never yields an empty snapshot.
// Cached values are replaced on reload, never mutated.
func cached[T any](ctx context.Context, l *Loader, name string, get func() T, load func() error) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, agenterr.Wrap(err, agenterr.CodeDataLoadFailure, "loading "+name)
	}

	l.mu.RLock()
	if l.loaded[name] {
		v := get()
		l.mu.RUnlock()
		return v, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded[name] {
		if err := load(); err != nil {
			return zero, err
		}
		l.loaded[name] = true
	}
	return get(), nil
}

// decodeOrEmpty decodes name into v. Missing and malformed files leave v
// untouched; only I/O faults are returned.
func (l *Loader) decodeOrEmpty(name string, v any) error {
	err := l.readJSON(name, v)
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		l.logger.Warn("ignoring malformed data file", "file", name, "error", err)
		return nil
	}
	if err != nil {
		return agenterr.Wrap(err, agenterr.CodeDataLoadFailure, "reading "+name)
	}
	return nil
}

func (l *Loader) readJSON(name string, v any) error {
	raw, err := os.ReadFile(filepath.Join(l.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".notes-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func stringField(r Record, key string) string {
	s, _ := r[key].(string)
	return s
}
