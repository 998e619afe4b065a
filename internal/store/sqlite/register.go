// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package sqlite

import (
	"os"
	"path/filepath"

	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

func init() {
	store.RegisterBackend("sqlite", newConversationStore)
}

func newConversationStore(dataPath string) (store.ConversationStore, error) {
	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeStoreDatabaseFailure, "creating storage directory")
	}
	return NewConversationStore(filepath.Join(dataPath, "conversations.db"))
}
