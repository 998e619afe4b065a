// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package store

import (
	"sync"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// ConversationStoreFactory creates a conversation store rooted at dataPath.
type ConversationStoreFactory func(dataPath string) (ConversationStore, error)

var (
	factories   = map[string]ConversationStoreFactory{}
	factoriesMu sync.RWMutex
)

func init() {
	RegisterBackend("memory", func(string) (ConversationStore, error) {
		return NewMemoryConversationStore(), nil
	})
}

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, factory ConversationStoreFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// NewConversationStore creates the conversation store for the configured backend.
func NewConversationStore(cfg *StorageConfig, dataPath string) (ConversationStore, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, agenterr.Errorf(agenterr.CodeStoreBackendUnsupported,
			"unsupported storage backend: %q", backend)
	}

	return factory(dataPath)
}
