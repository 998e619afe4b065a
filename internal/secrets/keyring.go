// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/zalando/go-keyring"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// indexSuffix names the entry holding a service's JSON key list. go-keyring
// cannot enumerate keys on its own.
const indexSuffix = "::index"

var _ Store = (*KeyringStore)(nil)

// KeyringStore keeps secrets in the OS keyring: Keychain on macOS,
// secret-service on Linux and Credential Manager on Windows.
type KeyringStore struct {
	logger *slog.Logger
}

// NewKeyringStore returns a KeyringStore. A nil logger uses slog.Default().
func NewKeyringStore(logger *slog.Logger) *KeyringStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyringStore{logger: logger}
}

func checkRef(op, service, key string) error {
	if service == "" || key == "" {
		return agenterr.Errorf(agenterr.CodeSecretInvalidInput,
			"secret %s: service and key must not be empty", op)
	}
	if key == service+indexSuffix {
		return agenterr.Errorf(agenterr.CodeSecretInvalidInput,
			"secret %s: key %q is reserved", op, key)
	}
	return nil
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkRef("store", service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return agenterr.Wrapf(err, agenterr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	keys, err := s.index(service)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	return s.writeIndex(service, append(keys, key))
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkRef("retrieve", service, key); err != nil {
		return "", err
	}
	val, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", agenterr.Errorf(agenterr.CodeSecretEntryNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return "", agenterr.Wrapf(err, agenterr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkRef("delete", service, key); err != nil {
		return err
	}
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return agenterr.Errorf(agenterr.CodeSecretEntryNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return agenterr.Wrapf(err, agenterr.CodeSecretStoreFailure, "deleting secret %s/%s", service, key)
	}

	keys, err := s.index(service)
	if err != nil {
		return err
	}
	return s.writeIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}

func (s *KeyringStore) List(service string) ([]string, error) {
	if service == "" {
		return nil, agenterr.New(agenterr.CodeSecretInvalidInput, "secret list: service must not be empty")
	}
	keys, err := s.index(service)
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *KeyringStore) index(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+indexSuffix)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, agenterr.Wrapf(err, agenterr.CodeSecretStoreFailure, "loading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, agenterr.Wrapf(err, agenterr.CodeSecretStoreFailure, "decoding key index for %s", service)
	}
	return keys, nil
}

func (s *KeyringStore) writeIndex(service string, keys []string) error {
	name := service + indexSuffix
	if len(keys) == 0 {
		if err := keyring.Delete(service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			s.logger.Debug("removing empty key index", "service", service, "error", err)
		}
		return nil
	}

	raw, err := json.Marshal(keys)
	if err != nil {
		return agenterr.Wrapf(err, agenterr.CodeSecretStoreFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, name, string(raw)); err != nil {
		return agenterr.Wrapf(err, agenterr.CodeSecretStoreFailure, "saving key index for %s", service)
	}
	return nil
}
