// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

// Package secrets stores provider credentials outside the config file and
// resolves keyring://service/key references found in configuration.
package secrets

// DefaultService is the keyring service used by the CLI.
const DefaultService = "agentpoc"

// Store provides secret storage operations.
type Store interface {
	// Store saves value under service/key, replacing any previous value.
	Store(service, key, value string) error

	// Retrieve returns the value for service/key. A missing entry yields
	// CodeSecretEntryNotFound.
	Retrieve(service, key string) (string, error)

	// Delete removes service/key. A missing entry yields
	// CodeSecretEntryNotFound.
	Delete(service, key string) error

	// List returns the key names stored under service, sorted.
	List(service string) ([]string, error)
}
