// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package secrets

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

const scheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, scheme)
}

// URI builds keyring://service/key.
func URI(service, key string) string {
	return scheme + service + "/" + key
}

// ParseKeyringURI splits keyring://service/key. The key may contain slashes.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", agenterr.Errorf(agenterr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}
	service, key, ok := strings.Cut(strings.TrimPrefix(uri, scheme), "/")
	if !ok || service == "" || key == "" {
		return "", "", agenterr.Errorf(agenterr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}
	return service, key, nil
}

// Resolve returns the secret a keyring URI points at. Any other value is
// returned unchanged.
func Resolve(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}
	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}
	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", agenterr.Wrapf(err, agenterr.CodeSecretResolveFailure, "resolving %q", value)
	}
	return secret, nil
}

// ResolveViper replaces every keyring URI among v's string values with the
// secret it names. Unresolvable references stay in place and are logged;
// the count of resolved keys is returned.
func ResolveViper(v *viper.Viper, store Store, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	resolved := 0
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok || !IsKeyringURI(val) {
			continue
		}
		secret, err := Resolve(store, val)
		if err != nil {
			logger.Warn("keyring reference not resolved",
				"config_key", key,
				"error", err,
			)
			continue
		}
		v.Set(key, secret)
		resolved++
	}
	return resolved
}
