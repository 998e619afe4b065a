// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package provider

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// Registry manages provider registration, lookup, and routing with
// failover. It implements the Router interface.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider

	defaultRef string   // "provider/model" format
	failover   []string // ordered list of "provider/model" refs
}

var _ Router = (*Registry)(nil)

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry, replacing any previous
// provider with the same name.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, agenterr.New(
			agenterr.CodeProviderNotFound,
			"provider not found: "+name,
			agenterr.FieldProvider(name),
		)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDefault sets the "provider/model" reference used when Route is called
// without an explicit model. The provider must already be registered.
func (r *Registry) SetDefault(ref string) error {
	if err := validateRef(ref); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	provName, _ := parseRef(ref)
	if _, ok := r.providers[provName]; !ok {
		return agenterr.New(
			agenterr.CodeProviderNotFound,
			"SetDefault: provider not registered: "+provName,
			agenterr.FieldProvider(provName),
		)
	}
	r.defaultRef = ref
	return nil
}

// SetFailover sets the ordered failover chain of "provider/model" refs.
// Every provider named in the chain must already be registered.
func (r *Registry) SetFailover(chain []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range chain {
		if err := validateRef(ref); err != nil {
			return err
		}
		provName, _ := parseRef(ref)
		if _, ok := r.providers[provName]; !ok {
			return agenterr.New(
				agenterr.CodeProviderNotFound,
				"SetFailover: provider not registered: "+provName,
				agenterr.FieldProvider(provName),
			)
		}
	}
	r.failover = append([]string(nil), chain...)
	return nil
}

// MaxAttempts returns 1 (primary) + len(failover chain) so the agent loop
// caps its retries to the number of configured candidates.
func (r *Registry) MaxAttempts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return 1 + len(r.failover)
}

// Route selects a provider for modelRef. An empty ref (or "default") uses
// the configured default. When the primary is unavailable or excluded the
// failover chain is walked in order.
func (r *Registry) Route(ctx context.Context, modelRef string, exclude ...string) (Provider, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, err := r.resolveRef(modelRef)
	if err != nil {
		return nil, "", err
	}
	if ref == "" {
		return nil, "", agenterr.New(
			agenterr.CodeProviderNoDefault,
			"no default provider configured",
		)
	}

	provName, _ := parseRef(ref)
	if !slices.Contains(exclude, provName) {
		p, model, err := r.tryRef(ctx, ref)
		if err == nil {
			return p, model, nil
		}
	}

	for _, fallback := range r.failover {
		fbProv, _ := parseRef(fallback)
		if slices.Contains(exclude, fbProv) {
			continue
		}
		p, model, err := r.tryRef(ctx, fallback)
		if err == nil {
			return p, model, nil
		}
	}

	return nil, "", agenterr.New(
		agenterr.CodeProviderAllUnavailable,
		"all providers unavailable: no healthy provider found",
	)
}

// Health returns a snapshot for every registered provider. Providers
// without a tracker are reported by their Available answer alone.
func (r *Registry) Health(ctx context.Context) []HealthMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HealthMetrics, 0, len(names))
	for _, name := range names {
		p := r.providers[name]
		var m HealthMetrics
		if hp, ok := p.(interface{ HealthMetrics() HealthMetrics }); ok {
			m = hp.HealthMetrics()
		} else {
			m.Available = p.Available(ctx)
		}
		m.Provider = name
		out = append(out, m)
	}
	return out
}

// Close shuts down all registered providers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return agenterr.Join(errs...)
}

// resolveRef determines which "provider/model" ref to use.
// Caller must hold r.mu (at least RLock).
func (r *Registry) resolveRef(modelRef string) (string, error) {
	if modelRef != "" && modelRef != "default" {
		if err := validateRef(modelRef); err != nil {
			return "", err
		}
		return modelRef, nil
	}
	return r.defaultRef, nil
}

// tryRef parses a "provider/model" ref, looks up the provider, and checks
// availability. Caller must hold r.mu (at least RLock).
func (r *Registry) tryRef(ctx context.Context, ref string) (Provider, string, error) {
	providerName, model := parseRef(ref)

	p, ok := r.providers[providerName]
	if !ok {
		return nil, "", agenterr.New(
			agenterr.CodeProviderNotFound,
			"provider not found: "+providerName,
			agenterr.FieldProvider(providerName),
		)
	}

	if !p.Available(ctx) {
		return nil, "", agenterr.New(
			agenterr.CodeProviderUpstreamFailure,
			"provider unavailable: "+providerName,
			agenterr.FieldProvider(providerName),
		)
	}

	return p, model, nil
}

// ValidateRef reports whether ref has the "provider/model" shape with both
// parts non-empty.
func ValidateRef(ref string) error { return validateRef(ref) }

func validateRef(ref string) error {
	provName, model := parseRef(ref)
	if provName == "" || model == "" || !strings.Contains(ref, "/") {
		return agenterr.Errorf(
			agenterr.CodeProviderInvalidModelRef,
			"model name %q must use provider/model format", ref,
		)
	}
	return nil
}

// parseRef splits a "provider/model" reference on the first "/".
func parseRef(ref string) (providerName, model string) {
	idx := strings.Index(ref, "/")
	if idx < 0 {
		return ref, ""
	}
	return ref[:idx], ref[idx+1:]
}

// ParseRef splits a "provider/model" reference on the first "/".
func ParseRef(ref string) (providerName, model string) { return parseRef(ref) }
