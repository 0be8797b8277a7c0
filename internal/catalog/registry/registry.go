// Package registry tracks the rulesets available to the engine and loads
// plugin-backed rulesets on first use.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/localift/engage/internal/catalog/sdk"
)

// Status represents the lifecycle state of a registered ruleset.
type Status string

const (
	// StatusUnloaded means the ruleset is registered but its plugin has not
	// been launched yet. Builtin rulesets are never in this state.
	StatusUnloaded Status = "unloaded"

	// StatusReady means the ruleset can resolve.
	StatusReady Status = "ready"

	// StatusFailed means the plugin failed to load. The failure is sticky
	// until the registry is closed and rebuilt.
	StatusFailed Status = "failed"
)

// Entry holds a registered ruleset and its metadata.
type Entry struct {
	// Name is the registry key.
	Name string

	// Ruleset is the instance, nil while a plugin is unloaded.
	Ruleset sdk.Ruleset

	// Manifest describes the plugin binary. Nil for builtin rulesets.
	Manifest *Manifest

	// Status is the current lifecycle state.
	Status Status

	// Err records why loading failed.
	Err error

	// Builtin marks rulesets compiled into the engine.
	Builtin bool
}

// Registry maps ruleset names to instances. Builtin rulesets are registered
// ready; plugin rulesets are registered from manifests and launched the
// first time they are asked for.
type Registry struct {
	mu       sync.RWMutex
	rulesets map[string]Entry
	loader   *Loader
	logger   *slog.Logger
}

// NewRegistry creates a ruleset registry. The loader may be nil when only
// builtin rulesets are used.
func NewRegistry(loader *Loader, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rulesets: make(map[string]Entry),
		loader:   loader,
		logger:   logger,
	}
}

// RegisterBuiltin registers a compiled-in ruleset under its own name.
func (r *Registry) RegisterBuiltin(ruleset sdk.Ruleset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := ruleset.Name()
	if name == "" {
		return fmt.Errorf("ruleset name is required")
	}

	if _, exists := r.rulesets[name]; exists {
		return sdk.ErrRulesetAlreadyExists
	}

	r.rulesets[name] = Entry{
		Name:    name,
		Ruleset: ruleset,
		Status:  StatusReady,
		Builtin: true,
	}

	r.logger.Info("registered builtin ruleset", "ruleset", name)

	return nil
}

// RegisterManifest registers an external ruleset for lazy loading.
func (r *Registry) RegisterManifest(manifest *Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if manifest == nil {
		return fmt.Errorf("manifest is required")
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	if _, exists := r.rulesets[manifest.Name]; exists {
		return sdk.ErrRulesetAlreadyExists
	}

	r.rulesets[manifest.Name] = Entry{
		Name:     manifest.Name,
		Manifest: manifest,
		Status:   StatusUnloaded,
	}

	r.logger.Info("registered ruleset plugin",
		"ruleset", manifest.Name,
		"version", manifest.Version,
	)

	return nil
}

// Get returns a ruleset by name, launching its plugin if necessary.
func (r *Registry) Get(ctx context.Context, name string) (sdk.Ruleset, error) {
	r.mu.RLock()
	entry, exists := r.rulesets[name]
	if exists && entry.Status == StatusReady && entry.Ruleset != nil {
		r.mu.RUnlock()
		return entry.Ruleset, nil
	}
	r.mu.RUnlock()

	// The load path holds the write lock across the plugin launch. Loads are
	// rare (once per ruleset per process) so blocking other lookups briefly
	// is acceptable.
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists = r.rulesets[name]
	if !exists {
		return nil, sdk.ErrRulesetNotFound
	}

	switch {
	case entry.Status == StatusReady && entry.Ruleset != nil:
		return entry.Ruleset, nil
	case entry.Status == StatusFailed:
		return nil, entry.Err
	case entry.Manifest == nil:
		return nil, fmt.Errorf("ruleset %s has no manifest to load from", name)
	case r.loader == nil:
		return nil, fmt.Errorf("ruleset %s requires a plugin loader", name)
	}

	ruleset, err := r.loader.Load(ctx, LoadOptions{Manifest: entry.Manifest})
	if err != nil {
		entry.Status = StatusFailed
		entry.Err = err
		r.rulesets[name] = entry
		return nil, err
	}

	entry.Ruleset = ruleset
	entry.Status = StatusReady
	entry.Err = nil
	r.rulesets[name] = entry

	return ruleset, nil
}

// Has checks if a ruleset is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.rulesets[name]
	return exists
}

// Status returns the lifecycle state of a ruleset.
func (r *Registry) Status(name string) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.rulesets[name]
	if !exists {
		return "", sdk.ErrRulesetNotFound
	}
	return entry.Status, nil
}

// List returns all registered rulesets ordered by name.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.rulesets))
	for _, entry := range r.rulesets {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Count returns the number of registered rulesets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rulesets)
}

// Close stops every plugin process and returns plugin entries to the
// unloaded state. Builtin rulesets stay ready.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loader != nil {
		r.loader.UnloadAll()
	}

	for name, entry := range r.rulesets {
		if entry.Builtin {
			continue
		}
		entry.Ruleset = nil
		entry.Status = StatusUnloaded
		entry.Err = nil
		r.rulesets[name] = entry
	}
}
