// Package session holds the mutable entitlement state of the user session.
package session

import (
	"slices"
	"sync"

	"defi_tracker/internal/domain/entity"
)

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	Premium       bool            `json:"premium"`
	ActiveModules []entity.Module `json:"active_modules"`
}

// State is safe for concurrent use. It implements port.SessionState.
type State struct {
	mu      sync.RWMutex
	premium bool
	modules []entity.Module
}

// NewState creates a State with the given initial settings.
func NewState(premium bool, modules []entity.Module) *State {
	s := &State{}
	s.Set(premium, modules)
	return s
}

// IsPremium reports whether the session has a premium subscription.
func (s *State) IsPremium() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.premium
}

// ActiveModules returns a copy of the active modules.
func (s *State) ActiveModules() []entity.Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.modules)
}

// Set replaces the session settings. Duplicate modules are collapsed.
func (s *State) Set(premium bool, modules []entity.Module) {
	deduped := make([]entity.Module, 0, len(modules))
	for _, m := range modules {
		if m != "" && !slices.Contains(deduped, m) {
			deduped = append(deduped, m)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premium = premium
	s.modules = deduped
}

// Snapshot returns the current settings.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Premium: s.premium, ActiveModules: slices.Clone(s.modules)}
}
