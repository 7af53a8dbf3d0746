package service

import (
	"sync"

	"defi_tracker/internal/domain/entity"
)

type sectionState struct {
	status entity.FetchStatus
	ticket uint64
}

// StatusUpdater tracks the FetchStatus of every section.
// Sections never written report StatusNone.
type StatusUpdater struct {
	mu       sync.RWMutex
	sections map[entity.Section]sectionState
	tickets  uint64
}

// NewStatusUpdater creates an empty registry.
func NewStatusUpdater() *StatusUpdater {
	return &StatusUpdater{sections: make(map[entity.Section]sectionState)}
}

// Get returns the status of section.
func (u *StatusUpdater) Get(section entity.Section) entity.FetchStatus {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.sections[section].status
}

// Set records the status of section. Any refresh still in flight for the
// section loses the right to record its own outcome.
func (u *StatusUpdater) Set(section entity.Section, status entity.FetchStatus) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sections[section] = sectionState{status: status}
}

// Reset sets every given section back to StatusNone.
func (u *StatusUpdater) Reset(sections ...entity.Section) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, s := range sections {
		delete(u.sections, s)
	}
}

// All returns a copy of every recorded status.
func (u *StatusUpdater) All() map[entity.Section]entity.FetchStatus {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make(map[entity.Section]entity.FetchStatus, len(u.sections))
	for k, v := range u.sections {
		out[k] = v.status
	}
	return out
}

// begin moves section to StatusLoading unless it is already loading, or
// already loaded and force is false. The check and the transition happen
// under one lock. On success it returns the ticket that finish requires.
func (u *StatusUpdater) begin(section entity.Section, force bool) (uint64, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch u.sections[section].status {
	case entity.StatusLoading:
		return 0, false
	case entity.StatusLoaded:
		if !force {
			return 0, false
		}
	}
	u.tickets++
	u.sections[section] = sectionState{status: entity.StatusLoading, ticket: u.tickets}
	return u.tickets, true
}

// owns reports whether ticket still holds the loading section.
func (u *StatusUpdater) owns(section entity.Section, ticket uint64) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	cur := u.sections[section]
	return cur.status == entity.StatusLoading && cur.ticket == ticket
}

// finish records the outcome of the refresh holding ticket. It reports
// false, and changes nothing, when the section was reset or restarted
// since begin.
func (u *StatusUpdater) finish(section entity.Section, ticket uint64, status entity.FetchStatus) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	cur := u.sections[section]
	if cur.status != entity.StatusLoading || cur.ticket != ticket {
		return false
	}
	u.sections[section] = sectionState{status: status, ticket: ticket}
	return true
}
