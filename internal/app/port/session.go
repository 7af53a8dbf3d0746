package port

import "defi_tracker/internal/domain/entity"

// SessionState exposes the entitlement and module settings read at refresh time.
type SessionState interface {
	IsPremium() bool
	ActiveModules() []entity.Module
}
