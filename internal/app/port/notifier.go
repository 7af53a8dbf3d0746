package port

import "defi_tracker/internal/domain/entity"

// Notifier is the channel user-facing messages are reported through.
type Notifier interface {
	Notify(msg entity.Message)
}
