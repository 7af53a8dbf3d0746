package service

import (
	"context"
	"fmt"

	"defi_tracker/internal/app/port"
	"defi_tracker/internal/domain/entity"
)

var _ port.IgnoreService = (*IgnoreService)(nil)

// IgnoreService toggles whether selected history entries are ignored in accounting.
type IgnoreService struct {
	api      port.HistoryAPI
	notifier port.Notifier
	logger   port.Logger
}

// NewIgnoreService creates an IgnoreService.
func NewIgnoreService(api port.HistoryAPI, notifier port.Notifier, logger port.Logger) *IgnoreService {
	return &IgnoreService{api: api, notifier: notifier, logger: logger}
}

// Ignore (ignored=true) or unignore (ignored=false) the selected entries of
// the given kind. Entries already in the target state are left out. When no
// entry remains a message is posted and nothing is sent. After a successful
// change refresh is called, if set. It reports whether the backend was updated.
func (s *IgnoreService) Ignore(
	ctx context.Context,
	kind entity.IgnoreActionType,
	selected []entity.HistoryEntry,
	ignored bool,
	refresh func(),
) (bool, error) {
	seen := make(map[string]struct{}, len(selected))
	ids := make([]string, 0, len(selected))
	for _, entry := range selected {
		if entry.IgnoredInAccounting == ignored {
			continue
		}
		if _, ok := seen[entry.Identifier]; ok {
			continue
		}
		seen[entry.Identifier] = struct{}{}
		ids = append(ids, entry.Identifier)
	}

	if len(ids) == 0 {
		s.notifier.Notify(noItemsMessage(ignored))
		return false, nil
	}

	payload := entity.IgnoreActionPayload{ActionIDs: ids, Type: kind}
	if err := s.api.IgnoreInAccounting(ctx, payload, ignored); err != nil {
		s.logger.Error("Failed to change accounting ignore state", "type", kind, "ignore", ignored, "count", len(ids), "error", err)
		s.notifier.Notify(entity.Message{
			Title:       "Ignore in accounting",
			Description: fmt.Sprintf("Failed to update %d %s entries: %v", len(ids), kind, err),
			Success:     false,
		})
		return false, fmt.Errorf("failed to update ignored %s entries: %w", kind, err)
	}

	s.logger.Info("Accounting ignore state changed", "type", kind, "ignore", ignored, "count", len(ids))
	if refresh != nil {
		refresh()
	}
	return true, nil
}

func noItemsMessage(ignored bool) entity.Message {
	if ignored {
		return entity.Message{
			Title:       "No items to ignore",
			Description: "All selected items are already ignored",
		}
	}
	return entity.Message{
		Title:       "No items to unignore",
		Description: "None of the selected items are ignored",
	}
}
