package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"defi_tracker/internal/app/port"
	"defi_tracker/internal/domain/entity"
	"defi_tracker/internal/pkg/metrics"
)

// OnError describes how a failed refresh is reported to the user.
type OnError struct {
	Title string
	// Error turns the raw error message into the user-facing description.
	Error func(message string) string
}

// Target receives parsed data. Replace must apply data only if generation
// is still current and report whether it did.
type Target[T any] interface {
	Generation() uint64
	Replace(generation uint64, data T) bool
}

// FetchRequest describes one refresh of a section.
type FetchRequest[T any] struct {
	Section  entity.Section
	Title    string
	Query    func(ctx context.Context) ([]byte, error)
	Parser   func(data []byte) (T, error)
	OnError  OnError
	Requires entity.Requirements
	Refresh  bool
}

// RefreshController runs the guarded fetch pipeline shared by all sections.
type RefreshController struct {
	// mu orders status transitions and commits against resets. It is
	// never held while a remote query runs.
	mu sync.Mutex

	session  port.SessionState
	statuses *StatusUpdater
	notifier port.Notifier
	assets   port.AssetRefresher
	logger   port.Logger
}

// NewRefreshController creates a RefreshController. assets may be nil.
func NewRefreshController(
	session port.SessionState,
	statuses *StatusUpdater,
	notifier port.Notifier,
	assets port.AssetRefresher,
	logger port.Logger,
) *RefreshController {
	return &RefreshController{
		session:  session,
		statuses: statuses,
		notifier: notifier,
		assets:   assets,
		logger:   logger,
	}
}

// Statuses returns the status registry the controller writes to.
func (c *RefreshController) Statuses() *StatusUpdater {
	return c.statuses
}

// FetchDataAsync refreshes one section into target. Failures are reported
// through the notifier and reflected in the section status; they are never
// returned to the caller. The asset metadata refresh runs after every call.
func FetchDataAsync[T any](ctx context.Context, c *RefreshController, req FetchRequest[T], target Target[T]) entity.Outcome {
	outcome := fetch(ctx, c, req, target)
	metrics.RefreshTotal.WithLabelValues(string(req.Section), outcome.String()).Inc()
	c.refreshAssets(ctx)
	return outcome
}

func fetch[T any](ctx context.Context, c *RefreshController, req FetchRequest[T], target Target[T]) entity.Outcome {
	if !c.allowed(req.Requires) {
		c.logger.Debug("Refresh not run", "section", req.Section, "reason", entity.ErrGatingSkipped,
			"requires_premium", req.Requires.Premium, "requires_module", req.Requires.Module)
		return entity.OutcomeGated
	}

	c.mu.Lock()
	ticket, ok := c.statuses.begin(req.Section, req.Refresh)
	generation := target.Generation()
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Refresh skipped, section already fetched or in flight",
			"section", req.Section, "status", c.statuses.Get(req.Section).String())
		return entity.OutcomeSkipped
	}

	c.logger.Info("Refreshing section", "section", req.Section, "task", req.Title, "force", req.Refresh)
	started := time.Now()
	data, err := query(ctx, req)
	metrics.RefreshDuration.WithLabelValues(string(req.Section)).Observe(time.Since(started).Seconds())

	if err != nil {
		c.mu.Lock()
		recorded := c.statuses.finish(req.Section, ticket, entity.StatusError)
		c.mu.Unlock()
		if !recorded {
			c.logger.Info("Dropping failed refresh of a reset section", "section", req.Section, "error", err)
			return entity.OutcomeDiscarded
		}
		c.logger.Error("Section refresh failed", "section", req.Section, "task", req.Title, "error", err)
		c.report(req.OnError, err)
		return entity.OutcomeFailed
	}

	if !c.commit(req.Section, ticket, func() bool { return target.Replace(generation, data) }) {
		c.logger.Info("Dropping refresh result of a reset section", "section", req.Section)
		return entity.OutcomeDiscarded
	}
	c.logger.Info("Section refreshed", "section", req.Section, "duration", time.Since(started).String())
	return entity.OutcomeLoaded
}

// commit applies a successful refresh if the refresh still owns the section.
func (c *RefreshController) commit(section entity.Section, ticket uint64, replace func() bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.statuses.owns(section, ticket) {
		return false
	}
	if !replace() {
		// The store was cleared outside Reset; leave nothing half-loaded.
		c.statuses.finish(section, ticket, entity.StatusNone)
		return false
	}
	return c.statuses.finish(section, ticket, entity.StatusLoaded)
}

// Reset runs clear and sets sections back to StatusNone as one step.
// Refreshes in flight for those sections will discard their results.
func (c *RefreshController) Reset(clear func(), sections ...entity.Section) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear()
	c.statuses.Reset(sections...)
	c.logger.Info("Sections reset", "sections", sections)
}

func query[T any](ctx context.Context, req FetchRequest[T]) (T, error) {
	var zero T
	raw, err := req.Query(ctx)
	if err != nil {
		if !errors.Is(err, entity.ErrTransport) {
			err = &entity.TransportError{Op: string(req.Section), Err: err}
		}
		return zero, err
	}
	parsed, err := req.Parser(raw)
	if err != nil {
		if !errors.Is(err, entity.ErrSchemaValidation) {
			err = &entity.SchemaValidationError{Shape: string(req.Section), Err: err}
		}
		return zero, err
	}
	return parsed, nil
}

func (c *RefreshController) allowed(req entity.Requirements) bool {
	if req.Premium && !c.session.IsPremium() {
		return false
	}
	if req.Module != "" && !slices.Contains(c.session.ActiveModules(), req.Module) {
		return false
	}
	return true
}

func (c *RefreshController) report(onError OnError, err error) {
	description := err.Error()
	if onError.Error != nil {
		description = onError.Error(err.Error())
	}
	c.notifier.Notify(entity.Message{
		Title:       onError.Title,
		Description: description,
		Success:     false,
	})
}

func (c *RefreshController) refreshAssets(ctx context.Context) {
	if c.assets == nil {
		return
	}
	if err := c.assets.FetchSupportedAssets(ctx, true); err != nil {
		metrics.SecondaryRefreshFailures.Inc()
		c.logger.Warn("Asset metadata refresh failed", "error", fmt.Errorf("%w: %w", entity.ErrSecondaryRefresh, err))
	}
}
