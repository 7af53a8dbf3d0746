package service

import (
	"context"
	"fmt"

	"defi_tracker/internal/app/parser"
	"defi_tracker/internal/app/port"
	"defi_tracker/internal/app/projection"
	"defi_tracker/internal/app/store"
	"defi_tracker/internal/domain/entity"

	"golang.org/x/sync/errgroup"
)

var balancerRequirements = entity.Requirements{
	Premium: true,
	Module:  entity.ModuleBalancer,
}

var _ port.BalancerService = (*BalancerService)(nil)

// BalancerService owns the balancer sections: it refreshes them from the
// portfolio API, resets them and serves their projections.
type BalancerService struct {
	api        port.BalancerAPI
	store      *store.BalancerStore
	engine     *projection.Engine
	controller *RefreshController
	logger     port.Logger
}

// NewBalancerService creates a BalancerService over an explicitly constructed store.
func NewBalancerService(api port.BalancerAPI, s *store.BalancerStore, controller *RefreshController, logger port.Logger) *BalancerService {
	return &BalancerService{
		api:        api,
		store:      s,
		engine:     projection.NewEngine(s),
		controller: controller,
		logger:     logger,
	}
}

// FetchBalances refreshes the balances section.
func (s *BalancerService) FetchBalances(ctx context.Context, refresh bool) entity.Outcome {
	return FetchDataAsync(ctx, s.controller, FetchRequest[entity.BalancerBalances]{
		Section: entity.SectionDefiBalancerBalances,
		Title:   "Balancer balances",
		Query:   s.api.FetchBalancerBalances,
		Parser:  parser.ParseBalances,
		OnError: OnError{
			Title: "Balancer balances",
			Error: func(message string) string {
				return fmt.Sprintf("Failed to fetch the Balancer balances: %s", message)
			},
		},
		Requires: balancerRequirements,
		Refresh:  refresh,
	}, balancesTarget{s.store})
}

// FetchEvents refreshes the events section.
func (s *BalancerService) FetchEvents(ctx context.Context, refresh bool) entity.Outcome {
	return FetchDataAsync(ctx, s.controller, FetchRequest[entity.BalancerEvents]{
		Section: entity.SectionDefiBalancerEvents,
		Title:   "Balancer events",
		Query:   s.api.FetchBalancerEvents,
		Parser:  parser.ParseEvents,
		OnError: OnError{
			Title: "Balancer events",
			Error: func(message string) string {
				return fmt.Sprintf("Failed to fetch the Balancer events: %s", message)
			},
		},
		Requires: balancerRequirements,
		Refresh:  refresh,
	}, eventsTarget{s.store})
}

// RefreshAll refreshes both sections concurrently and returns their outcomes.
func (s *BalancerService) RefreshAll(ctx context.Context, refresh bool) map[entity.Section]entity.Outcome {
	var balances, events entity.Outcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balances = s.FetchBalances(gctx, refresh)
		return nil
	})
	g.Go(func() error {
		events = s.FetchEvents(gctx, refresh)
		return nil
	})
	_ = g.Wait()

	s.logger.Debug("Balancer refresh finished", "balances", balances.String(), "events", events.String())
	return map[entity.Section]entity.Outcome{
		entity.SectionDefiBalancerBalances: balances,
		entity.SectionDefiBalancerEvents:   events,
	}
}

// Reset clears both sections and their statuses.
func (s *BalancerService) Reset() {
	s.controller.Reset(s.store.Clear,
		entity.SectionDefiBalancerBalances,
		entity.SectionDefiBalancerEvents,
	)
}

// Status returns the fetch status of a balancer section.
func (s *BalancerService) Status(section entity.Section) entity.FetchStatus {
	return s.controller.Statuses().Get(section)
}

// Addresses returns the addresses that hold balancer positions.
func (s *BalancerService) Addresses() []entity.Address {
	return s.engine.Addresses()
}

// BalanceList returns every pool position with its owner.
func (s *BalancerService) BalanceList() []entity.BalanceWithOwner {
	return s.engine.BalanceList()
}

// Pools returns the known pools.
func (s *BalancerService) Pools() []entity.Pool {
	return s.engine.Pools()
}

// EventList returns the pool events of the given addresses, or of all.
func (s *BalancerService) EventList(addresses ...entity.Address) []entity.BalancerEvent {
	return s.engine.EventList(addresses...)
}

// ProfitLoss returns the profit/loss per pool of the given addresses, or of all.
func (s *BalancerService) ProfitLoss(addresses ...entity.Address) []entity.BalancerProfitLoss {
	return s.engine.ProfitLoss(addresses...)
}

type balancesTarget struct{ s *store.BalancerStore }

func (t balancesTarget) Generation() uint64 { return t.s.Generation() }

func (t balancesTarget) Replace(generation uint64, data entity.BalancerBalances) bool {
	return t.s.ReplaceBalances(generation, data)
}

type eventsTarget struct{ s *store.BalancerStore }

func (t eventsTarget) Generation() uint64 { return t.s.Generation() }

func (t eventsTarget) Replace(generation uint64, data entity.BalancerEvents) bool {
	return t.s.ReplaceEvents(generation, data)
}
