package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"defi_tracker/internal/app/store"
	"defi_tracker/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	api      *fakeBalancerAPI
	session  *fakeSession
	notifier *fakeNotifier
	assets   *fakeAssets
	store    *store.BalancerStore
	service  *BalancerService
}

func newHarness(session *fakeSession) *harness {
	h := &harness{
		api:      &fakeBalancerAPI{},
		session:  session,
		notifier: &fakeNotifier{},
		assets:   &fakeAssets{},
		store:    store.NewBalancerStore(),
	}
	controller := NewRefreshController(h.session, NewStatusUpdater(), h.notifier, h.assets, nopLogger{})
	h.service = NewBalancerService(h.api, h.store, controller, nopLogger{})
	return h
}

func TestFetchBalances_GatedWithoutPremium(t *testing.T) {
	h := newHarness(&fakeSession{premium: false, modules: []entity.Module{entity.ModuleBalancer}})

	outcome := h.service.FetchBalances(context.Background(), true)

	assert.Equal(t, entity.OutcomeGated, outcome)
	assert.Zero(t, h.api.balanceCalls.Load())
	assert.Equal(t, entity.StatusNone, h.service.Status(entity.SectionDefiBalancerBalances))
	assert.Empty(t, h.service.BalanceList())
	assert.Empty(t, h.notifier.messages())
	assert.Equal(t, int32(1), h.assets.calls.Load(), "asset refresh runs after every call")
}

func TestFetchEvents_GatedWithoutModule(t *testing.T) {
	h := newHarness(&fakeSession{premium: true, modules: []entity.Module{entity.ModuleUniswap}})

	outcome := h.service.FetchEvents(context.Background(), false)

	assert.Equal(t, entity.OutcomeGated, outcome)
	assert.Zero(t, h.api.eventCalls.Load())
	assert.Equal(t, entity.StatusNone, h.service.Status(entity.SectionDefiBalancerEvents))
}

func TestFetchBalances_LoadsOnceUnlessForced(t *testing.T) {
	h := newHarness(premiumSession())
	ctx := context.Background()

	require.Equal(t, entity.OutcomeLoaded, h.service.FetchBalances(ctx, false))
	assert.Equal(t, entity.StatusLoaded, h.service.Status(entity.SectionDefiBalancerBalances))
	assert.Equal(t, []entity.Address{ownerChecksum}, h.service.Addresses())

	assert.Equal(t, entity.OutcomeSkipped, h.service.FetchBalances(ctx, false))
	assert.Equal(t, int32(1), h.api.balanceCalls.Load())

	assert.Equal(t, entity.OutcomeLoaded, h.service.FetchBalances(ctx, true))
	assert.Equal(t, int32(2), h.api.balanceCalls.Load())
	assert.Equal(t, int32(3), h.assets.calls.Load())
}

func TestFetchBalances_ForcedFailureKeepsData(t *testing.T) {
	h := newHarness(premiumSession())
	ctx := context.Background()
	require.Equal(t, entity.OutcomeLoaded, h.service.FetchBalances(ctx, false))
	before := h.service.BalanceList()

	h.api.balances = func(context.Context) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	outcome := h.service.FetchBalances(ctx, true)

	assert.Equal(t, entity.OutcomeFailed, outcome)
	assert.Equal(t, entity.StatusError, h.service.Status(entity.SectionDefiBalancerBalances))
	assert.Equal(t, before, h.service.BalanceList())

	msgs := h.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Balancer balances", msgs[0].Title)
	assert.False(t, msgs[0].Success)
	assert.True(t, strings.HasPrefix(msgs[0].Description, "Failed to fetch the Balancer balances: "))
	assert.Contains(t, msgs[0].Description, "connection refused")
}

func TestFetchEvents_SchemaFailure(t *testing.T) {
	h := newHarness(premiumSession())
	h.api.events = func(context.Context) ([]byte, error) {
		return []byte(`{"` + ownerLower + `": [{"pool_tokens": []}]}`), nil
	}

	outcome := h.service.FetchEvents(context.Background(), false)

	assert.Equal(t, entity.OutcomeFailed, outcome)
	assert.Equal(t, entity.StatusError, h.service.Status(entity.SectionDefiBalancerEvents))
	assert.Empty(t, h.service.EventList())
	msgs := h.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Balancer events", msgs[0].Title)
	assert.Contains(t, msgs[0].Description, "invalid balancer events payload")
}

func TestFetchBalances_SecondaryFailureSwallowed(t *testing.T) {
	h := newHarness(premiumSession())
	h.assets.err = errors.New("assets unavailable")

	outcome := h.service.FetchBalances(context.Background(), false)

	assert.Equal(t, entity.OutcomeLoaded, outcome)
	assert.Equal(t, entity.StatusLoaded, h.service.Status(entity.SectionDefiBalancerBalances))
	assert.Empty(t, h.notifier.messages())
}

func TestFetchBalances_ConcurrentCallSkipsWhileLoading(t *testing.T) {
	h := newHarness(premiumSession())
	started := make(chan struct{})
	release := make(chan struct{})
	h.api.balances = func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return []byte(balancesPayload), nil
	}

	done := make(chan entity.Outcome, 1)
	go func() { done <- h.service.FetchBalances(context.Background(), false) }()
	<-started

	assert.Equal(t, entity.StatusLoading, h.service.Status(entity.SectionDefiBalancerBalances))
	assert.Equal(t, entity.OutcomeSkipped, h.service.FetchBalances(context.Background(), true))

	close(release)
	assert.Equal(t, entity.OutcomeLoaded, <-done)
	assert.Equal(t, int32(1), h.api.balanceCalls.Load())
}

func TestReset_DiscardsInFlightResult(t *testing.T) {
	h := newHarness(premiumSession())
	started := make(chan struct{})
	release := make(chan struct{})
	h.api.balances = func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return []byte(balancesPayload), nil
	}

	done := make(chan entity.Outcome, 1)
	go func() { done <- h.service.FetchBalances(context.Background(), false) }()
	<-started

	h.service.Reset()
	close(release)

	select {
	case outcome := <-done:
		assert.Equal(t, entity.OutcomeDiscarded, outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not finish")
	}
	assert.Equal(t, entity.StatusNone, h.service.Status(entity.SectionDefiBalancerBalances))
	assert.Empty(t, h.service.BalanceList())
}

func TestReset_DiscardsInFlightFailure(t *testing.T) {
	h := newHarness(premiumSession())
	started := make(chan struct{})
	release := make(chan struct{})
	h.api.events = func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return nil, errors.New("timeout")
	}

	done := make(chan entity.Outcome, 1)
	go func() { done <- h.service.FetchEvents(context.Background(), false) }()
	<-started
	h.service.Reset()
	close(release)

	assert.Equal(t, entity.OutcomeDiscarded, <-done)
	assert.Equal(t, entity.StatusNone, h.service.Status(entity.SectionDefiBalancerEvents))
	assert.Empty(t, h.notifier.messages())
}

func TestReset_ClearsProjectionsAndStatuses(t *testing.T) {
	h := newHarness(premiumSession())
	results := h.service.RefreshAll(context.Background(), false)
	require.Equal(t, entity.OutcomeLoaded, results[entity.SectionDefiBalancerBalances])
	require.Equal(t, entity.OutcomeLoaded, results[entity.SectionDefiBalancerEvents])
	require.Len(t, h.service.Pools(), 2)
	require.Len(t, h.service.ProfitLoss(), 1)

	h.service.Reset()

	assert.Empty(t, h.service.Addresses())
	assert.Empty(t, h.service.BalanceList())
	assert.Empty(t, h.service.Pools())
	assert.Empty(t, h.service.EventList())
	assert.Empty(t, h.service.ProfitLoss())
	assert.Equal(t, entity.StatusNone, h.service.Status(entity.SectionDefiBalancerBalances))
	assert.Equal(t, entity.StatusNone, h.service.Status(entity.SectionDefiBalancerEvents))

	assert.Equal(t, entity.OutcomeLoaded, h.service.FetchBalances(context.Background(), false))
}

func TestRefreshAll_ProjectionsFollowData(t *testing.T) {
	h := newHarness(premiumSession())
	h.service.RefreshAll(context.Background(), true)

	events := h.service.EventList(ownerChecksum)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Pool)
	assert.Equal(t, "P2", events[0].Pool.Address)

	pl := h.service.ProfitLoss(ownerChecksum)
	require.Len(t, pl, 1)
	assert.Equal(t, "10", pl[0].UsdProfitLoss.String())

	assert.Empty(t, h.service.EventList("0x0000000000000000000000000000000000000001"))
}

func TestRefreshController_WrapsQueryErrors(t *testing.T) {
	notifier := &fakeNotifier{}
	c := NewRefreshController(premiumSession(), NewStatusUpdater(), notifier, nil, nopLogger{})
	s := store.NewBalancerStore()

	outcome := FetchDataAsync(context.Background(), c, FetchRequest[entity.BalancerBalances]{
		Section: entity.SectionDefiBalancerBalances,
		Query: func(context.Context) ([]byte, error) {
			return nil, errors.New("boom")
		},
		Parser:  func([]byte) (entity.BalancerBalances, error) { return nil, nil },
		OnError: OnError{Title: "t"},
	}, balancesTarget{s})

	assert.Equal(t, entity.OutcomeFailed, outcome)
	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "defi_balancer_balances: boom", msgs[0].Description)
}
