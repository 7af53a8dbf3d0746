package service

import (
	"context"
	"sync"
	"sync/atomic"

	"defi_tracker/internal/domain/entity"
)

const (
	ownerLower    = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	ownerChecksum = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

	balancesPayload = `{"` + ownerLower + `": [{"address": "P1", "tokens": [{"token": "T1", "weight": "100"}],
		"total_amount": "10", "user_balance": {"amount": "1", "usd_value": "2"}}]}`
	eventsPayload = `{"` + ownerLower + `": [{"pool_address": "P2", "pool_tokens": [{"token": "T2", "weight": "100"}],
		"events": [{"tx_hash": "0x1", "log_index": 1, "timestamp": 1600000000, "event_type": "mint",
			"lp_balance": {"amount": "1", "usd_value": "1"}, "amounts": {"T2": "5"}}],
		"profit_loss_amounts": {"T2": "5"}, "usd_profit_loss": "10"}]}`
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type fakeSession struct {
	mu      sync.Mutex
	premium bool
	modules []entity.Module
}

func (s *fakeSession) IsPremium() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.premium
}

func (s *fakeSession) ActiveModules() []entity.Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Module(nil), s.modules...)
}

func premiumSession() *fakeSession {
	return &fakeSession{premium: true, modules: []entity.Module{entity.ModuleBalancer}}
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []entity.Message
}

func (n *fakeNotifier) Notify(msg entity.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *fakeNotifier) messages() []entity.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entity.Message(nil), n.msgs...)
}

type fakeAssets struct {
	calls atomic.Int32
	err   error
}

func (a *fakeAssets) FetchSupportedAssets(context.Context, bool) error {
	a.calls.Add(1)
	return a.err
}

type fakeBalancerAPI struct {
	balanceCalls atomic.Int32
	eventCalls   atomic.Int32
	balances     func(ctx context.Context) ([]byte, error)
	events       func(ctx context.Context) ([]byte, error)
}

func (f *fakeBalancerAPI) FetchBalancerBalances(ctx context.Context) ([]byte, error) {
	f.balanceCalls.Add(1)
	if f.balances == nil {
		return []byte(balancesPayload), nil
	}
	return f.balances(ctx)
}

func (f *fakeBalancerAPI) FetchBalancerEvents(ctx context.Context) ([]byte, error) {
	f.eventCalls.Add(1)
	if f.events == nil {
		return []byte(eventsPayload), nil
	}
	return f.events(ctx)
}
