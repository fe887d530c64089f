// Package memory implements the domain store interfaces with plain maps
// guarded by mutexes. It backs the "memory" operating mode and gives every
// test an isolated store with well-defined empty initial state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/updownlabs/updown/internal/domain"
)

// MarketStore implements domain.MarketStore in memory.
type MarketStore struct {
	mu      sync.RWMutex
	markets map[uint64]domain.Market
	nextID  uint64
}

// NewMarketStore creates an empty market store. Ids start at 0.
func NewMarketStore() *MarketStore {
	return &MarketStore{markets: make(map[uint64]domain.Market)}
}

func (s *MarketStore) Create(ctx context.Context, m domain.Market) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextID
	s.nextID++
	s.markets[m.ID] = m
	return m.ID, nil
}

func (s *MarketStore) Get(ctx context.Context, id uint64) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *MarketStore) Update(ctx context.Context, m domain.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markets[m.ID]; !ok {
		return domain.ErrNotFound
	}
	s.markets[m.ID] = m
	return nil
}

func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.markets))
	for id := range s.markets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []domain.Market
	for i, id := range ids {
		if opts.Offset > 0 && i < opts.Offset {
			continue
		}
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
		out = append(out, s.markets[id])
	}
	return out, nil
}

func (s *MarketStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID, nil
}

// positionKey identifies a position by market and account.
type positionKey struct {
	marketID uint64
	account  domain.Account
}

// PositionStore implements domain.PositionStore in memory.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[positionKey]domain.Position
}

// NewPositionStore creates an empty position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[positionKey]domain.Position)}
}

func (s *PositionStore) Create(ctx context.Context, p domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := positionKey{p.MarketID, p.Account}
	if _, ok := s.positions[key]; ok {
		return domain.ErrAlreadyExists
	}
	s.positions[key] = p
	return nil
}

func (s *PositionStore) Get(ctx context.Context, marketID uint64, account domain.Account) (domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[positionKey{marketID, account}]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *PositionStore) Update(ctx context.Context, p domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := positionKey{p.MarketID, p.Account}
	if _, ok := s.positions[key]; !ok {
		return domain.ErrNotFound
	}
	s.positions[key] = p
	return nil
}

func (s *PositionStore) ListByMarket(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Position
	for key, p := range s.positions {
		if key.marketID == marketID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.Before(out[j].PlacedAt) })
	return out, nil
}

func (s *PositionStore) ListByAccount(ctx context.Context, account domain.Account) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Position
	for key, p := range s.positions {
		if key.account == account {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID < out[j].MarketID })
	return out, nil
}

// ParamStore implements domain.ParamStore in memory.
type ParamStore struct {
	mu     sync.RWMutex
	params domain.Params
}

// NewParamStore creates a param store seeded with initial.
func NewParamStore(initial domain.Params) *ParamStore {
	return &ParamStore{params: initial}
}

func (s *ParamStore) Get(ctx context.Context) (domain.Params, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params, nil
}

func (s *ParamStore) Set(ctx context.Context, p domain.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	return nil
}

// AuditStore implements domain.AuditStore as an in-memory append-only log.
type AuditStore struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	nextID  int64
}

// NewAuditStore creates an empty audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.entries = append(s.entries, domain.AuditEntry{
		ID:        s.nextID,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *AuditStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := opts.Offset
	if start > len(s.entries) {
		start = len(s.entries)
	}
	end := len(s.entries)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	out := make([]domain.AuditEntry, end-start)
	copy(out, s.entries[start:end])
	return out, nil
}
