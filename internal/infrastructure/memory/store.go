// Package memory is an in-process domain.Store. Transactions run against a
// cloned state that replaces the live one on commit; one mutex serializes
// writers, which stands in for the row locks of the postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

type state struct {
	members map[string]*domain.Member
	order   []string
	entries []*domain.VolumeEntry
	refs    map[entryRef]struct{}
	runs    []*domain.ReconciliationRun
}

type entryRef struct {
	memberID    string
	referenceID string
}

func newState() *state {
	return &state{
		members: make(map[string]*domain.Member),
		refs:    make(map[entryRef]struct{}),
	}
}

func (s *state) clone() *state {
	c := &state{
		members: make(map[string]*domain.Member, len(s.members)),
		order:   append([]string(nil), s.order...),
		entries: make([]*domain.VolumeEntry, 0, len(s.entries)),
		refs:    make(map[entryRef]struct{}, len(s.refs)),
		runs:    make([]*domain.ReconciliationRun, 0, len(s.runs)),
	}
	for id, m := range s.members {
		c.members[id] = m.Clone()
	}
	for _, e := range s.entries {
		cp := *e
		c.entries = append(c.entries, &cp)
	}
	for k := range s.refs {
		c.refs[k] = struct{}{}
	}
	for _, r := range s.runs {
		cp := *r
		c.runs = append(c.runs, &cp)
	}
	return c
}

type Store struct {
	mu    *sync.Mutex
	state *state
	// inTx marks the view handed to an InTransaction callback; the mutex is
	// already held there.
	inTx bool
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		mu:    &sync.Mutex{},
		state: newState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Members() domain.MemberRepository {
	return &memberRepo{store: s}
}

func (s *Store) VolumeEntries() domain.VolumeEntryRepository {
	return &volumeEntryRepo{store: s}
}

func (s *Store) Runs() domain.ReconciliationRunRepository {
	return &runRepo{store: s}
}

// InTransaction runs fn on a private copy of the state and publishes it only
// when fn returns nil.
func (s *Store) InTransaction(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Store{mu: s.mu, state: s.state.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *Store) Snapshot(ctx context.Context) ([]*domain.Member, error) {
	return s.Members().ListMembers(ctx)
}
