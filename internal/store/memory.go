// internal/store/memory.go
//
// In-memory stores for live rounds and recorded outcomes.
// Used for active play (rounds) and for development/testing (outcomes).
//
// Characteristics:
//   - Keyed by (player, date).
//   - Concurrency-safe via a mutex; every read or mutation of a round runs under it.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/stationguessr/go-server/internal/outcome"
	"github.com/stationguessr/go-server/internal/round"
)

// ErrNotFound is returned when no round exists for a key and none may be created.
var ErrNotFound = errors.New("not found")

// ErrFull is returned by Do when creating a round would exceed the store's limit.
var ErrFull = errors.New("round store full")

// Key identifies one player's round for one calendar date.
type Key struct {
	PlayerID string
	Date     string // YYYY-MM-DD
}

// Rounds holds live rounds. The round state machine itself is not thread-safe, so
// all access goes through Do, which serializes callers.
type Rounds interface {
	// Do runs fn against the round stored under key. When the round is missing and
	// create is non-nil, the created round is stored first; with a nil create Do
	// returns ErrNotFound.
	Do(ctx context.Context, key Key, create func() (*round.State, error), fn func(*round.State) error) error

	// Prune drops every round whose date differs from keepDate and reports how many were removed.
	Prune(ctx context.Context, keepDate string) int
}

// memoryRounds is a map-based Rounds implementation.
type memoryRounds struct {
	mu     sync.Mutex // guards rounds and the states they point to
	rounds map[Key]*round.State
	limit  int // 0: unlimited
}

// NewMemoryRounds constructs an empty in-memory Rounds store.
// A positive limit caps the number of live rounds; creations beyond it fail with ErrFull.
func NewMemoryRounds(limit int) Rounds {
	return &memoryRounds{rounds: make(map[Key]*round.State), limit: max(0, limit)}
}

func (m *memoryRounds) Do(ctx context.Context, key Key, create func() (*round.State, error), fn func(*round.State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rounds[key]
	if !ok {
		if create == nil {
			return ErrNotFound
		}
		if m.limit > 0 && len(m.rounds) >= m.limit {
			return ErrFull
		}
		var err error
		if s, err = create(); err != nil {
			return err
		}
		m.rounds[key] = s
	}
	return fn(s)
}

func (m *memoryRounds) Prune(ctx context.Context, keepDate string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.rounds {
		if k.Date != keepDate {
			delete(m.rounds, k)
			n++
		}
	}
	return n
}

// memoryOutcomes is an in-memory outcome.Store.
type memoryOutcomes struct {
	mu       sync.RWMutex
	outcomes map[Key]outcome.Outcome
}

// NewMemoryOutcomes constructs an empty in-memory outcome.Store.
func NewMemoryOutcomes() outcome.Store {
	return &memoryOutcomes{outcomes: make(map[Key]outcome.Outcome)}
}

// InsertIfAbsent checks and inserts under a single write lock.
func (m *memoryOutcomes) InsertIfAbsent(ctx context.Context, o outcome.Outcome) (bool, error) {
	k := Key{PlayerID: o.PlayerID, Date: o.Date}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.outcomes[k]; ok {
		return false, nil
	}
	m.outcomes[k] = o
	return true, nil
}

func (m *memoryOutcomes) Get(ctx context.Context, playerID, date string) (outcome.Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.outcomes[Key{PlayerID: playerID, Date: date}]; ok {
		return o, nil
	}
	return outcome.Outcome{}, outcome.ErrNotFound
}
