// internal/outcome/outcome.go
//
// Converts a solved round into exactly one recorded outcome per (player, date).
// Responsibilities:
//   - Define the persisted Outcome shape and the Store contract.
//   - Recompute the score from the authoritative round, never from client input.
//   - Report duplicates (retries, other tabs) as AlreadyCommitted, not as errors.
//
// The at-most-once guarantee lives in Store.InsertIfAbsent, which must be a single
// atomic conditional write keyed by (PlayerID, Date).
package outcome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stationguessr/go-server/internal/round"
	"github.com/stationguessr/go-server/internal/score"
)

// ErrNotSolved is returned by CommitOnce for rounds that are still in progress.
var ErrNotSolved = errors.New("round not solved")

// ErrNotFound is returned by Store.Get when no outcome exists for the key.
var ErrNotFound = errors.New("outcome not found")

// Outcome is the persisted projection of a solved round.
type Outcome struct {
	PlayerID       string    `db:"player_id" json:"playerId"`
	Date           string    `db:"date" json:"date"`
	StationName    string    `db:"station_name" json:"stationName"`
	Attempts       int       `db:"attempts" json:"attempts"`
	ExtraHintsUsed int       `db:"extra_hints" json:"extraHintsUsed"`
	CityRevealed   bool      `db:"city_revealed" json:"cityRevealed"`
	Score          int       `db:"score" json:"score"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Store persists outcomes.
// Implementations may be backed by memory (internal/store) or SQL (internal/daily).
type Store interface {
	// InsertIfAbsent stores o unless an outcome for (o.PlayerID, o.Date) exists.
	// Reports whether o was inserted. Must be atomic at the storage boundary.
	InsertIfAbsent(ctx context.Context, o Outcome) (bool, error)

	// Get loads the outcome for (playerID, date) or returns ErrNotFound.
	Get(ctx context.Context, playerID, date string) (Outcome, error)
}

// Result tells a caller whether CommitOnce wrote a new outcome.
type Result int

const (
	Committed Result = iota
	AlreadyCommitted
)

func (r Result) String() string {
	if r == AlreadyCommitted {
		return "already_committed"
	}
	return "committed"
}

// Bridge commits solved rounds to a Store.
type Bridge struct {
	store Store
	cfg   score.Config
	now   func() time.Time
}

// NewBridge constructs a Bridge scoring with cfg.
func NewBridge(st Store, cfg score.Config) *Bridge {
	return &Bridge{store: st, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Project builds the outcome a solved round would record. It does not touch the store.
func (b *Bridge) Project(playerID, date string, r *round.State) Outcome {
	return Outcome{
		PlayerID:       playerID,
		Date:           date,
		StationName:    r.StationName(),
		Attempts:       r.Attempts(),
		ExtraHintsUsed: r.ExtraHintsUsed(),
		CityRevealed:   r.CityRevealed(),
		Score:          score.Compute(r, b.cfg).Total,
		CreatedAt:      b.now(),
	}
}

// CommitOnce records the outcome of a solved round at most once per (playerID, date).
//
// On a duplicate it returns the outcome already stored together with AlreadyCommitted;
// callers treat that as success. Safe to retry arbitrarily.
func (b *Bridge) CommitOnce(ctx context.Context, playerID, date string, r *round.State) (Outcome, Result, error) {
	if !r.Solved() {
		return Outcome{}, Committed, ErrNotSolved
	}
	o := b.Project(playerID, date, r)
	inserted, err := b.store.InsertIfAbsent(ctx, o)
	if err != nil {
		return Outcome{}, Committed, fmt.Errorf("insert outcome: %w", err)
	}
	if inserted {
		return o, Committed, nil
	}
	existing, err := b.store.Get(ctx, playerID, date)
	if err != nil {
		return Outcome{}, AlreadyCommitted, fmt.Errorf("load existing outcome: %w", err)
	}
	return existing, AlreadyCommitted, nil
}
