package outcome_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationguessr/go-server/internal/outcome"
	"github.com/stationguessr/go-server/internal/round"
	"github.com/stationguessr/go-server/internal/score"
	"github.com/stationguessr/go-server/internal/store"
)

func solvedRound(t *testing.T) *round.State {
	t.Helper()
	hints, err := round.NewHints([]string{"METRO 1", "METRO 4", "METRO 7", "METRO 11"})
	require.NoError(t, err)
	s := round.New("Châtelet", hints)
	for i := 0; i < 3; i++ {
		_, _, err = s.SubmitGuess("Nation")
		require.NoError(t, err)
	}
	require.NoError(t, s.RevealHint())
	_, _, err = s.SubmitGuess("Chatelet")
	require.NoError(t, err)
	require.True(t, s.Solved())
	return s
}

// countingStore records how many outcomes were actually inserted.
type countingStore struct {
	outcome.Store
	mu       sync.Mutex
	inserted int
}

func (c *countingStore) InsertIfAbsent(ctx context.Context, o outcome.Outcome) (bool, error) {
	ok, err := c.Store.InsertIfAbsent(ctx, o)
	if ok {
		c.mu.Lock()
		c.inserted++
		c.mu.Unlock()
	}
	return ok, err
}

func TestCommitOnceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := &countingStore{Store: store.NewMemoryOutcomes()}
	b := outcome.NewBridge(st, score.DefaultConfig())
	r := solvedRound(t)

	first, res, err := b.CommitOnce(ctx, "p1", "2024-01-01", r)
	require.NoError(t, err)
	assert.Equal(t, outcome.Committed, res)
	assert.Equal(t, outcome.Outcome{
		PlayerID:       "p1",
		Date:           "2024-01-01",
		StationName:    "Châtelet",
		Attempts:       4,
		ExtraHintsUsed: 1,
		CityRevealed:   false,
		Score:          470,
		CreatedAt:      first.CreatedAt,
	}, first)

	second, res, err := b.CommitOnce(ctx, "p1", "2024-01-01", r)
	require.NoError(t, err)
	assert.Equal(t, outcome.AlreadyCommitted, res)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, st.inserted)
}

func TestCommitOnceConcurrentTabs(t *testing.T) {
	ctx := context.Background()
	st := &countingStore{Store: store.NewMemoryOutcomes()}
	b := outcome.NewBridge(st, score.DefaultConfig())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for i := 0; i < 20; i++ {
		r := solvedRound(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, res, err := b.CommitOnce(ctx, "p1", "2024-01-01", r)
			if err == nil && res == outcome.Committed {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, st.inserted)
}

func TestCommitOnceRejectsUnsolved(t *testing.T) {
	hints, err := round.NewHints([]string{"METRO 1", "RER A"})
	require.NoError(t, err)
	b := outcome.NewBridge(store.NewMemoryOutcomes(), score.DefaultConfig())

	_, _, err = b.CommitOnce(context.Background(), "p1", "2024-01-01", round.New("Nation", hints))
	assert.ErrorIs(t, err, outcome.ErrNotSolved)
}

type failingStore struct{}

func (failingStore) InsertIfAbsent(context.Context, outcome.Outcome) (bool, error) {
	return false, errors.New("disk full")
}

func (failingStore) Get(context.Context, string, string) (outcome.Outcome, error) {
	return outcome.Outcome{}, outcome.ErrNotFound
}

func TestCommitOnceStoreFailure(t *testing.T) {
	b := outcome.NewBridge(failingStore{}, score.DefaultConfig())
	_, _, err := b.CommitOnce(context.Background(), "p1", "2024-01-01", solvedRound(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCommitOnceUsesConfig(t *testing.T) {
	cfg := score.Config{Base: 100, AttemptCost: 50, LineCost: 10, CityCost: 100}
	b := outcome.NewBridge(store.NewMemoryOutcomes(), cfg)
	o, _, err := b.CommitOnce(context.Background(), "p1", "2024-01-01", solvedRound(t))
	require.NoError(t, err)
	assert.Equal(t, 0, o.Score)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "committed", outcome.Committed.String())
	assert.Equal(t, "already_committed", outcome.AlreadyCommitted.String())
}
