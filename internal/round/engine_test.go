package round_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationguessr/go-server/internal/round"
)

func newRound(t *testing.T, total int) *round.State {
	t.Helper()
	tokens := []string{"METRO 1", "METRO 4", "METRO 7", "METRO 11", "METRO 14", "RER A", "RER B"}
	hints, err := round.NewHints(tokens[:total])
	require.NoError(t, err)
	return round.New("Châtelet", hints)
}

func guessWrong(t *testing.T, s *round.State, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, _, err := s.SubmitGuess("Nation")
		require.NoError(t, err)
	}
}

func TestNewHints(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		wantErr bool
	}{
		{name: "nil", tokens: nil, wantErr: true},
		{name: "one hint", tokens: []string{"METRO 1"}, wantErr: true},
		{name: "two hints", tokens: []string{"METRO 1", "RER A"}},
		{name: "five hints", tokens: []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := round.NewHints(tt.tokens)
			if tt.wantErr {
				require.ErrorIs(t, err, round.ErrInsufficientHints)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.tokens), h.Total())
			assert.Equal(t, round.BaseRevealedCount, h.Base())
		})
	}
}

func TestNewHintsDoesNotAliasInput(t *testing.T) {
	tokens := []string{"METRO 1", "RER A", "RER B"}
	h, err := round.NewHints(tokens)
	require.NoError(t, err)
	tokens[0] = "changed"
	assert.Equal(t, []string{"METRO 1", "RER A"}, h.Prefix(2))
}

func TestNewRound(t *testing.T) {
	s := newRound(t, 5)
	assert.Equal(t, round.StatusInProgress, s.Status())
	assert.Equal(t, 0, s.Attempts())
	assert.Equal(t, 2, s.RevealedHintCount())
	assert.Equal(t, []string{"METRO 1", "METRO 4"}, s.RevealedHints())
	assert.Equal(t, 0, s.LastRevealAtAttempt())
	assert.False(t, s.CityRevealed())
	assert.Equal(t, 0, s.ExtraHintsUsed())
}

func TestSubmitGuess(t *testing.T) {
	s := newRound(t, 3)

	g, st, err := s.SubmitGuess("  Nation ")
	require.NoError(t, err)
	assert.Equal(t, round.Guess{Seq: 1, Text: "nation", Correct: false}, g)
	assert.Equal(t, round.StatusInProgress, st)

	g, st, err = s.SubmitGuess("CHATELET")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Seq)
	assert.True(t, g.Correct)
	assert.Equal(t, round.StatusSolved, st)
	assert.True(t, s.Solved())
	assert.Equal(t, 2, s.Attempts())
}

func TestSubmitGuessEmptyNeverMatches(t *testing.T) {
	hints, err := round.NewHints([]string{"a", "b"})
	require.NoError(t, err)
	s := round.New("   ", hints)
	g, st, err := s.SubmitGuess("")
	require.NoError(t, err)
	assert.False(t, g.Correct)
	assert.Equal(t, round.StatusInProgress, st)
}

func TestTerminalLock(t *testing.T) {
	s := newRound(t, 5)
	guessWrong(t, s, 10)
	_, _, err := s.SubmitGuess("chatelet")
	require.NoError(t, err)
	require.True(t, s.Solved())

	before := struct {
		attempts, revealed, last int
		city                     bool
	}{s.Attempts(), s.RevealedHintCount(), s.LastRevealAtAttempt(), s.CityRevealed()}

	_, st, err := s.SubmitGuess("Nation")
	assert.ErrorIs(t, err, round.ErrRoundClosed)
	assert.Equal(t, round.StatusSolved, st)

	err = s.RevealHint()
	assert.ErrorIs(t, err, round.ErrRevealNotAllowed)
	assert.ErrorIs(t, err, round.ErrRoundClosed)

	err = s.RevealCity()
	assert.ErrorIs(t, err, round.ErrRevealNotAllowed)
	assert.ErrorIs(t, err, round.ErrRoundClosed)

	assert.Equal(t, before.attempts, s.Attempts())
	assert.Equal(t, before.revealed, s.RevealedHintCount())
	assert.Equal(t, before.last, s.LastRevealAtAttempt())
	assert.Equal(t, before.city, s.CityRevealed())
	assert.False(t, s.CanRevealHint())
	assert.False(t, s.CanRevealCity())
}

func TestGatingLadder(t *testing.T) {
	s := newRound(t, 5)

	for attempt := 0; attempt <= 2; attempt++ {
		require.Equal(t, attempt, s.Attempts())
		require.ErrorIs(t, s.RevealHint(), round.ErrRevealNotAllowed, "attempt %d", attempt)
		guessWrong(t, s, 1)
	}

	require.Equal(t, 3, s.Attempts())
	require.NoError(t, s.RevealHint())
	assert.Equal(t, 3, s.RevealedHintCount())
	assert.Equal(t, 3, s.LastRevealAtAttempt())

	for attempt := 3; attempt <= 5; attempt++ {
		require.ErrorIs(t, s.RevealHint(), round.ErrRevealNotAllowed, "attempt %d", attempt)
		guessWrong(t, s, 1)
	}

	require.Equal(t, 6, s.Attempts())
	require.NoError(t, s.RevealHint())
	assert.Equal(t, 4, s.RevealedHintCount())
	assert.Equal(t, 6, s.LastRevealAtAttempt())
	assert.Equal(t, 2, s.ExtraHintsUsed())
}

func TestGatingLadderReanchorsOnLateReveal(t *testing.T) {
	s := newRound(t, 5)
	guessWrong(t, s, 5)
	require.NoError(t, s.RevealHint())
	assert.Equal(t, 5, s.LastRevealAtAttempt())

	guessWrong(t, s, 1) // 6
	assert.ErrorIs(t, s.RevealHint(), round.ErrRevealNotAllowed)
	guessWrong(t, s, 1) // 7
	assert.ErrorIs(t, s.RevealHint(), round.ErrRevealNotAllowed)
	guessWrong(t, s, 1) // 8
	require.NoError(t, s.RevealHint())
	assert.Equal(t, 4, s.RevealedHintCount())
}

func TestRevealHintStopsAtTotal(t *testing.T) {
	s := newRound(t, 3)
	guessWrong(t, s, 3)
	require.NoError(t, s.RevealHint())
	guessWrong(t, s, 10)
	assert.False(t, s.CanRevealHint())
	assert.ErrorIs(t, s.RevealHint(), round.ErrRevealNotAllowed)
	assert.Equal(t, 3, s.RevealedHintCount())
}

func TestRevealHintWithOnlyBaseHints(t *testing.T) {
	s := newRound(t, 2)
	guessWrong(t, s, 6)
	assert.ErrorIs(t, s.RevealHint(), round.ErrRevealNotAllowed)
	assert.Equal(t, 2, s.RevealedHintCount())
}

func TestRevealCity(t *testing.T) {
	s := newRound(t, 3)
	guessWrong(t, s, 9)
	assert.ErrorIs(t, s.RevealCity(), round.ErrRevealNotAllowed)
	assert.False(t, s.CityRevealed())

	guessWrong(t, s, 1)
	require.NoError(t, s.RevealCity())
	assert.True(t, s.CityRevealed())

	err := s.RevealCity()
	assert.ErrorIs(t, err, round.ErrRevealNotAllowed)
	assert.False(t, errors.Is(err, round.ErrRoundClosed))
	assert.True(t, s.CityRevealed())
}

func TestMonotonicity(t *testing.T) {
	s := newRound(t, 7)
	ops := []func(){
		func() { _, _, _ = s.SubmitGuess("Nation") },
		func() { _ = s.RevealHint() },
		func() { _ = s.RevealCity() },
	}

	prevAttempts, prevRevealed, prevCity := 0, s.RevealedHintCount(), false
	for i := 0; i < 60; i++ {
		ops[(i*7+i/3)%len(ops)]()
		require.GreaterOrEqual(t, s.Attempts(), prevAttempts)
		require.GreaterOrEqual(t, s.RevealedHintCount(), prevRevealed)
		require.True(t, s.CityRevealed() || !prevCity)
		require.LessOrEqual(t, s.RevealedHintCount(), s.TotalHints())
		require.GreaterOrEqual(t, s.RevealedHintCount(), round.BaseRevealedCount)
		prevAttempts, prevRevealed, prevCity = s.Attempts(), s.RevealedHintCount(), s.CityRevealed()
	}
}

func TestGuessesReturnsCopy(t *testing.T) {
	s := newRound(t, 3)
	guessWrong(t, s, 2)
	gs := s.Guesses()
	gs[0].Correct = true
	assert.False(t, s.Guesses()[0].Correct)
	assert.False(t, s.FirstTryCorrect())
}

func TestFirstTryCorrect(t *testing.T) {
	s := newRound(t, 3)
	assert.False(t, s.FirstTryCorrect())
	_, _, err := s.SubmitGuess("châtelet")
	require.NoError(t, err)
	assert.True(t, s.FirstTryCorrect())
}
