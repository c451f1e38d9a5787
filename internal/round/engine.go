// internal/round/engine.go
//
// Transition rules for a single daily round.
// Responsibilities:
//   - Build hint lists and new rounds from a daily assignment.
//   - Apply guesses (normalized comparison against the station name).
//   - Gate extra hint reveals on a ladder re-anchored at the previous reveal.
//   - Gate the city reveal on a minimum attempt count.
//   - Track the one-way transition InProgress → Solved.
//
// Notes:
//   - revealed and cityRevealed only ever grow; guesses are append-only.
//   - No I/O, no locking. Callers serialize access per round.
package round

import "fmt"

// NewHints validates and wraps an ordered list of hint tokens.
// Returns ErrInsufficientHints when fewer than BaseRevealedCount tokens are provided.
func NewHints(tokens []string) (*Hints, error) {
	if len(tokens) < BaseRevealedCount {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrInsufficientHints, len(tokens), BaseRevealedCount)
	}
	cp := make([]string, len(tokens))
	copy(cp, tokens)
	return &Hints{tokens: cp}, nil
}

// Total reports the number of hints available for the station.
func (h *Hints) Total() int { return len(h.tokens) }

// Base reports the number of hints visible without penalty.
func (h *Hints) Base() int { return min(BaseRevealedCount, len(h.tokens)) }

// Prefix returns a copy of the first n hints.
func (h *Hints) Prefix(n int) []string {
	n = max(0, min(n, len(h.tokens)))
	out := make([]string, n)
	copy(out, h.tokens[:n])
	return out
}

// New starts a round for the given station with its base hints revealed.
func New(stationName string, hints *Hints) *State {
	return &State{
		station:  stationName,
		target:   Normalize(stationName),
		hints:    hints,
		guesses:  []Guess{},
		revealed: hints.Base(),
		status:   StatusInProgress,
	}
}

// SubmitGuess appends a guess and, when it matches the station, closes the round.
// Returns ErrRoundClosed once the round is solved; the state is left untouched.
func (s *State) SubmitGuess(text string) (Guess, Status, error) {
	if s.status == StatusSolved {
		return Guess{}, s.status, ErrRoundClosed
	}
	normalized := Normalize(text)
	g := Guess{
		Seq:     len(s.guesses) + 1,
		Text:    normalized,
		Correct: normalized != "" && normalized == s.target,
	}
	s.guesses = append(s.guesses, g)
	if g.Correct {
		s.status = StatusSolved
	}
	return g, s.status, nil
}

// RevealHint reveals the next extra hint when the gating ladder allows it.
//
// The first extra hint needs HintRevealInterval attempts in total; each later one needs
// HintRevealInterval attempts since the previous reveal.
func (s *State) RevealHint() error {
	if s.status == StatusSolved {
		return fmt.Errorf("%w: %w", ErrRevealNotAllowed, ErrRoundClosed)
	}
	if !s.CanRevealHint() {
		return ErrRevealNotAllowed
	}
	s.revealed = min(s.revealed+1, s.hints.Total())
	s.lastRevealAt = s.Attempts()
	return nil
}

// RevealCity reveals the station's city once CityRevealMinAttempts guesses were made.
func (s *State) RevealCity() error {
	if s.status == StatusSolved {
		return fmt.Errorf("%w: %w", ErrRevealNotAllowed, ErrRoundClosed)
	}
	if !s.CanRevealCity() {
		return ErrRevealNotAllowed
	}
	s.cityRevealed = true
	return nil
}

// CanRevealHint reports whether RevealHint would currently succeed.
func (s *State) CanRevealHint() bool {
	if s.status == StatusSolved || s.revealed >= s.hints.Total() {
		return false
	}
	if s.revealed <= s.hints.Base() {
		return s.Attempts() >= HintRevealInterval
	}
	return s.Attempts()-s.lastRevealAt >= HintRevealInterval
}

// CanRevealCity reports whether RevealCity would currently succeed.
func (s *State) CanRevealCity() bool {
	return s.status == StatusInProgress && !s.cityRevealed && s.Attempts() >= CityRevealMinAttempts
}

// ---------------------------- read-only views ------------------------------

func (s *State) StationName() string { return s.station }
func (s *State) Status() Status      { return s.status }
func (s *State) Solved() bool        { return s.status == StatusSolved }
func (s *State) Attempts() int       { return len(s.guesses) }
func (s *State) CityRevealed() bool  { return s.cityRevealed }
func (s *State) TotalHints() int     { return s.hints.Total() }

// RevealedHintCount reports how many hints are visible, base hints included.
func (s *State) RevealedHintCount() int { return s.revealed }

// LastRevealAtAttempt is the attempt count at the last extra reveal, 0 if none.
func (s *State) LastRevealAtAttempt() int { return s.lastRevealAt }

// RevealedHints returns the visible hints in order.
func (s *State) RevealedHints() []string { return s.hints.Prefix(s.revealed) }

// ExtraHintsUsed counts hints revealed beyond the free base hints.
func (s *State) ExtraHintsUsed() int { return max(0, s.revealed-s.hints.Base()) }

// FirstTryCorrect reports whether the very first guess was the right one.
func (s *State) FirstTryCorrect() bool { return len(s.guesses) > 0 && s.guesses[0].Correct }

// Guesses returns a copy of the guess history, oldest first.
func (s *State) Guesses() []Guess {
	out := make([]Guess, len(s.guesses))
	copy(out, s.guesses)
	return out
}
