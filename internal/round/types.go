// internal/round/types.go
//
// Core type definitions for a daily Station Guessr round.
// Defines:
//   - Status: InProgress or Solved (terminal).
//   - Hints: the ordered transit-line tokens of the day's station.
//   - Guess: one append-only entry in the guess history.
//   - State: one player's progress through one daily round.
//   - Sentinel errors for rejected transitions and malformed assignments.

package round

import "errors"

// Status is the coarse lifecycle of a round. Solved is terminal.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSolved     Status = "solved"
)

const (
	// BaseRevealedCount is the number of hints visible from the start, free of charge.
	BaseRevealedCount = 2
	// HintRevealInterval is the number of fresh attempts required between two extra hint reveals.
	HintRevealInterval = 3
	// CityRevealMinAttempts is the attempt count from which the city may be revealed.
	CityRevealMinAttempts = 10
)

var (
	// ErrRoundClosed is returned by any mutation attempted after the round is solved.
	ErrRoundClosed = errors.New("round closed")
	// ErrRevealNotAllowed is returned when a hint or city reveal is not permitted yet (or anymore).
	ErrRevealNotAllowed = errors.New("reveal not allowed")
	// ErrInsufficientHints flags an assignment with fewer than BaseRevealedCount hints.
	ErrInsufficientHints = errors.New("insufficient hints")
)

// Hints is the immutable, ordered list of hint tokens for one station.
// Rounds reference it; they never copy or modify it.
type Hints struct {
	tokens []string
}

// Guess is a single entry in the guess history.
type Guess struct {
	Seq     int    `json:"seq"`     // 1-based position in the history.
	Text    string `json:"text"`    // Normalized guess text.
	Correct bool   `json:"correct"` // True if the guess matched the station.
}

// State holds one player's progress through one daily round.
// Mutate only through SubmitGuess, RevealHint and RevealCity. Not safe for concurrent use.
type State struct {
	station string // display name of the target station
	target  string // normalized target used for comparisons
	hints   *Hints

	guesses      []Guess
	revealed     int // hints currently visible, >= BaseRevealedCount
	lastRevealAt int // attempts at the most recent extra reveal, 0 if none
	cityRevealed bool
	status       Status
}
