// internal/score/score.go
//
// Deterministic scoring for a daily round.
//
// Rules (defaults):
//   - Base: 500 points.
//   - -5 points per attempt.
//   - -10 points per hint revealed beyond the free base hints.
//   - -100 points if the city was revealed.
//   - The total is clamped at 0.
//
// Compute is pure: the same round snapshot and config always yield the same breakdown.
package score

// Config holds the scoring constants. Every field may be overridden by the caller.
type Config struct {
	Base        int
	AttemptCost int
	LineCost    int
	CityCost    int

	// FirstTryFree waives the attempts penalty when the very first guess was correct.
	// Off by default: the attempts penalty is charged unconditionally.
	FirstTryFree bool
}

// DefaultConfig returns the standard scoring constants.
func DefaultConfig() Config {
	return Config{Base: 500, AttemptCost: 5, LineCost: 10, CityCost: 100}
}

// Breakdown is the derived, never-stored score of a round.
type Breakdown struct {
	Base            int `json:"base"`
	AttemptsPenalty int `json:"attemptsPenalty"`
	LinesPenalty    int `json:"linesPenalty"`
	CityPenalty     int `json:"cityPenalty"`
	Total           int `json:"total"`
}

// Round is the read-only view of a round that scoring depends on.
// *round.State satisfies it.
type Round interface {
	Attempts() int
	ExtraHintsUsed() int
	CityRevealed() bool
	FirstTryCorrect() bool
}

// Compute derives the score breakdown for r. It never fails; a round with
// no attempts scores the full base.
func Compute(r Round, cfg Config) Breakdown {
	attemptsPenalty := r.Attempts() * cfg.AttemptCost
	if cfg.FirstTryFree && r.FirstTryCorrect() {
		attemptsPenalty = 0
	}
	linesPenalty := max(0, r.ExtraHintsUsed()) * cfg.LineCost
	cityPenalty := 0
	if r.CityRevealed() {
		cityPenalty = cfg.CityCost
	}

	return Breakdown{
		Base:            cfg.Base,
		AttemptsPenalty: attemptsPenalty,
		LinesPenalty:    linesPenalty,
		CityPenalty:     cityPenalty,
		Total:           max(0, cfg.Base-attemptsPenalty-linesPenalty-cityPenalty),
	}
}
