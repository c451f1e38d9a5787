// internal/httpserver/routes_game.go
//
// HTTP routes for the daily station round.
// Exposes under /game:
//   - GET  /game/today                → current round view (stored from the first action)
//   - POST /game/guess                → submit a station name
//   - POST /game/reveal-line          → reveal the next transit line
//   - POST /game/reveal-city          → reveal the station's city
//   - GET  /game/stations             → station name autocompletion
//   - GET  /game/available-dates      → dates with an assignment up to today
//   - GET  /game/leaderboard          → top outcomes for a date (default today)
//   - GET  /game/leaderboard/all-time → summed scores per player
//   - GET  /game/history              → the caller's outcomes (auth)
//   - GET  /game/{date}               → full assignment of a past date
//
// Rounds live in memory keyed by (player, date) and are mutated only inside
// Rounds.Do. Scores are recomputed here; the client never submits one.
// Authenticated players get exactly one recorded outcome per date.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/stationguessr/go-server/internal/daily"
	"github.com/stationguessr/go-server/internal/outcome"
	"github.com/stationguessr/go-server/internal/round"
	"github.com/stationguessr/go-server/internal/score"
	"github.com/stationguessr/go-server/internal/store"
)

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Get("/today", s.handleToday)
		r.Post("/guess", s.handleGuess)
		r.Post("/reveal-line", s.handleRevealLine)
		r.Post("/reveal-city", s.handleRevealCity)
		r.Get("/stations", s.handleStations)
		r.Get("/available-dates", s.handleAvailableDates)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/leaderboard/all-time", s.handleAllTime)
		r.With(s.requireAuth()).Get("/history", s.handleHistory)
		r.Get("/{date}", s.handlePastDate)
	})
}

// roundView is the JSON shape of a round as seen by its player.
type roundView struct {
	Date           string           `json:"date"`
	Status         round.Status     `json:"status"`
	Solved         bool             `json:"solved"`
	Attempts       int              `json:"attempts"`
	Guesses        []round.Guess    `json:"guesses"`
	RevealedLines  []string         `json:"revealedLines"`
	TotalLines     int              `json:"totalLines"`
	ExtraLinesUsed int              `json:"extraLinesUsed"`
	CityRevealed   bool             `json:"cityRevealed"`
	City           string           `json:"city,omitempty"`     // only once revealed or solved
	CityZone       *int             `json:"cityZone,omitempty"` // only once revealed or solved
	CanRevealLine  bool             `json:"canRevealLine"`
	CanRevealCity  bool             `json:"canRevealCity"`
	Score          score.Breakdown  `json:"score"`
	ScoreApprox    bool             `json:"scoreApproximate,omitempty"` // penalties recomputed under changed scoring
	StationName    string           `json:"stationName,omitempty"`      // only once solved
	Played         bool             `json:"played"`
	Outcome        *outcome.Outcome `json:"outcome,omitempty"`
	Commit         string           `json:"commit,omitempty"` // committed | already_committed
	LastGuess      *round.Guess     `json:"lastGuess,omitempty"`
}

func (s *Server) viewOf(a daily.Assignment, st *round.State) roundView {
	v := roundView{
		Date:           a.Date,
		Status:         st.Status(),
		Solved:         st.Solved(),
		Attempts:       st.Attempts(),
		Guesses:        st.Guesses(),
		RevealedLines:  st.RevealedHints(),
		TotalLines:     st.TotalHints(),
		ExtraLinesUsed: st.ExtraHintsUsed(),
		CityRevealed:   st.CityRevealed(),
		CanRevealLine:  st.CanRevealHint(),
		CanRevealCity:  st.CanRevealCity(),
		Score:          score.Compute(st, s.cfg.Score),
	}
	if st.CityRevealed() || st.Solved() {
		v.City, v.CityZone = a.City, a.CityZone
	}
	if st.Solved() {
		v.StationName = st.StationName()
	}
	return v
}

// playedView rebuilds a finished round from its recorded outcome, for players whose
// live round is gone (server restart or day rollover).
//
// Only the total is stored. The penalty lines are recomputed with the current scoring
// config; when that no longer reproduces the stored total, the view keeps the stored
// total and sets ScoreApprox.
func (s *Server) playedView(a daily.Assignment, o outcome.Outcome) roundView {
	revealed := min(len(a.Hints), round.BaseRevealedCount+o.ExtraHintsUsed)
	b := score.Compute(outcomeRound{o}, s.cfg.Score)
	approx := b.Total != o.Score
	b.Total = o.Score
	return roundView{
		Date:           a.Date,
		Status:         round.StatusSolved,
		Solved:         true,
		Attempts:       o.Attempts,
		Guesses:        []round.Guess{},
		RevealedLines:  a.Hints[:revealed],
		TotalLines:     len(a.Hints),
		ExtraLinesUsed: o.ExtraHintsUsed,
		CityRevealed:   o.CityRevealed,
		City:           a.City,
		CityZone:       a.CityZone,
		Score:          b,
		ScoreApprox:    approx,
		StationName:    o.StationName,
		Played:         true,
		Outcome:        &o,
	}
}

// outcomeRound adapts a recorded outcome to score.Round.
type outcomeRound struct{ o outcome.Outcome }

func (r outcomeRound) Attempts() int         { return r.o.Attempts }
func (r outcomeRound) ExtraHintsUsed() int   { return r.o.ExtraHintsUsed }
func (r outcomeRound) CityRevealed() bool    { return r.o.CityRevealed }
func (r outcomeRound) FirstTryCorrect() bool { return r.o.Attempts == 1 }

// rollover drops yesterday's rounds the first time a new date is served.
func (s *Server) rollover(ctx context.Context, today string) {
	s.dayMu.Lock()
	defer s.dayMu.Unlock()
	if s.liveDay == today {
		return
	}
	if s.liveDay != "" {
		n := s.rounds.Prune(ctx, today)
		log.Info().Str("from", s.liveDay).Str("to", today).Int("pruned", n).Msg("day rollover")
	}
	s.liveDay = today
}

// play loads (or creates) the caller's round for today, applies act under the round
// lock, commits the outcome on a solved round for authenticated players and writes
// the resulting view. A nil act only reads.
func (s *Server) play(w http.ResponseWriter, r *http.Request, act func(st *round.State, v *roundView) error) {
	ctx := r.Context()
	pid, authed := s.playerID(w, r)

	a, err := s.provider.Today(ctx)
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	s.rollover(ctx, a.Date)
	key := store.Key{PlayerID: pid, Date: a.Date}

	var recorded *outcome.Outcome
	if authed {
		o, err := s.daily.Get(ctx, pid, a.Date)
		switch {
		case err == nil:
			recorded = &o
		case !errors.Is(err, outcome.ErrNotFound):
			s.writeRoundError(w, r, err)
			return
		}
	}

	// Reads never create a round, so cookieless visitors leave nothing behind.
	var create func() (*round.State, error)
	if act != nil && recorded == nil {
		create = a.NewRound
	}

	var (
		view   roundView
		state  *round.State
		solved bool
	)
	err = s.rounds.Do(ctx, key, create, func(st *round.State) error {
		state = st
		var actErr error
		if act != nil {
			actErr = act(st, &view)
		}
		last := view.LastGuess
		view = s.viewOf(a, st)
		view.LastGuess = last
		solved = st.Solved()
		return actErr
	})
	if errors.Is(err, store.ErrNotFound) {
		switch {
		case recorded == nil:
			// Not started yet: show a fresh round without storing it.
			st, err := a.NewRound()
			if err != nil {
				s.writeRoundError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, s.viewOf(a, st))
		case act != nil:
			writeError(w, http.StatusConflict, "round_closed")
		default:
			writeJSON(w, http.StatusOK, s.playedView(a, *recorded))
		}
		return
	}
	if errors.Is(err, store.ErrFull) {
		hlog.FromRequest(r).Warn().Msg("live round limit reached")
		writeError(w, http.StatusServiceUnavailable, "server_busy")
		return
	}
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}

	if authed && solved {
		if recorded != nil {
			view.Played, view.Outcome = true, recorded
		} else {
			// solved was observed under the round lock and Solved is terminal, so state
			// no longer changes and can be read here.
			o, res, err := s.bridge.CommitOnce(ctx, pid, a.Date, state)
			if err != nil {
				// The next GET /game/today retries the commit.
				hlog.FromRequest(r).Error().Err(err).Str("date", a.Date).Msg("commit outcome")
			} else {
				view.Played, view.Outcome, view.Commit = true, &o, res.String()
				hlog.FromRequest(r).Info().Str("date", a.Date).Int("score", o.Score).Str("result", res.String()).Msg("outcome")
			}
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// writeRoundError maps round and storage errors to JSON error responses.
// ErrRoundClosed is checked first: a reveal on a solved round matches both sentinels.
func (s *Server) writeRoundError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, round.ErrRoundClosed):
		writeError(w, http.StatusConflict, "round_closed")
	case errors.Is(err, round.ErrRevealNotAllowed):
		writeError(w, http.StatusConflict, "reveal_not_allowed")
	case errors.Is(err, round.ErrInsufficientHints):
		hlog.FromRequest(r).Error().Err(err).Msg("bad assignment")
		writeError(w, http.StatusInternalServerError, "insufficient_hints")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("round")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

// -----------------------------------------------------------------------------
// round actions

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	s.play(w, r, nil)
}

// guessReq is the request payload for /game/guess.
type guessReq struct {
	Guess string `json:"guess"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var body guessReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if round.Normalize(body.Guess) == "" {
		writeError(w, http.StatusBadRequest, "empty_guess")
		return
	}
	s.play(w, r, func(st *round.State, v *roundView) error {
		g, _, err := st.SubmitGuess(body.Guess)
		if err != nil {
			return err
		}
		v.LastGuess = &g
		return nil
	})
}

func (s *Server) handleRevealLine(w http.ResponseWriter, r *http.Request) {
	s.play(w, r, func(st *round.State, _ *roundView) error { return st.RevealHint() })
}

func (s *Server) handleRevealCity(w http.ResponseWriter, r *http.Request) {
	s.play(w, r, func(st *round.State, _ *roundView) error { return st.RevealCity() })
}

// -----------------------------------------------------------------------------
// read-only endpoints

// queryInt parses a positive integer query parameter, clamped to upper.
func queryInt(r *http.Request, name string, def, upper int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, upper)
}

// handleStations returns station names matching ?q= for autocompletion.
func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10, 50)
	writeJSON(w, http.StatusOK, map[string]any{"stations": s.catalog.Search(r.URL.Query().Get("q"), limit)})
}

// handleAvailableDates lists dates with an assignment up to today, newest first.
func (s *Server) handleAvailableDates(w http.ResponseWriter, r *http.Request) {
	a, err := s.provider.Today(r.Context())
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	dates, err := s.daily.AvailableDates(r.Context(), a.Date, queryInt(r, "limit", 60, 365))
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// lbRes is returned by /game/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.provider.TodayKey()
	} else if _, err := daily.ParseDateKey(date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	rows, err := s.daily.Leaderboard(r.Context(), date, queryInt(r, "limit", 20, 100))
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}

func (s *Server) handleAllTime(w http.ResponseWriter, r *http.Request) {
	rows, err := s.daily.AllTime(r.Context(), queryInt(r, "limit", 50, 200))
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"top": rows})
}

// handleHistory returns the caller's recorded outcomes, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	rows, err := s.daily.History(r.Context(), u.ID, queryInt(r, "limit", 60, 365))
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": rows})
}

// handlePastDate reveals the full assignment of a date strictly before today.
func (s *Server) handlePastDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := daily.ParseDateKey(date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	// Date keys are zero-padded, so string order is calendar order.
	if date >= s.provider.TodayKey() {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	a, err := s.daily.GetAssignment(r.Context(), date)
	if errors.Is(err, daily.ErrNoAssignment) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
