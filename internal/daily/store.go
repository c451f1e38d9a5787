package daily

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stationguessr/go-server/internal/database"
	"github.com/stationguessr/go-server/internal/outcome"
)

// ErrNoAssignment is returned when no assignment is stored for a date.
var ErrNoAssignment = errors.New("no assignment for date")

// Store persists daily assignments and recorded outcomes.
// It implements outcome.Store.
type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

var _ outcome.Store = (*Store)(nil)

type assignmentRow struct {
	Date        string `db:"date"`
	StationName string `db:"station_name"`
	City        string `db:"city"`
	CityZone    *int   `db:"city_zone"`
	HintsJSON   string `db:"hints_json"`
}

// GetAssignment loads the assignment for date or returns ErrNoAssignment.
func (s *Store) GetAssignment(ctx context.Context, date string) (Assignment, error) {
	var row assignmentRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT date, station_name, city, city_zone, hints_json FROM daily_assignments WHERE date=?`), date)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, ErrNoAssignment
	}
	if err != nil {
		return Assignment{}, err
	}
	var hints []string
	if err := json.Unmarshal([]byte(row.HintsJSON), &hints); err != nil {
		return Assignment{}, fmt.Errorf("decode hints for %s: %w", date, err)
	}
	return Assignment{
		Date:        row.Date,
		StationName: row.StationName,
		Hints:       hints,
		City:        row.City,
		CityZone:    row.CityZone,
	}, nil
}

// PutAssignment stores a unless an assignment for a.Date exists. Reports whether it was inserted.
func (s *Store) PutAssignment(ctx context.Context, a Assignment) (bool, error) {
	hints, err := json.Marshal(a.Hints)
	if err != nil {
		return false, err
	}
	q := database.InsertIgnoreQuery(s.db, "daily_assignments",
		"date", "station_name", "city", "city_zone", "hints_json", "created_at")
	res, err := s.db.ExecContext(ctx, q, a.Date, a.StationName, a.City, a.CityZone, string(hints), time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LastAssignmentDate returns the latest scheduled date, or "" when none is stored.
func (s *Store) LastAssignmentDate(ctx context.Context) (string, error) {
	var last sql.NullString
	if err := s.db.GetContext(ctx, &last, `SELECT MAX(date) FROM daily_assignments`); err != nil {
		return "", err
	}
	return last.String, nil
}

// AvailableDates lists dates up to and including upTo that have an assignment, newest first.
func (s *Store) AvailableDates(ctx context.Context, upTo string, limit int) ([]string, error) {
	out := []string{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT date FROM daily_assignments WHERE date <= ? ORDER BY date DESC LIMIT ?`), upTo, limit)
	return out, err
}

// ------------------------------- outcomes ----------------------------------

// InsertIfAbsent relies on the (player_id, date) primary key; a conflicting row is skipped
// by the database in the same statement.
func (s *Store) InsertIfAbsent(ctx context.Context, o outcome.Outcome) (bool, error) {
	q := database.InsertIgnoreQuery(s.db, "outcomes",
		"player_id", "date", "station_name", "attempts", "extra_hints", "city_revealed", "score", "created_at")
	res, err := s.db.ExecContext(ctx, q,
		o.PlayerID, o.Date, o.StationName, o.Attempts, o.ExtraHintsUsed, o.CityRevealed, o.Score, o.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const outcomeColumns = `player_id, date, station_name, attempts, extra_hints, city_revealed, score, created_at`

func (s *Store) Get(ctx context.Context, playerID, date string) (outcome.Outcome, error) {
	var o outcome.Outcome
	err := s.db.GetContext(ctx, &o, s.db.Rebind(
		`SELECT `+outcomeColumns+` FROM outcomes WHERE player_id=? AND date=?`), playerID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return outcome.Outcome{}, outcome.ErrNotFound
	}
	return o, err
}

// History returns a player's outcomes, newest date first.
func (s *Store) History(ctx context.Context, playerID string, limit int) ([]outcome.Outcome, error) {
	out := []outcome.Outcome{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT `+outcomeColumns+` FROM outcomes WHERE player_id=? ORDER BY date DESC LIMIT ?`), playerID, limit)
	return out, err
}

// LBRow is one leaderboard entry for a single date.
type LBRow struct {
	PlayerID string `db:"player_id" json:"playerId"`
	Username string `db:"username" json:"username"`
	Score    int    `db:"score" json:"score"`
	Attempts int    `db:"attempts" json:"attempts"`
}

// Leaderboard fetches the top players for a date.
//
// - Ordered by score DESC, then attempts ASC, then created_at ASC.
// - Default limit is 20 if not specified.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	out := []LBRow{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT o.player_id, COALESCE(u.username, '') AS username, o.score, o.attempts
		FROM outcomes o
		LEFT JOIN users u ON u.id = o.player_id
		WHERE o.date=?
		ORDER BY o.score DESC, o.attempts ASC, o.created_at ASC
		LIMIT ?`), date, limit)
	return out, err
}

// TotalRow is one all-time leaderboard entry.
type TotalRow struct {
	PlayerID string `db:"player_id" json:"playerId"`
	Username string `db:"username" json:"username"`
	Total    int    `db:"total" json:"total"`
	Games    int    `db:"games" json:"games"`
}

// AllTime sums every recorded score per player, best first.
func (s *Store) AllTime(ctx context.Context, limit int) ([]TotalRow, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []TotalRow{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT o.player_id, COALESCE(MAX(u.username), '') AS username,
		       SUM(o.score) AS total, COUNT(*) AS games
		FROM outcomes o
		LEFT JOIN users u ON u.id = o.player_id
		GROUP BY o.player_id
		ORDER BY total DESC, games ASC, o.player_id ASC
		LIMIT ?`), limit)
	return out, err
}
