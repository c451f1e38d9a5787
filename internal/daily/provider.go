package daily

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stationguessr/go-server/internal/stations"
)

// Provider resolves the assignment for a date.
//
// A stored assignment always wins. Otherwise the station is picked from the catalog
// with StationIndex and stored insert-if-absent, so every server instance agrees on
// the day's station once one of them has written it.
type Provider struct {
	store   *Store
	catalog *stations.Catalog
	salt    string
	now     func() time.Time
}

// NewProvider constructs a Provider over store and catalog.
func NewProvider(store *Store, catalog *stations.Catalog, salt string) *Provider {
	return &Provider{store: store, catalog: catalog, salt: salt, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// TodayKey returns today's date key.
func (p *Provider) TodayKey() string { return DateKey(p.now()) }

// Today resolves today's assignment.
func (p *Provider) Today(ctx context.Context) (Assignment, error) {
	return p.ForDate(ctx, p.TodayKey())
}

// ForDate resolves the assignment for date (YYYY-MM-DD).
func (p *Provider) ForDate(ctx context.Context, date string) (Assignment, error) {
	a, err := p.store.GetAssignment(ctx, date)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNoAssignment) {
		return Assignment{}, err
	}

	pick, err := p.pick(date)
	if err != nil {
		return Assignment{}, err
	}
	inserted, err := p.store.PutAssignment(ctx, pick)
	if err != nil {
		return Assignment{}, fmt.Errorf("store assignment %s: %w", date, err)
	}
	if inserted {
		log.Info().Str("date", date).Str("station", pick.StationName).Msg("assignment picked")
		return pick, nil
	}
	// Lost the race against another writer; theirs is authoritative.
	return p.store.GetAssignment(ctx, date)
}

// Schedule stores assignments for the next days dates following the last stored date,
// or starting today when nothing is stored. Existing dates are left untouched.
// Returns the number of assignments created.
func (p *Provider) Schedule(ctx context.Context, days int) (int, error) {
	start, err := ParseDateKey(p.TodayKey())
	if err != nil {
		return 0, err
	}
	last, err := p.store.LastAssignmentDate(ctx)
	if err != nil {
		return 0, fmt.Errorf("last assignment date: %w", err)
	}
	if last != "" {
		lastDay, err := ParseDateKey(last)
		if err != nil {
			return 0, fmt.Errorf("parse last date %q: %w", last, err)
		}
		if next := lastDay.AddDate(0, 0, 1); next.After(start) {
			start = next
		}
	}

	created := 0
	for i := 0; i < days; i++ {
		date := DateKey(start.AddDate(0, 0, i))
		pick, err := p.pick(date)
		if err != nil {
			return created, err
		}
		inserted, err := p.store.PutAssignment(ctx, pick)
		if err != nil {
			return created, fmt.Errorf("store assignment %s: %w", date, err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (p *Provider) pick(date string) (Assignment, error) {
	day, err := ParseDateKey(date)
	if err != nil {
		return Assignment{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	idx := StationIndex(day, p.salt, p.catalog.Len())
	return FromStation(date, p.catalog.At(idx)), nil
}
