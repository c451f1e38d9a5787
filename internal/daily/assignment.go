package daily

import (
	"fmt"

	"github.com/stationguessr/go-server/internal/round"
	"github.com/stationguessr/go-server/internal/stations"
)

// Assignment is the station selected for one calendar date.
type Assignment struct {
	Date        string   `json:"date"`
	StationName string   `json:"stationName"`
	Hints       []string `json:"hints"`
	City        string   `json:"city"`
	CityZone    *int     `json:"cityZone,omitempty"`
}

// FromStation builds the assignment of st for date.
func FromStation(date string, st stations.Station) Assignment {
	return Assignment{
		Date:        date,
		StationName: st.Name,
		Hints:       st.Lines,
		City:        st.City,
		CityZone:    st.CityZone,
	}
}

// NewRound starts a fresh round for the assignment.
// Fails with round.ErrInsufficientHints when the assignment carries fewer than two hints.
func (a Assignment) NewRound() (*round.State, error) {
	hints, err := round.NewHints(a.Hints)
	if err != nil {
		return nil, fmt.Errorf("assignment %s: %w", a.Date, err)
	}
	return round.New(a.StationName, hints), nil
}
