// internal/stations/stations.go
//
// Station catalog used to pick daily assignments and to autocomplete guesses.
//
// Responsibilities:
//   - Load the catalog from a JSON file (STATIONS_FILE) or fall back to the embedded default.
//   - Normalize each record's lines into an ordered token list. Sources ship lines as a JSON
//     array, a JSON array encoded in a string, or a "/"- or ","-delimited string.
//   - Keep only stations with at least two lines; fewer makes hint gating meaningless.
//   - Search station names by normalized substring.

package stations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/stationguessr/go-server/assets"
	"github.com/stationguessr/go-server/internal/round"
)

// ErrEmptyCatalog is returned when no usable station survives loading.
var ErrEmptyCatalog = errors.New("no eligible station in catalog")

// Station is one eligible station of the catalog.
type Station struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lines    []string `json:"lines"`
	City     string   `json:"city"`
	CityZone *int     `json:"cityZone,omitempty"` // arrondissement, Paris only
}

// Catalog is an immutable, ordered list of stations.
type Catalog struct {
	stations []Station
	names    []string // normalized names, index-aligned with stations
}

// rawStation mirrors a catalog record before line normalization.
type rawStation struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Lines    json.RawMessage `json:"lines"`
	City     string          `json:"city"`
	CityZone *int            `json:"cityZone"`
}

// Load reads the catalog at path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = assets.StationsJSON()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read station catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of station records.
func Parse(data []byte) (*Catalog, error) {
	var raws []rawStation
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode station catalog: %w", err)
	}

	c := &Catalog{}
	for _, r := range raws {
		name := strings.TrimSpace(r.Name)
		lines := ParseLines(r.Lines)
		if name == "" || len(lines) < round.BaseRevealedCount {
			continue
		}
		city := strings.TrimSpace(r.City)
		if city == "" {
			city = "Inconnue"
		}
		c.stations = append(c.stations, Station{ID: r.ID, Name: name, Lines: lines, City: city, CityZone: r.CityZone})
		c.names = append(c.names, round.Normalize(name))
	}
	if len(c.stations) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

// ParseLines turns the loosely typed "lines" field into ordered, trimmed, non-empty tokens.
func ParseLines(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return clean(list)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return ParseLineString(s)
}

// ParseLineString parses a JSON-array string such as `["RER A","RER B"]`, or a
// delimited string such as "METRO 8 / RER A" or "ORLYVAL,TRAM 7".
func ParseLineString(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return clean(list)
		}
	}
	sep := ","
	if strings.Contains(s, "/") {
		sep = "/"
	}
	return clean(strings.Split(s, sep))
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Len reports the number of stations.
func (c *Catalog) Len() int { return len(c.stations) }

// At returns the i-th station.
func (c *Catalog) At(i int) Station { return c.stations[i] }

// Names returns every station name in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.stations))
	for i, s := range c.stations {
		out[i] = s.Name
	}
	return out
}

// Search returns up to limit station names whose normalized form contains the normalized query.
// An empty query matches nothing.
func (c *Catalog) Search(query string, limit int) []string {
	q := round.Normalize(query)
	if q == "" || limit <= 0 {
		return []string{}
	}
	out := []string{}
	for i, n := range c.names {
		if strings.Contains(n, q) {
			out = append(out, c.stations[i].Name)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
