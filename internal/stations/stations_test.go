package stations_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationguessr/go-server/internal/stations"
)

func TestParseLines(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "json array", raw: `["METRO 1", " RER A ", ""]`, want: []string{"METRO 1", "RER A"}},
		{name: "slash delimited", raw: `"METRO 8 / RER A"`, want: []string{"METRO 8", "RER A"}},
		{name: "comma delimited", raw: `"ORLYVAL,TRAM 7"`, want: []string{"ORLYVAL", "TRAM 7"}},
		{name: "json array in string", raw: `"[\"METRO 1\",\"RER A\"]"`, want: []string{"METRO 1", "RER A"}},
		{name: "empty string", raw: `""`, want: []string{}},
		{name: "number", raw: `42`, want: nil},
		{name: "missing", raw: ``, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stations.ParseLines(json.RawMessage(tt.raw)))
		})
	}
}

func TestParseFiltersIneligible(t *testing.T) {
	data := `[
		{"id": "1", "name": "Nation", "lines": ["METRO 1", "RER A"], "city": "Paris", "cityZone": 12},
		{"id": "2", "name": "Chessy", "lines": ["RER A"], "city": "Chessy"},
		{"id": "3", "name": "  ", "lines": ["RER A", "RER B"], "city": "Nowhere"},
		{"id": "4", "name": "Orly", "lines": "ORLYVAL,TRAM 7", "city": ""}
	]`
	c, err := stations.Parse([]byte(data))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	nation := c.At(0)
	assert.Equal(t, "Nation", nation.Name)
	require.NotNil(t, nation.CityZone)
	assert.Equal(t, 12, *nation.CityZone)

	orly := c.At(1)
	assert.Equal(t, []string{"ORLYVAL", "TRAM 7"}, orly.Lines)
	assert.Equal(t, "Inconnue", orly.City)
	assert.Nil(t, orly.CityZone)
}

func TestParseEmpty(t *testing.T) {
	_, err := stations.Parse([]byte(`[{"name": "Chessy", "lines": ["RER A"]}]`))
	assert.ErrorIs(t, err, stations.ErrEmptyCatalog)

	_, err = stations.Parse([]byte(`{`))
	assert.Error(t, err)
}

func TestLoadEmbedded(t *testing.T) {
	c, err := stations.Load("")
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 10)
	for i := 0; i < c.Len(); i++ {
		assert.GreaterOrEqual(t, len(c.At(i).Lines), 2, c.At(i).Name)
	}
	assert.NotContains(t, c.Names(), "Marne-la-Vallée Chessy")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Nation", "lines": "METRO 1 / METRO 2", "city": "Paris"}]`), 0o600))
	c, err := stations.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nation"}, c.Names())

	_, err = stations.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	c, err := stations.Parse([]byte(`[
		{"name": "Gare de Lyon", "lines": ["METRO 1", "RER A"]},
		{"name": "Gare du Nord", "lines": ["METRO 4", "RER B"]},
		{"name": "Gare de l'Est", "lines": ["METRO 4", "METRO 5"]},
		{"name": "Opéra", "lines": ["METRO 3", "METRO 7"]}
	]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Gare de Lyon", "Gare du Nord"}, c.Search("GARE", 2))
	assert.Equal(t, []string{"Opéra"}, c.Search("opera", 10))
	assert.Empty(t, c.Search("  ", 10))
	assert.Empty(t, c.Search("gare", 0))
	assert.Empty(t, c.Search("bastille", 10))
}
