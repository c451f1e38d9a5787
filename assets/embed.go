// Package assets embeds the default station catalog shipped with the server.
package assets

import (
	"embed"
)

//go:embed stations.json
var FS embed.FS

// StationsJSON returns the raw embedded station catalog.
func StationsJSON() ([]byte, error) {
	return FS.ReadFile("stations.json")
}
