// Package catalog holds the fixed enumerations the UI offers and the service
// validates against: MLB franchise names, general storage locations, and the
// narrower set of storage bins used for hats. The enumerations are deployment
// configuration, not user data: defaults are embedded in the binary and a
// whole replacement file can be supplied via CATALOG_PATH.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dugoutapp/dugout/internal/domain"
)

//go:embed catalog.json
var defaultsJSON []byte

type Catalog struct {
	Teams     []string `json:"teams"`
	Locations []string `json:"locations"`
	Bins      []string `json:"bins"`
}

// Default returns the embedded enumerations.
func Default() *Catalog {
	c, err := parse(defaultsJSON)
	if err != nil {
		// The embedded file is fixed at build time; a parse failure here is a
		// broken build, not a runtime condition.
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads the catalog from path, or returns the embedded defaults when
// path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Teams) == 0 || len(c.Locations) == 0 || len(c.Bins) == 0 {
		return nil, fmt.Errorf("catalog must define teams, locations, and bins")
	}
	return &c, nil
}

// ValidTeam reports whether team is one of the franchise names, matched
// exactly.
func (c *Catalog) ValidTeam(team string) bool {
	return contains(c.Teams, team)
}

// LocationsFor returns the location enumeration for the given kind: hats pick
// from storage bins, jerseys from the broader location list.
func (c *Catalog) LocationsFor(kind domain.Kind) []string {
	if kind == domain.KindHat {
		return c.Bins
	}
	return c.Locations
}

// ValidLocation reports whether location is in the enumeration for kind.
func (c *Catalog) ValidLocation(kind domain.Kind, location string) bool {
	return contains(c.LocationsFor(kind), location)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
