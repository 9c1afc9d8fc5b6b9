package world

import (
	"fmt"
	"regexp"
)

// locationIDPattern is the canonical location identifier format:
// one area letter followed by two digits, e.g. "A01" or "T12".
var locationIDPattern = regexp.MustCompile(`^[A-Z][0-9]{2}$`)

// IsValidLocationID reports whether id matches the canonical
// area-letter + 2-digit format used for machine-checked travel.
func IsValidLocationID(id string) bool {
	return locationIDPattern.MatchString(id)
}

// Location is a single navigable node within an Area.
type Location struct {
	ID          string            `json:"id"`                    // Canonical identifier, e.g. "A01"
	Name        string            `json:"name"`                  // Display name for narration
	Description string            `json:"description,omitempty"` // Scene description
	Exits       map[string]string `json:"exits,omitempty"`       // Exit label → target location ID
}

// Area is a named cluster of Locations sharing one map context.
// Cross-area travel happens only through exits that explicitly
// reference a location in another area.
type Area struct {
	ID        string     `json:"id"`   // Unique area key, e.g. "town"
	Name      string     `json:"name"` // Display name
	Locations []Location `json:"locations"`
}

// World is the full set of areas for the active module. It is the
// boundary shape consumed by BuildGraph; how it is loaded from disk
// is the storage layer's concern.
type World struct {
	Module string `json:"module"` // Module file name, e.g. "greenhollow.json"
	Name   string `json:"name"`
	Start  string `json:"start,omitempty"` // Starting location for new sessions
	Areas  []Area `json:"areas"`
}

// StartLocation returns the module's declared starting location, or
// the first location of the first area when none is declared. Returns
// "" for a world with no locations.
func (w *World) StartLocation() string {
	if w.Start != "" {
		return w.Start
	}
	for _, area := range w.Areas {
		if len(area.Locations) > 0 {
			return area.Locations[0].ID
		}
	}
	return ""
}

// Validate checks identifier formats and uniqueness without building a
// graph. It is used by the validate CLI and at module load time.
func (w *World) Validate() error {
	seenAreas := make(map[string]bool)
	seenLocations := make(map[string]string) // location ID → area ID
	var problems []string

	for _, area := range w.Areas {
		if area.ID == "" {
			problems = append(problems, "area with empty id")
			continue
		}
		if seenAreas[area.ID] {
			problems = append(problems, fmt.Sprintf("duplicate area id %q", area.ID))
		}
		seenAreas[area.ID] = true

		for _, loc := range area.Locations {
			if !IsValidLocationID(loc.ID) {
				problems = append(problems, fmt.Sprintf("area %q: location id %q is not canonical (expected letter + 2 digits)", area.ID, loc.ID))
				continue
			}
			if prior, ok := seenLocations[loc.ID]; ok {
				problems = append(problems, fmt.Sprintf("location id %q appears in both area %q and area %q", loc.ID, prior, area.ID))
				continue
			}
			seenLocations[loc.ID] = area.ID
		}
	}

	if w.Start != "" {
		if !IsValidLocationID(w.Start) {
			problems = append(problems, fmt.Sprintf("start location %q is not canonical (expected letter + 2 digits)", w.Start))
		} else if _, ok := seenLocations[w.Start]; !ok {
			problems = append(problems, fmt.Sprintf("start location %q does not exist in any area", w.Start))
		}
	}

	if len(problems) > 0 {
		return &GraphLoadError{Problems: problems}
	}
	return nil
}
