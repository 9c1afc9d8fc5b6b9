package world

import (
	"fmt"
	"log/slog"
	"sort"
)

// Edge is a directed, labeled connection from one location to another.
type Edge struct {
	Target string // Destination location ID
	Label  string // Exit label, e.g. "east" or "down the well"
}

// Graph is the adjacency structure over all locations across all areas.
// It is built once per session from the module's world data and treated
// as read-only thereafter; if world data changes mid-campaign the graph
// is rebuilt wholesale rather than patched.
type Graph struct {
	locations map[string]Location
	areas     map[string]string // location ID → area ID
	adjacency map[string][]Edge
	warnings  []string
}

// BuildGraph constructs the location graph from world data. Duplicate
// location identifiers across areas are a load error. A dangling exit
// (one whose target does not resolve to a loaded location) drops the
// edge with a warning; the location itself stays in the graph.
// Neighbor lists are sorted by target ID so path search is reproducible.
func BuildGraph(w *World, logger *slog.Logger) (*Graph, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	g := &Graph{
		locations: make(map[string]Location),
		areas:     make(map[string]string),
		adjacency: make(map[string][]Edge),
	}

	for _, area := range w.Areas {
		for _, loc := range area.Locations {
			g.locations[loc.ID] = loc
			g.areas[loc.ID] = area.ID
			g.adjacency[loc.ID] = make([]Edge, 0, len(loc.Exits))
		}
	}

	for _, area := range w.Areas {
		for _, loc := range area.Locations {
			for label, target := range loc.Exits {
				if _, ok := g.locations[target]; !ok {
					warning := fmt.Sprintf("location %q: exit %q references unknown location %q", loc.ID, label, target)
					g.warnings = append(g.warnings, warning)
					if logger != nil {
						logger.Warn("Dropping dangling exit",
							"location", loc.ID,
							"exit", label,
							"target", target)
					}
					continue
				}
				g.adjacency[loc.ID] = append(g.adjacency[loc.ID], Edge{Target: target, Label: label})
			}
		}
	}

	for id := range g.adjacency {
		edges := g.adjacency[id]
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].Target != edges[j].Target {
				return edges[i].Target < edges[j].Target
			}
			return edges[i].Label < edges[j].Label
		})
	}

	return g, nil
}

// Contains reports whether the location ID exists in the graph.
func (g *Graph) Contains(id string) bool {
	_, ok := g.locations[id]
	return ok
}

// Location returns the location record for the given ID.
func (g *Graph) Location(id string) (Location, error) {
	loc, ok := g.locations[id]
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrLocationNotFound, id)
	}
	return loc, nil
}

// AreaOf returns the area ID the location belongs to.
func (g *Graph) AreaOf(id string) (string, error) {
	area, ok := g.areas[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLocationNotFound, id)
	}
	return area, nil
}

// Neighbors returns the outgoing edges for a location, sorted by
// target ID. Unknown IDs return ErrLocationNotFound.
func (g *Graph) Neighbors(id string) ([]Edge, error) {
	edges, ok := g.adjacency[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, id)
	}
	return edges, nil
}

// Size returns the number of locations in the graph.
func (g *Graph) Size() int {
	return len(g.locations)
}

// Warnings returns the dangling-exit warnings recorded during the build.
func (g *Graph) Warnings() []string {
	return g.warnings
}
