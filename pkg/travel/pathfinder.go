package travel

import (
	"fmt"
	"strings"

	"github.com/campaignforge/dmengine/pkg/world"
)

// PathResult is the outcome of a reachability query. Message is suitable
// for in-narrative feedback; a not-found result is valid game feedback,
// not a system error.
type PathResult struct {
	Found   bool     `json:"found"`
	Path    []string `json:"path,omitempty"` // Full hop sequence, origin first
	Message string   `json:"message"`
}

// FindPath runs a breadth-first search from origin to destination and
// returns the shortest hop path. Edges are unweighted, so BFS gives the
// shortest hop count directly. Neighbor lists are sorted at graph build
// time, which makes tie-breaking between equal-length routes deterministic.
func FindPath(g *world.Graph, origin, destination string) PathResult {
	if !g.Contains(origin) {
		return PathResult{
			Found:   false,
			Message: fmt.Sprintf("current location not recognized: %s", origin),
		}
	}
	if !g.Contains(destination) {
		return PathResult{
			Found:   false,
			Message: fmt.Sprintf("destination not recognized: %s", destination),
		}
	}
	if origin == destination {
		return PathResult{
			Found:   true,
			Path:    []string{origin},
			Message: "already there",
		}
	}

	cameFrom := map[string]string{origin: ""}
	queue := []string{origin}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := g.Neighbors(current)
		if err != nil {
			// Unreachable given the Contains check above.
			continue
		}
		for _, edge := range edges {
			if _, seen := cameFrom[edge.Target]; seen {
				continue
			}
			cameFrom[edge.Target] = current
			if edge.Target == destination {
				path := reconstructPath(cameFrom, destination)
				return PathResult{
					Found:   true,
					Path:    path,
					Message: fmt.Sprintf("route found: %s", strings.Join(path, " -> ")),
				}
			}
			queue = append(queue, edge.Target)
		}
	}

	return PathResult{
		Found:   false,
		Message: fmt.Sprintf("no known route from %s to %s", origin, destination),
	}
}

func reconstructPath(cameFrom map[string]string, destination string) []string {
	var reversed []string
	for at := destination; at != ""; at = cameFrom[at] {
		reversed = append(reversed, at)
	}
	path := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}
