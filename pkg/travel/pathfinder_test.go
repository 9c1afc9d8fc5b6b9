package travel

import (
	"strings"
	"testing"

	"github.com/campaignforge/dmengine/pkg/world"
)

// buildTestGraph wires two areas: a town connected to a dungeon through
// the east gate, plus an isolated crypt with no connecting exits.
func buildTestGraph(t *testing.T) *world.Graph {
	t.Helper()

	w := &world.World{
		Module: "pathfinder_test.json",
		Areas: []world.Area{
			{
				ID: "town",
				Locations: []world.Location{
					{ID: "T01", Name: "Town Square", Exits: map[string]string{"east": "T02"}},
					{ID: "T02", Name: "East Gate", Exits: map[string]string{"west": "T01", "road": "D01"}},
				},
			},
			{
				ID: "dungeon",
				Locations: []world.Location{
					{ID: "D01", Name: "Entrance", Exits: map[string]string{"back": "T02"}},
				},
			},
			{
				ID: "crypt",
				Locations: []world.Location{
					{ID: "C01", Name: "Sealed Crypt"},
				},
			},
		},
	}

	g, err := world.BuildGraph(w, nil)
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	return g
}

func TestFindPath_CrossArea(t *testing.T) {
	g := buildTestGraph(t)

	result := FindPath(g, "T01", "D01")
	if !result.Found {
		t.Fatalf("Expected path from T01 to D01, got: %s", result.Message)
	}

	want := []string{"T01", "T02", "D01"}
	if len(result.Path) != len(want) {
		t.Fatalf("Expected path %v, got %v", want, result.Path)
	}
	for i := range want {
		if result.Path[i] != want[i] {
			t.Errorf("Hop %d: expected %q, got %q", i, want[i], result.Path[i])
		}
	}

	// Message carries the full hop sequence for audit.
	if !strings.Contains(result.Message, "T01 -> T02 -> D01") {
		t.Errorf("Expected hop sequence in message, got %q", result.Message)
	}
}

func TestFindPath_SameLocation(t *testing.T) {
	g := buildTestGraph(t)

	for _, id := range []string{"T01", "T02", "D01", "C01"} {
		result := FindPath(g, id, id)
		if !result.Found {
			t.Errorf("FindPath(%s, %s) should succeed", id, id)
		}
		if len(result.Path) != 1 || result.Path[0] != id {
			t.Errorf("FindPath(%s, %s): expected path [%s], got %v", id, id, id, result.Path)
		}
	}
}

func TestFindPath_UnknownDestination(t *testing.T) {
	g := buildTestGraph(t)

	result := FindPath(g, "T01", "D99")
	if result.Found {
		t.Fatal("Expected failure for nonexistent destination")
	}
	if result.Path != nil {
		t.Errorf("Expected nil path, got %v", result.Path)
	}
	if !strings.Contains(result.Message, "destination not recognized") {
		t.Errorf("Expected 'destination not recognized' message, got %q", result.Message)
	}
}

func TestFindPath_UnknownOrigin(t *testing.T) {
	g := buildTestGraph(t)

	result := FindPath(g, "X01", "T01")
	if result.Found {
		t.Fatal("Expected failure for nonexistent origin")
	}
	if !strings.Contains(result.Message, "current location not recognized") {
		t.Errorf("Expected 'current location not recognized' message, got %q", result.Message)
	}
}

func TestFindPath_Disconnected(t *testing.T) {
	g := buildTestGraph(t)

	// The crypt is unconnected by design until a plot event unlocks it.
	result := FindPath(g, "T01", "C01")
	if result.Found {
		t.Fatal("Expected no route to the sealed crypt")
	}
	if !strings.Contains(result.Message, "no known route") {
		t.Errorf("Expected 'no known route' message, got %q", result.Message)
	}
}

func TestFindPath_ShortestPath(t *testing.T) {
	// A01 -> A05 has a 2-hop route through A04 and a longer 3-hop route
	// through A02/A03. BFS must return the 2-hop route.
	w := &world.World{
		Module: "shortest.json",
		Areas: []world.Area{{
			ID: "maze",
			Locations: []world.Location{
				{ID: "A01", Exits: map[string]string{"a": "A02", "b": "A04"}},
				{ID: "A02", Exits: map[string]string{"a": "A03"}},
				{ID: "A03", Exits: map[string]string{"a": "A05"}},
				{ID: "A04", Exits: map[string]string{"a": "A05"}},
				{ID: "A05"},
			},
		}},
	}
	g, err := world.BuildGraph(w, nil)
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}

	result := FindPath(g, "A01", "A05")
	if !result.Found {
		t.Fatalf("Expected path, got: %s", result.Message)
	}
	if len(result.Path) != 3 {
		t.Errorf("Expected 3-node shortest path, got %v", result.Path)
	}
}

func TestFindPath_DeterministicTieBreak(t *testing.T) {
	// Two equal-length routes: A01 -> A02 -> A04 and A01 -> A03 -> A04.
	// Neighbor lists are sorted by ID at build time, so the A02 route
	// must win on every run.
	w := &world.World{
		Module: "tiebreak.json",
		Areas: []world.Area{{
			ID: "fork",
			Locations: []world.Location{
				{ID: "A01", Exits: map[string]string{"right": "A03", "left": "A02"}},
				{ID: "A02", Exits: map[string]string{"on": "A04"}},
				{ID: "A03", Exits: map[string]string{"on": "A04"}},
				{ID: "A04"},
			},
		}},
	}
	g, err := world.BuildGraph(w, nil)
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}

	for i := 0; i < 20; i++ {
		result := FindPath(g, "A01", "A04")
		if !result.Found {
			t.Fatalf("Expected path, got: %s", result.Message)
		}
		if len(result.Path) != 3 || result.Path[1] != "A02" {
			t.Fatalf("Run %d: expected deterministic path through A02, got %v", i, result.Path)
		}
	}
}
