package world

import (
	"errors"
	"strings"
	"testing"
)

func TestStartLocation(t *testing.T) {
	w := testWorld()
	if got := w.StartLocation(); got != "T01" {
		t.Errorf("Expected first location T01 when no start declared, got %q", got)
	}

	w.Start = "D01"
	if got := w.StartLocation(); got != "D01" {
		t.Errorf("Expected declared start D01, got %q", got)
	}

	empty := &World{Name: "Empty"}
	if got := empty.StartLocation(); got != "" {
		t.Errorf("Expected empty start for empty world, got %q", got)
	}
}

func TestValidate_StartLocation(t *testing.T) {
	w := testWorld()
	w.Start = "T02"
	if err := w.Validate(); err != nil {
		t.Fatalf("Expected valid world with existing start, got %v", err)
	}

	w.Start = "Z99"
	err := w.Validate()
	if err == nil {
		t.Fatal("Expected error for start location not in any area")
	}
	var gle *GraphLoadError
	if !errors.As(err, &gle) {
		t.Fatalf("Expected GraphLoadError, got %T", err)
	}
	if len(gle.Problems) != 1 || !strings.Contains(gle.Problems[0], "Z99") {
		t.Errorf("Unexpected problems: %v", gle.Problems)
	}

	w.Start = "Town Square"
	err = w.Validate()
	if err == nil {
		t.Fatal("Expected error for non-canonical start location")
	}
	if !strings.Contains(err.Error(), "not canonical") {
		t.Errorf("Expected canonical-format problem, got %v", err)
	}
}
