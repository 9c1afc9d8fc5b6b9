package world

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLocationNotFound is returned by graph queries for identifiers
// that are not present in the loaded world.
var ErrLocationNotFound = errors.New("location not found")

// GraphLoadError reports malformed or duplicate-identifier world data.
// It is fatal at session start; a broken world cannot be played.
type GraphLoadError struct {
	Problems []string
}

func (e *GraphLoadError) Error() string {
	return fmt.Sprintf("world data failed to load: %s", strings.Join(e.Problems, "; "))
}
