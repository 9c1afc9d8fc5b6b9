package travel

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/campaignforge/dmengine/pkg/world"
)

// Outcome classifies a travel directive against the location graph.
type Outcome string

const (
	// TravelAccepted means a path exists; the validation carries the
	// full hop sequence for narration consistency and audit.
	TravelAccepted Outcome = "accepted"

	// TravelRejectedUnknownDestination means the narrator named a
	// location that is not in the graph, commonly a display name
	// instead of a canonical ID.
	TravelRejectedUnknownDestination Outcome = "rejected_unknown_destination"

	// TravelRejectedUnreachable means the destination exists but no
	// route connects it to the party's current location. This signals
	// a plot-state inconsistency in the narration, not a system error.
	TravelRejectedUnreachable Outcome = "rejected_unreachable"

	// TravelRejectedMalformed means the directive could not be parsed.
	TravelRejectedMalformed Outcome = "rejected_malformed"
)

var errMissingTravelField = errors.New("directive missing travel field")

// Validation is the result of checking one travel directive.
type Validation struct {
	Outcome     Outcome  `json:"outcome"`
	Destination string   `json:"destination,omitempty"`
	Path        []string `json:"path,omitempty"` // Full hop sequence when accepted
	Message     string   `json:"message"`
}

// Accepted reports whether the directive passed validation.
func (v Validation) Accepted() bool {
	return v.Outcome == TravelAccepted
}

// Validator certifies that proposed transitions are reachable before they
// are committed to session state. It never guesses an identifier from a
// display name; the narrator must emit canonical IDs for machine-checked
// actions, and violations surface as rejections with a diagnostic.
type Validator struct {
	graph  *world.Graph
	logger *slog.Logger
}

// NewValidator creates a validator over the session's location graph.
func NewValidator(g *world.Graph, logger *slog.Logger) *Validator {
	return &Validator{graph: g, logger: logger}
}

// Validate extracts the travel directive from a raw narrator response and
// checks it against the graph. Returns (validation, true) when the
// response contained a directive, and (zero, false) when it did not —
// a turn with no travel is not a rejection.
func (v *Validator) Validate(raw string, currentLocation string) (Validation, bool) {
	directive, present, err := ExtractDirective(raw)
	if !present {
		return Validation{}, false
	}
	if err != nil {
		if v.logger != nil {
			v.logger.Warn("Malformed travel directive", "error", err, "current", currentLocation)
		}
		return Validation{
			Outcome: TravelRejectedMalformed,
			Message: fmt.Sprintf("travel directive could not be parsed: %v; emit {\"travel\": {\"destination\": \"<location id>\"}}", err),
		}, true
	}
	return v.ValidateDirective(directive, currentLocation), true
}

// ValidateDirective checks an already-parsed directive against the graph.
func (v *Validator) ValidateDirective(d Directive, currentLocation string) Validation {
	if d.Destination == "" {
		return Validation{
			Outcome: TravelRejectedMalformed,
			Message: "travel directive has no destination field",
		}
	}

	// A non-canonical destination is treated as unknown, never coerced
	// from a display name. Near-duplicate names make silent coercion a
	// latent correctness bug.
	if !world.IsValidLocationID(d.Destination) {
		return Validation{
			Outcome:     TravelRejectedUnknownDestination,
			Destination: d.Destination,
			Message:     fmt.Sprintf("destination %q is not a canonical location ID; the narrator must use IDs, not display names", d.Destination),
		}
	}

	// A session location missing from the graph means the world module
	// changed underneath the session. Nothing is reachable from it, so
	// the directive is rejected as unreachable with an explicit
	// diagnostic rather than a misleading lookup failure.
	if !v.graph.Contains(currentLocation) {
		if v.logger != nil {
			v.logger.Error("Session location missing from graph", "current", currentLocation)
		}
		return Validation{
			Outcome:     TravelRejectedUnreachable,
			Destination: d.Destination,
			Message:     fmt.Sprintf("current location %q is not in the location graph; no destination is reachable from it", currentLocation),
		}
	}

	result := FindPath(v.graph, currentLocation, d.Destination)
	if result.Found {
		if v.logger != nil {
			v.logger.Debug("Travel accepted",
				"from", currentLocation,
				"to", d.Destination,
				"hops", len(result.Path)-1)
		}
		return Validation{
			Outcome:     TravelAccepted,
			Destination: d.Destination,
			Path:        result.Path,
			Message:     result.Message,
		}
	}

	if !v.graph.Contains(d.Destination) {
		return Validation{
			Outcome:     TravelRejectedUnknownDestination,
			Destination: d.Destination,
			Message:     result.Message,
		}
	}

	return Validation{
		Outcome:     TravelRejectedUnreachable,
		Destination: d.Destination,
		Message:     result.Message,
	}
}
