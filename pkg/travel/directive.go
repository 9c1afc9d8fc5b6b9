package travel

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Directive is the structured travel request the narrator embeds in its
// response when the party moves. Destination must be a canonical
// location ID; display names are rejected by the validator, never coerced.
type Directive struct {
	Destination string `json:"destination"`
}

// directiveEnvelope is the JSON object shape the narrator emits,
// e.g. {"travel": {"destination": "T02"}}.
type directiveEnvelope struct {
	Travel *Directive `json:"travel"`
}

var directiveStart = regexp.MustCompile(`\{\s*"travel"\s*:`)

// ExtractDirective scans a raw narrator response for an embedded travel
// directive. Returns (directive, true, nil) when a well-formed directive
// is found, (zero, false, nil) when the response contains no directive
// at all, and (zero, true, err) when a directive is present but broken.
func ExtractDirective(raw string) (Directive, bool, error) {
	loc := directiveStart.FindStringIndex(raw)
	if loc == nil {
		return Directive{}, false, nil
	}

	decoder := json.NewDecoder(strings.NewReader(raw[loc[0]:]))
	var envelope directiveEnvelope
	if err := decoder.Decode(&envelope); err != nil {
		return Directive{}, true, err
	}
	if envelope.Travel == nil {
		return Directive{}, true, errMissingTravelField
	}
	return *envelope.Travel, true, nil
}

// StripDirective removes the directive JSON from the narration text so
// players never see machine markup. A directive too broken to decode is
// cut from its opening brace to the end of the line; losing a trailing
// fragment beats showing the player raw markup.
func StripDirective(raw string) string {
	loc := directiveStart.FindStringIndex(raw)
	if loc == nil {
		return raw
	}

	decoder := json.NewDecoder(strings.NewReader(raw[loc[0]:]))
	var envelope directiveEnvelope
	if err := decoder.Decode(&envelope); err != nil {
		end := len(raw)
		if nl := strings.IndexByte(raw[loc[0]:], '\n'); nl >= 0 {
			end = loc[0] + nl
		}
		return strings.TrimSpace(raw[:loc[0]] + raw[end:])
	}
	end := loc[0] + int(decoder.InputOffset())
	return strings.TrimSpace(raw[:loc[0]] + raw[end:])
}
