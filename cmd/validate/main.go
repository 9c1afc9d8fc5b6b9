package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/campaignforge/dmengine/pkg/world"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <world.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &WorldValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("World module file is valid!")
}

type WorldValidator struct {
	errors []string
}

func (v *WorldValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	// Validate filename format
	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("world module file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidModuleFilename(nameWithoutExt) {
		return fmt.Errorf("module filename '%s' must be lowercase snake_case (e.g., my_module.json, not my-module.json or MyModule.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var w world.World
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&w); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateWorld(&w, nameWithoutExt)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *WorldValidator) validateWorld(w *world.World, moduleName string) {
	if w.Name == "" {
		v.errors = append(v.errors, "  - world name is required")
	}
	if w.Module != "" && w.Module != moduleName {
		v.errors = append(v.errors, fmt.Sprintf("  - module field %q does not match filename %q", w.Module, moduleName))
	}
	if len(w.Areas) == 0 {
		v.errors = append(v.errors, "  - world must contain at least one area")
	}

	for _, area := range w.Areas {
		if !isValidModuleFilename(area.ID) {
			v.errors = append(v.errors, fmt.Sprintf("  - area ID %q must be lowercase snake_case", area.ID))
		}
		if len(area.Locations) == 0 {
			v.errors = append(v.errors, fmt.Sprintf("  - area %q has no locations", area.ID))
		}
		for _, loc := range area.Locations {
			if loc.Name == "" {
				v.errors = append(v.errors, fmt.Sprintf("  - location %q has no display name", loc.ID))
			}
		}
	}

	// ID formats, duplicates, and start location
	if err := w.Validate(); err != nil {
		var gle *world.GraphLoadError
		if errors.As(err, &gle) {
			for _, p := range gle.Problems {
				v.errors = append(v.errors, "  - "+p)
			}
		} else {
			v.errors = append(v.errors, "  - "+err.Error())
		}
		return
	}

	// Dangling exits are tolerated as warnings at load time; the
	// validate CLI treats them as errors so they never ship in
	// module data.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	g, err := world.BuildGraph(w, logger)
	if err != nil {
		v.errors = append(v.errors, "  - "+err.Error())
		return
	}
	for _, warning := range g.Warnings() {
		v.errors = append(v.errors, "  - "+warning)
	}
}

var moduleFilenamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func isValidModuleFilename(name string) bool {
	return moduleFilenamePattern.MatchString(name)
}
