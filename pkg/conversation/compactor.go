package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
)

// Generator is the external text-generation capability. It is a single
// blocking call; retry and backoff live behind this interface, not here.
type Generator interface {
	Generate(ctx context.Context, instructions string, content string) (string, error)
}

// GenerationError wraps a failure of the generation capability. The
// conversation log is left unmodified; the caller may retry later or
// skip compaction for this turn.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("compaction generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ErrCriticalFactDropped is returned when the post-compaction check
// still finds a critical event's key terms missing from the summary
// after the emergency retry. The caller keeps the original segment.
var ErrCriticalFactDropped = errors.New("compaction summary dropped a critical fact")

// CompactionResult replaces a source segment in the persisted log. The
// transformation is one-way and lossy; there is no reconstruction path
// back to the original turns.
type CompactionResult struct {
	Summary                 string   `json:"summary"`
	Strategy                Strategy `json:"strategy"`
	PreservedCriticalEvents []Event  `json:"preserved_critical_events,omitempty"`
	CompressionRatio        float64  `json:"compression_ratio"`
}

// DefaultTargetRatio is the compression the compactor asks for when no
// ratio is configured.
const DefaultTargetRatio = 0.5

// Compactor produces lossy-but-safe replacements for conversation
// segments. It classifies the segment, selects a strategy, invokes the
// generator once, and verifies critical facts survived, retrying once
// with the emergency strategy before giving up.
type Compactor struct {
	generator   Generator
	classifier  Classifier
	logger      *slog.Logger
	targetRatio float64
	fold        cases.Caser
}

// NewCompactor creates a compactor with the default keyword classifier.
func NewCompactor(generator Generator, logger *slog.Logger) *Compactor {
	return &Compactor{
		generator:   generator,
		classifier:  NewKeywordClassifier(),
		logger:      logger,
		targetRatio: DefaultTargetRatio,
		fold:        cases.Fold(),
	}
}

// WithClassifier swaps the event classifier.
// Returns the Compactor for method chaining.
func (c *Compactor) WithClassifier(classifier Classifier) *Compactor {
	c.classifier = classifier
	return c
}

// WithTargetRatio sets the required compression ratio in [0, 1].
// Returns the Compactor for method chaining.
func (c *Compactor) WithTargetRatio(ratio float64) *Compactor {
	c.targetRatio = ratio
	return c
}

// Compact produces a CompactionResult for one segment. On a generation
// failure the error wraps GenerationError and nothing is modified.
func (c *Compactor) Compact(ctx context.Context, seg Segment) (*CompactionResult, error) {
	events := c.classifier.Classify(seg)
	critical := CriticalEvents(events)
	strategy := SelectStrategy(events, c.targetRatio)

	summary, err := c.generate(ctx, strategy, seg, critical)
	if err != nil {
		return nil, err
	}

	if missing := c.missingCriticalTerms(summary, critical); len(missing) > 0 {
		if c.logger != nil {
			c.logger.Warn("Compaction summary dropped critical terms, retrying with emergency strategy",
				"strategy", strategy,
				"missing", missing)
		}
		if strategy != StrategyEmergency {
			summary, err = c.generate(ctx, StrategyEmergency, seg, critical)
			if err != nil {
				return nil, err
			}
			strategy = StrategyEmergency
			missing = c.missingCriticalTerms(summary, critical)
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: missing terms %v", ErrCriticalFactDropped, missing)
		}
	}

	original := seg.Text()
	ratio := 0.0
	if len(original) > 0 {
		ratio = 1.0 - float64(len(summary))/float64(len(original))
		if ratio < 0 {
			ratio = 0
		}
	}

	return &CompactionResult{
		Summary:                 summary,
		Strategy:                strategy,
		PreservedCriticalEvents: critical,
		CompressionRatio:        ratio,
	}, nil
}

// CompactLog compacts the oldest closed segment of the log and replaces
// it in place. Returns (nil, nil) when nothing is eligible. On any
// failure the log is left untouched.
func (c *Compactor) CompactLog(ctx context.Context, log *Log) (*CompactionResult, error) {
	seg, ok := log.OldestSegment()
	if !ok {
		return nil, nil
	}

	result, err := c.Compact(ctx, seg)
	if err != nil {
		return nil, err
	}

	if err := log.ReplaceSegment(seg, result.Summary); err != nil {
		return nil, fmt.Errorf("failed to replace segment: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("Compacted conversation segment",
			"strategy", result.Strategy,
			"turns", len(seg.Turns),
			"critical_events", len(result.PreservedCriticalEvents),
			"compression_ratio", fmt.Sprintf("%.2f", result.CompressionRatio))
	}
	return result, nil
}

func (c *Compactor) generate(ctx context.Context, strategy Strategy, seg Segment, critical []Event) (string, error) {
	instructions := BuildInstructions(strategy, seg, critical)
	summary, err := c.generator.Generate(ctx, instructions, seg.Text())
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if summary == "" {
		return "", &GenerationError{Err: errors.New("generator returned empty summary")}
	}
	return summary, nil
}

// missingCriticalTerms is the best-effort post-condition check: each
// critical event's key terms must still appear in the summary under
// case folding. Not cryptographically strict, but enough to catch a
// summarizer that silently dropped a death or a named item.
func (c *Compactor) missingCriticalTerms(summary string, critical []Event) []string {
	folded := c.fold.String(summary)
	var missing []string
	for _, event := range critical {
		for _, term := range event.KeyTerms {
			if !containsFolded(folded, c.fold.String(term)) {
				missing = append(missing, term)
			}
		}
	}
	return missing
}

// containsFolded accepts light inflection differences: "dies" in the
// event description still counts as preserved when the summary says
// "died".
func containsFolded(foldedHaystack, foldedNeedle string) bool {
	if foldedNeedle == "" {
		return true
	}
	if strings.Contains(foldedHaystack, foldedNeedle) {
		return true
	}
	for _, suffix := range []string{"ies", "es", "ed", "s"} {
		stem := strings.TrimSuffix(foldedNeedle, suffix)
		if len(stem) >= 3 && stem != foldedNeedle && strings.Contains(foldedHaystack, stem) {
			return true
		}
	}
	return false
}
