package conversation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/campaignforge/dmengine/pkg/chat"
)

// Classifier extracts events from a conversation segment. The default
// implementation is keyword-based; the interface exists so a model-based
// classifier can be swapped in without touching strategy selection.
type Classifier interface {
	Classify(seg Segment) []Event
}

// criticalMarker couples a pattern with the event type it implies.
// This list is the single source of truth for facts that must never be
// dropped during compression.
type criticalMarker struct {
	pattern   *regexp.Regexp
	eventType EventType
}

// Critical-marker patterns: character death or revival, level
// advancement, quest completion, permanent named-item change, and
// relationship-state changes that affect future story branches.
var criticalMarkers = []criticalMarker{
	{regexp.MustCompile(`(?i)\b(dies|died|dead|death|slain|killed|perishes|perished|falls lifeless|revived|resurrected|rises from the dead)\b`), EventCharacterState},
	{regexp.MustCompile(`(?i)\b(levels? up|leveled up|reaches level \d+|reached level \d+|gains a level|advances to level \d+)\b`), EventCharacterState},
	{regexp.MustCompile(`(?i)\b(quest (is )?(complete|completed|fulfilled)|completes? the quest|completed the quest)\b`), EventPlot},
	{regexp.MustCompile(`\b(gains|obtains|acquires|loses|receives|is given)\b(\s+\w+){0,2}\s+(the\s+)?[A-Z][\w']+`), EventCharacterState},
	{regexp.MustCompile(`(?i)\b(becomes (hostile|friendly|an ally|an enemy)|swears (vengeance|loyalty|an oath)|betrays|betrayed|alliance (is )?(formed|broken))\b`), EventNPCInteraction},
	{regexp.MustCompile(`(?i)\b(the (curse|seal) is (lifted|broken)|prophecy (is )?fulfilled|vows to)\b`), EventPlot},
}

// MatchesCriticalMarker reports whether text contains any critical-marker
// phrase. Exported so the must-preserve list is testable independently of
// classification accuracy.
func MatchesCriticalMarker(text string) bool {
	for _, m := range criticalMarkers {
		if m.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// KeywordClassifier is the default heuristic Classifier. Patterns are
// compiled once at construction, following the usual precompiled-regex
// filter layout.
type KeywordClassifier struct {
	combat    *regexp.Regexp
	dialogue  *regexp.Regexp
	speech    *regexp.Regexp
	discovery *regexp.Regexp
	hpChange  *regexp.Regexp
	sentences *regexp.Regexp
}

var _ Classifier = (*KeywordClassifier)(nil)

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		combat:    regexp.MustCompile(`(?i)\b(attacks?|strikes?|damage|initiative|parries|dodges|slashes|stabs|shoots|casts .* at|swings .* (at|axe|sword)|hits? (the|him|her|it)|battle|fight)\b`),
		dialogue:  regexp.MustCompile(`^\s*[A-Z][\w' ]{0,40}:\s*"`),
		speech:    regexp.MustCompile(`\b[A-Z][\w']+\s+(says|asks|replies|answers|whispers|shouts|tells|warns|offers|demands)\b`),
		discovery: regexp.MustCompile(`(?i)\b(discovers?|discovered|finds?|found|uncovers?|reveals?|revealed|searches|searched|hidden|secret (door|passage|compartment))\b`),
		hpChange:  regexp.MustCompile(`(?i)\b(takes? \d+ damage|\d+ hit points?|\d+ hp|restores? \d+|heals? \d+)\b`),
		sentences: regexp.MustCompile(`[^.!?\n]+[.!?]?`),
	}
}

// Classify scans a segment turn by turn and extracts typed, ranked
// events. Transition markers and prior summaries are skipped; they are
// engine bookkeeping, not play.
func (kc *KeywordClassifier) Classify(seg Segment) []Event {
	var events []Event
	for _, turn := range seg.Turns {
		if turn.IsTransition() || turn.Role == chat.ChatRoleSystem {
			continue
		}
		for _, sentence := range kc.sentences.FindAllString(turn.Content, -1) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			if event, ok := kc.classifySentence(sentence); ok {
				events = append(events, event)
			}
		}
	}
	return events
}

func (kc *KeywordClassifier) classifySentence(sentence string) (Event, bool) {
	for _, m := range criticalMarkers {
		if match := m.pattern.FindString(sentence); match != "" {
			return Event{
				Type:        m.eventType,
				Description: sentence,
				Importance:  ImportanceCritical,
				KeyTerms:    keyTerms(sentence, match),
			}, true
		}
	}

	switch {
	case kc.hpChange.MatchString(sentence):
		return Event{
			Type:        EventCharacterState,
			Description: sentence,
			Importance:  ImportanceImportant,
			KeyTerms:    keyTerms(sentence, ""),
		}, true
	case kc.combat.MatchString(sentence):
		return Event{Type: EventCombat, Description: sentence, Importance: ImportanceMinor}, true
	case kc.dialogue.MatchString(sentence) || kc.speech.MatchString(sentence):
		return Event{Type: EventNPCInteraction, Description: sentence, Importance: ImportanceMinor}, true
	case kc.discovery.MatchString(sentence):
		return Event{Type: EventDiscovery, Description: sentence, Importance: ImportanceMinor}, true
	}
	return Event{}, false
}

var sentenceStarters = map[string]bool{
	"the": true, "a": true, "an": true, "you": true, "he": true,
	"she": true, "it": true, "they": true, "with": true, "after": true,
	"then": true, "but": true, "and": true, "when": true, "your": true,
	"his": true, "her": true, "their": true, "there": true, "this": true,
	"that": true, "suddenly": true, "meanwhile": true, "as": true, "in": true,
}

// keyTerms picks the identifying words of a sentence: proper nouns plus
// the matched marker phrase's first word. These are the terms the
// compactor checks for survival in the summary.
func keyTerms(sentence, matched string) []string {
	seen := make(map[string]bool)
	var terms []string

	add := func(term string) {
		term = strings.Trim(term, `.,!?;:"'`)
		if len(term) < 3 {
			return
		}
		lower := strings.ToLower(term)
		if seen[lower] {
			return
		}
		seen[lower] = true
		terms = append(terms, term)
	}

	words := strings.Fields(sentence)
	for i, word := range words {
		runes := []rune(word)
		if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
			continue
		}
		// Sentence-initial capitalization is only evidence of a name
		// when the word isn't a common sentence starter.
		if i == 0 && sentenceStarters[strings.ToLower(strings.Trim(word, `.,!?;:"'`))] {
			continue
		}
		add(word)
	}

	if matched != "" {
		if fields := strings.Fields(matched); len(fields) > 0 {
			add(fields[0])
		}
	}

	return terms
}
