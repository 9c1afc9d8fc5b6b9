package conversation

import (
	"fmt"
	"strings"

	"github.com/campaignforge/dmengine/pkg/chat"
)

// SummaryPrefix marks summary turns produced by compaction, so a summary
// is never re-compacted as ordinary play.
const SummaryPrefix = "Recap of earlier play: "

// estimatedCharsPerToken is the rough character-to-token ratio used for
// budget checks. Exact tokenizer counts are not needed here; the budget
// only decides when to compact.
const estimatedCharsPerToken = 4

// Segment is a bounded run of turn records between two location-transition
// markers. It is owned by the compaction pipeline for the duration of one
// pass; the log remains the store of truth.
type Segment struct {
	Start int // Index of the first turn in the log
	End   int // Index one past the last turn (the closing marker's index)
	From  string
	To    string
	Turns []chat.ChatMessage
}

// Text returns the raw segment transcript fed to the summarizer.
func (s Segment) Text() string {
	var sb strings.Builder
	for _, turn := range s.Turns {
		sb.WriteString(turn.Role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Log is the ordered conversation history for one game session. It is
// owned by the session and never mutated concurrently; play is strictly
// turn-based.
type Log struct {
	Turns []chat.ChatMessage `json:"turns"`
}

func NewLog() *Log {
	return &Log{Turns: make([]chat.ChatMessage, 0)}
}

// Append adds a turn record to the end of the log.
func (l *Log) Append(role, content string) {
	l.Turns = append(l.Turns, chat.ChatMessage{Role: role, Content: content})
}

// AppendMessage adds a prebuilt turn record to the end of the log.
func (l *Log) AppendMessage(msg chat.ChatMessage) {
	l.Turns = append(l.Turns, msg)
}

// MarkTransition closes the current segment with a location-transition
// marker.
func (l *Log) MarkTransition(from, to string) {
	l.Turns = append(l.Turns, chat.TransitionMessage(from, to))
}

// EstimatedTokens returns the approximate token footprint of the log.
func (l *Log) EstimatedTokens() int {
	chars := 0
	for _, turn := range l.Turns {
		chars += len(turn.Content)
	}
	return chars / estimatedCharsPerToken
}

// NeedsCompaction reports whether the log has outgrown the token budget.
func (l *Log) NeedsCompaction(threshold int) bool {
	return threshold > 0 && l.EstimatedTokens() > threshold
}

// OldestSegment returns the earliest closed segment that still holds
// uncompacted turns. Summary turns left by earlier passes are skipped,
// never re-compacted, so after one segment collapses to its summary the
// next closed segment becomes eligible. Returns ok=false when every
// closed segment has already been compacted, or none has been closed.
func (l *Log) OldestSegment() (Segment, bool) {
	start := 0
	for i, turn := range l.Turns {
		if !turn.IsTransition() {
			continue
		}
		for start < i && strings.HasPrefix(l.Turns[start].Content, SummaryPrefix) {
			start++
		}
		if start < i {
			marker := turn.Transition
			return Segment{
				Start: start,
				End:   i,
				From:  marker.From,
				To:    marker.To,
				Turns: l.Turns[start:i],
			}, true
		}
		start = i + 1
	}
	return Segment{}, false
}

// ReplaceSegment swaps the segment's turn range for a single summary
// turn. This is one-way and lossy; archival of raw history is an
// external concern. The transition marker that closed the segment is
// kept in place.
func (l *Log) ReplaceSegment(seg Segment, summary string) error {
	if seg.Start < 0 || seg.End > len(l.Turns) || seg.Start >= seg.End {
		return fmt.Errorf("segment range [%d, %d) out of bounds for log of %d turns", seg.Start, seg.End, len(l.Turns))
	}

	summaryTurn := chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: SummaryPrefix + summary,
	}

	replaced := make([]chat.ChatMessage, 0, len(l.Turns)-(seg.End-seg.Start)+1)
	replaced = append(replaced, l.Turns[:seg.Start]...)
	replaced = append(replaced, summaryTurn)
	replaced = append(replaced, l.Turns[seg.End:]...)
	l.Turns = replaced
	return nil
}
