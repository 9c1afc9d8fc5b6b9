package conversation

// EventType tags the dominant activity an extracted fact belongs to.
type EventType string

const (
	EventCombat         EventType = "combat"
	EventNPCInteraction EventType = "npc_interaction"
	EventDiscovery      EventType = "discovery"
	EventCharacterState EventType = "character_state"
	EventPlot           EventType = "plot"
)

// Importance ranks how strongly a fact must survive compaction.
type Importance string

const (
	ImportanceMinor     Importance = "minor"
	ImportanceImportant Importance = "important"
	ImportanceCritical  Importance = "critical"
)

// Event is a fact extracted from a conversation segment. Events are
// ephemeral, derived per compaction pass; they drive strategy selection
// and seed the preserve-these-facts instruction set, and are never
// persisted on their own.
type Event struct {
	Type        EventType  `json:"type"`
	Description string     `json:"description"`
	Importance  Importance `json:"importance"`
	KeyTerms    []string   `json:"key_terms,omitempty"` // Terms that must survive compaction
}

// IsCritical reports whether the event must never be dropped during
// compression.
func (e Event) IsCritical() bool {
	return e.Importance == ImportanceCritical
}

// CriticalEvents filters a list down to the must-preserve set.
func CriticalEvents(events []Event) []Event {
	var critical []Event
	for _, e := range events {
		if e.IsCritical() {
			critical = append(critical, e)
		}
	}
	return critical
}
