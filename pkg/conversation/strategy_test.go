package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func eventsOf(counts map[EventType]int) []Event {
	var events []Event
	for eventType, n := range counts {
		for i := 0; i < n; i++ {
			events = append(events, Event{Type: eventType, Importance: ImportanceMinor})
		}
	}
	return events
}

func TestSelectStrategy_EmergencyOverridesEverything(t *testing.T) {
	ratios := []float64{0.71, 0.8, 0.99, 1.0}
	eventLists := [][]Event{
		nil,
		{},
		eventsOf(map[EventType]int{EventCombat: 10}),
		eventsOf(map[EventType]int{EventNPCInteraction: 3, EventDiscovery: 3, EventCombat: 6}),
	}

	for _, ratio := range ratios {
		for _, events := range eventLists {
			assert.Equal(t, StrategyEmergency, SelectStrategy(events, ratio),
				"ratio %.2f must force emergency", ratio)
		}
	}
}

func TestSelectStrategy_DominantType(t *testing.T) {
	tests := []struct {
		name   string
		counts map[EventType]int
		want   Strategy
	}{
		{"combat dominant", map[EventType]int{EventCombat: 7, EventNPCInteraction: 3}, StrategyCombatHeavy},
		{"npc dominant", map[EventType]int{EventNPCInteraction: 5, EventDiscovery: 1}, StrategyNPCHeavy},
		{"exploration dominant", map[EventType]int{EventDiscovery: 4, EventCombat: 1}, StrategyExplorationHeavy},
		{"exactly 0.6 is not dominant", map[EventType]int{EventCombat: 9, EventDiscovery: 6}, StrategyComprehensive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(eventsOf(tt.counts), 0.5))
		})
	}
}

func TestSelectStrategy_BusyMixedSegment(t *testing.T) {
	events := eventsOf(map[EventType]int{
		EventCombat:         4,
		EventNPCInteraction: 4,
		EventDiscovery:      3,
	})
	assert.Equal(t, StrategyComprehensive, SelectStrategy(events, 0.5))
}

func TestSelectStrategy_QuietSegmentDefaults(t *testing.T) {
	events := eventsOf(map[EventType]int{
		EventCombat:         2,
		EventNPCInteraction: 2,
		EventDiscovery:      1,
	})
	assert.Equal(t, StrategyLocationTransition, SelectStrategy(events, 0.5))
}

func TestSelectStrategy_ZeroEventsNeverEmergency(t *testing.T) {
	// Absence of detected events is not evidence of high compression need.
	assert.Equal(t, StrategyLocationTransition, SelectStrategy(nil, 0.0))
	assert.Equal(t, StrategyLocationTransition, SelectStrategy([]Event{}, 0.7))
}

// SelectStrategy must be total: any event list and any ratio in [0, 1]
// yields exactly one defined strategy identifier.
func TestSelectStrategy_Total(t *testing.T) {
	defined := map[Strategy]bool{
		StrategyEmergency:          true,
		StrategyCombatHeavy:        true,
		StrategyNPCHeavy:           true,
		StrategyExplorationHeavy:   true,
		StrategyComprehensive:      true,
		StrategyLocationTransition: true,
	}

	types := []EventType{EventCombat, EventNPCInteraction, EventDiscovery, EventCharacterState, EventPlot}
	for ratioStep := 0; ratioStep <= 10; ratioStep++ {
		ratio := float64(ratioStep) / 10.0
		for n := 0; n <= 15; n++ {
			events := make([]Event, 0, n)
			for i := 0; i < n; i++ {
				events = append(events, Event{Type: types[i%len(types)]})
			}
			got := SelectStrategy(events, ratio)
			assert.True(t, defined[got], "undefined strategy %q for ratio %.1f, %d events", got, ratio, n)
			// Idempotent for identical inputs.
			assert.Equal(t, got, SelectStrategy(events, ratio))
		}
	}
}
