package conversation

// Strategy identifies one compaction template.
type Strategy string

const (
	// StrategyEmergency keeps only critical-importance events and
	// discards all narrative color. Selected whenever the required
	// compression is aggressive, regardless of event mix.
	StrategyEmergency Strategy = "emergency"

	StrategyCombatHeavy        Strategy = "combat_heavy"
	StrategyNPCHeavy           Strategy = "npc_heavy"
	StrategyExplorationHeavy   Strategy = "exploration_heavy"
	StrategyComprehensive      Strategy = "comprehensive"
	StrategyLocationTransition Strategy = "location_transition"
)

const (
	// emergencyRatioThreshold is the compression ratio above which the
	// emergency strategy is forced.
	emergencyRatioThreshold = 0.7

	// dominantShareThreshold is the fractional share one event type must
	// exceed for a specialized strategy.
	dominantShareThreshold = 0.6

	// busySegmentEventCount is the event count above which a mixed
	// segment gets the comprehensive strategy.
	busySegmentEventCount = 10
)

// SelectStrategy picks exactly one strategy for any event list (including
// empty) and any ratio. Zero extracted events default to the baseline,
// never emergency: absence of detected events is not evidence of high
// compression need.
func SelectStrategy(events []Event, compressionRatio float64) Strategy {
	if compressionRatio > emergencyRatioThreshold {
		return StrategyEmergency
	}

	if len(events) > 0 {
		counts := make(map[EventType]int)
		for _, e := range events {
			counts[e.Type]++
		}
		total := float64(len(events))

		if float64(counts[EventCombat])/total > dominantShareThreshold {
			return StrategyCombatHeavy
		}
		if float64(counts[EventNPCInteraction])/total > dominantShareThreshold {
			return StrategyNPCHeavy
		}
		if float64(counts[EventDiscovery])/total > dominantShareThreshold {
			return StrategyExplorationHeavy
		}
		if len(events) > busySegmentEventCount {
			return StrategyComprehensive
		}
	}

	return StrategyLocationTransition
}
