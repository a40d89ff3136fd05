package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDispatches    int            `json:"total_dispatches"`
	ConsumerDispatches int            `json:"consumer_dispatches"`
	UniqueTargets      int            `json:"unique_targets"`
	TargetDistribution map[int]int    `json:"target_distribution"` // target entity ID → tasks placed there
	UnitsByTarget      map[int]int    `json:"units_by_target"`     // target entity ID → task units placed there
	PolicyCounts       map[string]int `json:"policy_counts"`       // policy name → decisions made
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[int]int),
		UnitsByTarget:      make(map[int]int),
		PolicyCounts:       make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDispatches = len(st.Dispatches)
	for _, d := range st.Dispatches {
		if d.ToConsumer {
			summary.ConsumerDispatches++
		}
		summary.TargetDistribution[d.TargetID]++
		summary.UnitsByTarget[d.TargetID] += d.TaskUnits
		summary.PolicyCounts[d.Policy]++
	}
	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
