package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Customers        int
	Served           int
	Abandoned        int
	Delayed          int
	MeanWaitMin      float64        // over served customers only
	MaxWaitMin       float64        // over served customers only
	ZoneDistribution map[string]int // zone name → customers routed there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ZoneDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.Customers = len(st.Customers)
	totalWait := 0.0
	served := 0
	for _, c := range st.Customers {
		if c.Zone != "" {
			summary.ZoneDistribution[c.Zone]++
		}
		if c.Delayed {
			summary.Delayed++
		}
		if c.Outcome == "SERVED" {
			served++
			totalWait += c.WaitMin
			if c.WaitMin > summary.MaxWaitMin {
				summary.MaxWaitMin = c.WaitMin
			}
		} else {
			summary.Abandoned++
		}
	}
	summary.Served = served
	if served > 0 {
		summary.MeanWaitMin = totalWait / float64(served)
	}

	return summary
}
