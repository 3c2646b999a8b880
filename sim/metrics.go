package sim

import (
	"math"
	"sort"
)

// Distribution captures a statistical summary of a metric. Values carry
// the unit the caller fed in (minutes everywhere below).
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return Distribution{
		Mean:  sum / float64(len(sorted)),
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
		P99:   percentile(sorted, 99),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// percentile computes the p-th percentile using linear interpolation.
// Input must be sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// PoolStats summarizes one pool over a run.
type PoolStats struct {
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Capacity     int     `json:"capacity"`
	Served       int     `json:"served"`
	Utilization  float64 `json:"utilization"`
	AvgQueueLen  float64 `json:"avg_queue_len"`
	PeakQueueLen int     `json:"peak_queue_len"`
}

// ZoneStats summarizes one routing zone over a run.
type ZoneStats struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Routed int    `json:"routed"`
}

// RunResult is the complete outcome of one run. Equal configs and seeds
// produce equal RunResults, which is what the determinism tests assert.
type RunResult struct {
	Seed        int64   `json:"seed"`
	DurationMin float64 `json:"duration_min"` // clock at the last processed event

	Arrived   int `json:"arrived"`
	Served    int `json:"served"`
	Abandoned int `json:"abandoned"` // balked + reneged + flushed
	Balked    int `json:"balked"`
	Reneged   int `json:"reneged"`
	Flushed   int `json:"flushed"`
	Delayed   int `json:"delayed"`

	// Waiting and sojourn summaries cover served customers only;
	// abandoned customers are reported through the counters above.
	WaitMin    Distribution `json:"wait_min"`
	SojournMin Distribution `json:"sojourn_min"`

	ThroughputPerHour float64 `json:"throughput_per_hour"`

	Pools []PoolStats `json:"pools"`
	Zones []ZoneStats `json:"zones"`
}

// computeResult assembles the RunResult after the event loop has drained
// and pool accounting is finalized.
func (sim *Simulation) computeResult() *RunResult {
	result := &RunResult{
		Seed:        int64(sim.rng.Key()),
		DurationMin: TicksToMinutes(sim.Clock),
		Arrived:     sim.arrived,
		Served:      sim.served,
		Abandoned:   sim.balked + sim.reneged + sim.flushed,
		Balked:      sim.balked,
		Reneged:     sim.reneged,
		Flushed:     sim.flushed,
		Delayed:     sim.delayed,
	}

	waits := make([]float64, 0, sim.served)
	sojourns := make([]float64, 0, sim.served)
	for _, c := range sim.Customers {
		if c.State != CustomerStateServed {
			continue
		}
		waits = append(waits, TicksToMinutes(c.WaitTicks()))
		sojourns = append(sojourns, TicksToMinutes(c.SojournTicks()))
	}
	result.WaitMin = NewDistribution(waits)
	result.SojournMin = NewDistribution(sojourns)

	if sim.Clock > 0 {
		result.ThroughputPerHour = float64(sim.served) / (TicksToMinutes(sim.Clock) / 60.0)
	}

	for _, p := range sim.Pools {
		result.Pools = append(result.Pools, PoolStats{
			Name:         p.Name,
			Kind:         string(p.Kind),
			Capacity:     p.Capacity,
			Served:       p.Served(),
			Utilization:  p.Utilization(sim.Clock),
			AvgQueueLen:  p.AvgQueueLen(sim.Clock),
			PeakQueueLen: p.PeakQueueLen(),
		})
	}
	for _, z := range sim.Zones {
		result.Zones = append(result.Zones, ZoneStats{
			Name:   z.Name,
			Kind:   string(z.Kind),
			Routed: z.Routed,
		})
	}

	return result
}
