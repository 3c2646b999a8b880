package experiment

import (
	"gonum.org/v1/gonum/stat"

	"github.com/Kannorhart/PVZpunkt/sim"
)

// SampleStat summarizes one metric across replications: the mean, the
// sample standard deviation, and the half-width of a 95% confidence
// interval on the mean. StdDev and CI95 are zero for fewer than two runs.
type SampleStat struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	CI95   float64 `json:"ci95"`
}

// NewSampleStat computes a SampleStat from per-run values.
func NewSampleStat(values []float64) SampleStat {
	if len(values) == 0 {
		return SampleStat{}
	}
	mean, std := stat.MeanStdDev(values, nil)
	s := SampleStat{Mean: mean}
	if len(values) > 1 {
		s.StdDev = std
		s.CI95 = 1.96 * stat.StdErr(std, float64(len(values)))
	}
	return s
}

// ScenarioResult is one scenario reduced across all its replications.
// Wait statistics aggregate per-run figures computed over served
// customers; abandonment shows up in the counters, never in the waits.
type ScenarioResult struct {
	Scenario string `json:"scenario"`
	Policy   string `json:"policy"`
	Runs     int    `json:"runs"`

	MeanWaitMin       SampleStat `json:"mean_wait_min"`
	P95WaitMin        SampleStat `json:"p95_wait_min"`
	MeanSojournMin    SampleStat `json:"mean_sojourn_min"`
	ThroughputPerHour SampleStat `json:"throughput_per_hour"`
	ServedPerRun      SampleStat `json:"served_per_run"`
	AbandonedPerRun   SampleStat `json:"abandoned_per_run"`
	DelayedPerRun     SampleStat `json:"delayed_per_run"`

	// PoolUtilization maps pool name to its utilization across runs;
	// ZoneShare maps zone name to the fraction of arrivals routed there.
	PoolUtilization map[string]SampleStat `json:"pool_utilization"`
	ZoneShare       map[string]SampleStat `json:"zone_share"`

	// RunResults keeps the raw per-run outcomes for tests and ad-hoc
	// digging. They are deliberately left out of serialized reports.
	RunResults []*sim.RunResult `json:"-"`
}

// Reduce folds per-run results into a ScenarioResult. It is a pure
// function of its inputs: no randomness, no clock, no I/O.
func Reduce(cfg *sim.Config, results []*sim.RunResult) *ScenarioResult {
	policy := cfg.Policy
	if policy == "" {
		policy = sim.PolicyStatic
	}
	sr := &ScenarioResult{
		Scenario:        cfg.Name,
		Policy:          policy,
		Runs:            len(results),
		PoolUtilization: make(map[string]SampleStat),
		ZoneShare:       make(map[string]SampleStat),
		RunResults:      results,
	}

	n := len(results)
	meanWaits := make([]float64, n)
	p95Waits := make([]float64, n)
	meanSojourns := make([]float64, n)
	throughputs := make([]float64, n)
	served := make([]float64, n)
	abandoned := make([]float64, n)
	delayed := make([]float64, n)
	for i, r := range results {
		meanWaits[i] = r.WaitMin.Mean
		p95Waits[i] = r.WaitMin.P95
		meanSojourns[i] = r.SojournMin.Mean
		throughputs[i] = r.ThroughputPerHour
		served[i] = float64(r.Served)
		abandoned[i] = float64(r.Abandoned)
		delayed[i] = float64(r.Delayed)
	}
	sr.MeanWaitMin = NewSampleStat(meanWaits)
	sr.P95WaitMin = NewSampleStat(p95Waits)
	sr.MeanSojournMin = NewSampleStat(meanSojourns)
	sr.ThroughputPerHour = NewSampleStat(throughputs)
	sr.ServedPerRun = NewSampleStat(served)
	sr.AbandonedPerRun = NewSampleStat(abandoned)
	sr.DelayedPerRun = NewSampleStat(delayed)

	if n == 0 {
		return sr
	}
	for p := range results[0].Pools {
		name := results[0].Pools[p].Name
		utils := make([]float64, n)
		for i, r := range results {
			utils[i] = r.Pools[p].Utilization
		}
		sr.PoolUtilization[name] = NewSampleStat(utils)
	}
	for z := range results[0].Zones {
		name := results[0].Zones[z].Name
		shares := make([]float64, n)
		for i, r := range results {
			if r.Arrived > 0 {
				shares[i] = float64(r.Zones[z].Routed) / float64(r.Arrived)
			}
		}
		sr.ZoneShare[name] = NewSampleStat(shares)
	}
	return sr
}

// Comparison quantifies one scenario against a reference scenario.
// Negative wait change means the scenario waits less than the reference.
type Comparison struct {
	Scenario            string  `json:"scenario"`
	Reference           string  `json:"reference"`
	WaitChangePct       float64 `json:"wait_change_pct"`
	ThroughputChangePct float64 `json:"throughput_change_pct"`
	AbandonedChangePct  float64 `json:"abandoned_change_pct"`
}

// Compare computes the relative change of s against ref.
func Compare(ref, s *ScenarioResult) Comparison {
	return Comparison{
		Scenario:            s.Scenario,
		Reference:           ref.Scenario,
		WaitChangePct:       percentChange(ref.MeanWaitMin.Mean, s.MeanWaitMin.Mean),
		ThroughputChangePct: percentChange(ref.ThroughputPerHour.Mean, s.ThroughputPerHour.Mean),
		AbandonedChangePct:  percentChange(ref.AbandonedPerRun.Mean, s.AbandonedPerRun.Mean),
	}
}

// percentChange returns the relative change from old to new in percent.
// A zero reference yields 0 rather than an infinity.
func percentChange(old, new float64) float64 {
	if old == 0 {
		return 0
	}
	return (new - old) / old * 100
}
