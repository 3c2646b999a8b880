package experiment

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Kannorhart/PVZpunkt/sim"
	"github.com/Kannorhart/PVZpunkt/sim/workload"
)

// fastScenario returns a small scenario that finishes in well under a
// millisecond per run, so replication tests stay cheap.
func fastScenario() *sim.Config {
	return &sim.Config{
		Name:        "fast",
		HorizonMins: 20,
		Arrivals: workload.DistSpec{
			Type:   "poisson",
			Params: map[string]float64{"rate": 1.0},
		},
		Service: workload.DistSpec{
			Type:   "normal",
			Params: map[string]float64{"mean": 1.5, "std_dev": 0.4, "floor": 0.1},
		},
		Delay: sim.DelayConfig{
			Probability: 0.1,
			Duration: workload.DistSpec{
				Type:   "uniform",
				Params: map[string]float64{"min": 1.0, "max": 2.0},
			},
		},
		Pools: []sim.PoolConfig{
			{Name: "counters", Kind: string(sim.KindStaffed), Capacity: 2},
		},
	}
}

func TestRunScenario_RejectsZeroRuns(t *testing.T) {
	_, err := RunScenario(context.Background(), fastScenario(), 0, 42, nil)
	if err == nil {
		t.Fatal("RunScenario with 0 runs = nil error, want error")
	}
	if !strings.Contains(err.Error(), "runs must be >= 1") {
		t.Errorf("error = %q, want mention of run count", err.Error())
	}
}

func TestRunScenario_RejectsInvalidConfig(t *testing.T) {
	cfg := fastScenario()
	cfg.Pools = nil
	if _, err := RunScenario(context.Background(), cfg, 3, 42, nil); err == nil {
		t.Error("RunScenario with invalid config = nil error, want error")
	}
}

func TestRunScenario_Deterministic(t *testing.T) {
	// The worker pool must not leak scheduling order into the output:
	// two executions of the same scenario reduce to identical statistics
	// and identical per-run results.
	first, err := RunScenario(context.Background(), fastScenario(), 8, 42, nil)
	if err != nil {
		t.Fatalf("first execution failed: %v", err)
	}
	second, err := RunScenario(context.Background(), fastScenario(), 8, 42, nil)
	if err != nil {
		t.Fatalf("second execution failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same scenario, runs, and seed produced different results:\nfirst:  %+v\nsecond: %+v",
			first, second)
	}
}

func TestRunScenario_PerRunSeeds(t *testing.T) {
	const masterSeed = 42
	sr, err := RunScenario(context.Background(), fastScenario(), 5, masterSeed, nil)
	if err != nil {
		t.Fatalf("RunScenario failed: %v", err)
	}
	if len(sr.RunResults) != 5 {
		t.Fatalf("got %d run results, want 5", len(sr.RunResults))
	}
	// Results sit at their run index regardless of which worker ran them.
	for i, r := range sr.RunResults {
		want := int64(sim.DeriveRunSeed(masterSeed, i))
		if r.Seed != want {
			t.Errorf("run %d has seed %d, want %d", i, r.Seed, want)
		}
	}
}

func TestRunScenario_PairedSeedsAcrossScenarios(t *testing.T) {
	// Two scenarios that differ only in routing policy see the same
	// derived keys, hence the same arrival streams run for run.
	static := fastScenario()
	bee := fastScenario()
	bee.Name = "fast-bee"
	bee.Policy = sim.PolicyBee

	srStatic, err := RunScenario(context.Background(), static, 6, 42, nil)
	if err != nil {
		t.Fatalf("static scenario failed: %v", err)
	}
	srBee, err := RunScenario(context.Background(), bee, 6, 42, nil)
	if err != nil {
		t.Fatalf("bee scenario failed: %v", err)
	}

	for i := range srStatic.RunResults {
		if srStatic.RunResults[i].Seed != srBee.RunResults[i].Seed {
			t.Errorf("run %d: seeds diverge across scenarios: %d vs %d",
				i, srStatic.RunResults[i].Seed, srBee.RunResults[i].Seed)
		}
		if srStatic.RunResults[i].Arrived != srBee.RunResults[i].Arrived {
			t.Errorf("run %d: arrival counts diverge across scenarios: %d vs %d",
				i, srStatic.RunResults[i].Arrived, srBee.RunResults[i].Arrived)
		}
	}
}

func TestRunScenario_CallbackPerRun(t *testing.T) {
	var calls atomic.Int64
	_, err := RunScenario(context.Background(), fastScenario(), 7, 42, func() {
		calls.Add(1)
	})
	if err != nil {
		t.Fatalf("RunScenario failed: %v", err)
	}
	if got := calls.Load(); got != 7 {
		t.Errorf("onRun called %d times, want 7", got)
	}
}

func TestRunScenario_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunScenario(ctx, fastScenario(), 50, 42, nil)
	if err == nil {
		t.Fatal("RunScenario with cancelled context = nil error, want error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in its chain", err)
	}
	if !strings.Contains(err.Error(), `scenario "fast"`) {
		t.Errorf("error = %q, want the scenario name in the message", err.Error())
	}
}

func TestExperiment_Run(t *testing.T) {
	static := fastScenario()
	bee := fastScenario()
	bee.Name = "fast-bee"
	bee.Policy = sim.PolicyBee

	e := &Experiment{
		Name:      "mini-study",
		Runs:      3,
		Seed:      7,
		Scenarios: []sim.Config{*static, *bee},
	}

	report, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Name != "mini-study" {
		t.Errorf("report Name = %q, want %q", report.Name, "mini-study")
	}
	if report.Seed != 7 || report.Runs != 3 {
		t.Errorf("report Seed/Runs = %d/%d, want 7/3", report.Seed, report.Runs)
	}
	if report.ID == "" {
		t.Error("report ID is empty, want a generated identifier")
	}
	if report.CreatedAt.IsZero() {
		t.Error("report CreatedAt is zero, want a timestamp")
	}

	if len(report.Scenarios) != 2 {
		t.Fatalf("got %d scenario results, want 2", len(report.Scenarios))
	}
	for _, sr := range report.Scenarios {
		if sr.Runs != 3 {
			t.Errorf("scenario %q reduced %d runs, want 3", sr.Scenario, sr.Runs)
		}
	}

	if len(report.Comparisons) != 1 {
		t.Fatalf("got %d comparisons, want 1", len(report.Comparisons))
	}
	c := report.Comparisons[0]
	if c.Reference != "fast" || c.Scenario != "fast-bee" {
		t.Errorf("comparison = %q vs reference %q, want fast-bee vs fast", c.Scenario, c.Reference)
	}
}

func TestExperiment_Run_InvalidExperiment(t *testing.T) {
	e := &Experiment{Name: "broken", Runs: 0, Scenarios: []sim.Config{*fastScenario()}}
	if _, err := e.Run(context.Background(), nil); err == nil {
		t.Error("Run on an invalid experiment = nil error, want error")
	}
}
