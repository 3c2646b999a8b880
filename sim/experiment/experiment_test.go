package experiment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultExperiment(t *testing.T) {
	e := DefaultExperiment()

	if e.Name != "pvz-peak-hour" {
		t.Errorf("Name = %q, want %q", e.Name, "pvz-peak-hour")
	}
	if e.Runs != 500 {
		t.Errorf("Runs = %d, want 500", e.Runs)
	}
	if e.Seed != 42 {
		t.Errorf("Seed = %d, want 42", e.Seed)
	}
	wantScenarios := []string{"baseline", "self_service", "bee"}
	if len(e.Scenarios) != len(wantScenarios) {
		t.Fatalf("got %d scenarios, want %d", len(e.Scenarios), len(wantScenarios))
	}
	for i, want := range wantScenarios {
		if e.Scenarios[i].Name != want {
			t.Errorf("Scenarios[%d].Name = %q, want %q", i, e.Scenarios[i].Name, want)
		}
	}

	if err := e.Validate(); err != nil {
		t.Errorf("default experiment failed validation: %v", err)
	}
}

func TestExperiment_TotalRuns(t *testing.T) {
	e := DefaultExperiment()
	if got := e.TotalRuns(); got != 1500 {
		t.Errorf("TotalRuns() = %d, want 1500", got)
	}

	e.Runs = 10
	e.Scenarios = e.Scenarios[:1]
	if got := e.TotalRuns(); got != 10 {
		t.Errorf("TotalRuns() = %d, want 10", got)
	}
}

func TestExperiment_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Experiment)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(e *Experiment) { e.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "zero runs",
			mutate:  func(e *Experiment) { e.Runs = 0 },
			wantErr: "runs must be >= 1",
		},
		{
			name:    "negative runs",
			mutate:  func(e *Experiment) { e.Runs = -5 },
			wantErr: "runs must be >= 1",
		},
		{
			name:    "no scenarios",
			mutate:  func(e *Experiment) { e.Scenarios = nil },
			wantErr: "at least one scenario",
		},
		{
			name:    "invalid scenario reported with its index",
			mutate:  func(e *Experiment) { e.Scenarios[1].Pools = nil },
			wantErr: "scenarios[1]:",
		},
		{
			name: "duplicate scenario names",
			mutate: func(e *Experiment) {
				e.Scenarios[2].Name = e.Scenarios[0].Name
			},
			wantErr: "duplicate scenario name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DefaultExperiment()
			tt.mutate(e)
			err := e.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want error containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadExperiment_ValidYAML(t *testing.T) {
	content := `
name: peak-hour-mini
runs: 25
seed: 7
scenarios:
  - name: counters-only
    horizon_minutes: 60
    arrivals:
      type: poisson
      params:
        rate: 1.0
    service:
      type: normal
      params:
        mean: 2.0
        std_dev: 0.5
        floor: 0.1
    delay:
      probability: 0.1
      duration:
        type: uniform
        params:
          min: 1.0
          max: 5.0
    adoption: 0.0
    pools:
      - name: counters
        kind: staffed
        capacity: 3
`
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	e, err := LoadExperiment(path)
	if err != nil {
		t.Fatalf("LoadExperiment failed: %v", err)
	}
	if e.Name != "peak-hour-mini" {
		t.Errorf("Name = %q, want %q", e.Name, "peak-hour-mini")
	}
	if e.Runs != 25 {
		t.Errorf("Runs = %d, want 25", e.Runs)
	}
	if e.Seed != 7 {
		t.Errorf("Seed = %d, want 7", e.Seed)
	}
	if len(e.Scenarios) != 1 {
		t.Fatalf("got %d scenarios, want 1", len(e.Scenarios))
	}
	cfg := e.Scenarios[0]
	if cfg.Name != "counters-only" {
		t.Errorf("scenario Name = %q, want %q", cfg.Name, "counters-only")
	}
	if cfg.HorizonMins != 60 {
		t.Errorf("HorizonMins = %v, want 60", cfg.HorizonMins)
	}
	if cfg.Arrivals.Params["rate"] != 1.0 {
		t.Errorf("arrival rate = %v, want 1.0", cfg.Arrivals.Params["rate"])
	}
	if len(cfg.Pools) != 1 || cfg.Pools[0].Name != "counters" {
		t.Errorf("Pools = %+v, want one pool named counters", cfg.Pools)
	}

	if err := e.Validate(); err != nil {
		t.Errorf("loaded experiment failed validation: %v", err)
	}
}

func TestLoadExperiment_UnknownKeyRejected(t *testing.T) {
	// "runz" is a typo for "runs" and must be caught, not ignored.
	content := `
name: typo
runz: 3
seed: 1
`
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := LoadExperiment(path); err == nil {
		t.Error("LoadExperiment accepted an unknown key, want parse error")
	}
}

func TestLoadExperiment_MissingFile(t *testing.T) {
	if _, err := LoadExperiment(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadExperiment on a missing file = nil error, want error")
	}
}
