// Package experiment replicates pickup-point scenarios many times over
// derived seeds and reduces the per-run results into scenario statistics
// that can be compared side by side.
package experiment

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Kannorhart/PVZpunkt/sim"
)

// Experiment names a seed, a replication count, and the scenarios to put
// through it. Every scenario sees the same derived per-run seeds, so
// scenario differences are paired, not drowned in sampling noise.
type Experiment struct {
	Name      string       `yaml:"name"`
	Runs      int          `yaml:"runs"`
	Seed      int64        `yaml:"seed"`
	Scenarios []sim.Config `yaml:"scenarios"`
}

// LoadExperiment reads and parses a YAML experiment file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment: %w", err)
	}
	var e Experiment
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&e); err != nil {
		return nil, fmt.Errorf("parsing experiment: %w", err)
	}
	return &e, nil
}

// Validate checks the experiment and every scenario in it.
func (e *Experiment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if e.Runs < 1 {
		return fmt.Errorf("runs must be >= 1, got %d", e.Runs)
	}
	if len(e.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}
	seen := make(map[string]bool, len(e.Scenarios))
	for i := range e.Scenarios {
		cfg := &e.Scenarios[i]
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("scenarios[%d]: %w", i, err)
		}
		if seen[cfg.Name] {
			return fmt.Errorf("scenarios[%d]: duplicate scenario name %q", i, cfg.Name)
		}
		seen[cfg.Name] = true
	}
	return nil
}

// TotalRuns is the number of simulation runs the experiment will execute.
func (e *Experiment) TotalRuns() int {
	return e.Runs * len(e.Scenarios)
}

// DefaultExperiment is the canonical peak-hour study: baseline counters,
// counters plus terminals, and terminals under the bee balancer, each
// replicated 500 times from seed 42.
func DefaultExperiment() *Experiment {
	return &Experiment{
		Name: "pvz-peak-hour",
		Runs: 500,
		Seed: 42,
		Scenarios: []sim.Config{
			*sim.BaselineConfig(),
			*sim.SelfServiceConfig(),
			*sim.BeeConfig(),
		},
	}
}
