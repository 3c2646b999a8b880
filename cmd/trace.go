package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kannorhart/PVZpunkt/sim"
	"github.com/Kannorhart/PVZpunkt/sim/trace"
)

var (
	traceScenario string // canonical scenario name
	traceConfig   string // scenario YAML path, overrides --scenario
	traceSeed     int64  // master seed
	traceRun      int    // replication index to replay
	traceLevel    string // trace verbosity
	traceOut      string // JSONL destination, empty = stdout
)

// canonicalConfig resolves the built-in scenario names.
func canonicalConfig(name string) (*sim.Config, error) {
	switch name {
	case "baseline":
		return sim.BaselineConfig(), nil
	case "self_service":
		return sim.SelfServiceConfig(), nil
	case "bee":
		return sim.BeeConfig(), nil
	default:
		return nil, fmt.Errorf("unknown scenario %q; valid: baseline, self_service, bee", name)
	}
}

// traceCmd replays a single run of the experiment and writes its trace.
// --seed and --run address the exact run: replaying run 17 of an
// experiment means passing the experiment's seed and --run 17.
var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Replay one run and write its JSONL trace",
	Run: func(cmd *cobra.Command, args []string) {
		var cfg *sim.Config
		var err error
		if traceConfig != "" {
			cfg, err = sim.LoadConfig(traceConfig)
		} else {
			cfg, err = canonicalConfig(traceScenario)
		}
		if err != nil {
			logrus.Fatalf("Could not resolve scenario: %v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q; valid: none, customers, decisions", traceLevel)
		}
		if traceRun < 0 {
			logrus.Fatalf("Run index must be >= 0, got %d", traceRun)
		}

		key := sim.DeriveRunSeed(traceSeed, traceRun)
		s, err := sim.NewSimulation(cfg, key)
		if err != nil {
			logrus.Fatalf("Could not build simulation: %v", err)
		}
		s.Trace = trace.NewSimulationTrace(trace.TraceLevel(traceLevel))

		result := s.Run()
		logrus.Infof("scenario %s run %d: arrived %d, served %d, abandoned %d, mean wait %.2f min",
			cfg.Name, traceRun, result.Arrived, result.Served, result.Abandoned, result.WaitMin.Mean)

		out := os.Stdout
		if traceOut != "" {
			out, err = os.Create(traceOut)
			if err != nil {
				logrus.Fatalf("Could not create trace file: %v", err)
			}
			defer func() {
				if closeErr := out.Close(); closeErr != nil {
					logrus.Errorf("Error closing trace file %s: %v", traceOut, closeErr)
				}
			}()
		}
		if err := s.Trace.WriteJSONL(out); err != nil {
			logrus.Fatalf("Could not write trace: %v", err)
		}

		summary := trace.Summarize(s.Trace)
		logrus.Infof("trace: %d customers (%d served, %d abandoned), zones %v",
			summary.Customers, summary.Served, summary.Abandoned, summary.ZoneDistribution)
	},
}

// init sets up CLI flags and attaches `trace` to `root`
func init() {
	traceCmd.Flags().StringVar(&traceScenario, "scenario", "bee", "Canonical scenario (baseline, self_service, bee)")
	traceCmd.Flags().StringVar(&traceConfig, "config", "", "Scenario YAML path (overrides --scenario)")
	traceCmd.Flags().Int64Var(&traceSeed, "seed", 42, "Master seed (same meaning as in `run`)")
	traceCmd.Flags().IntVar(&traceRun, "run", 0, "Replication index to replay")
	traceCmd.Flags().StringVar(&traceLevel, "level", string(trace.TraceLevelDecisions), "Trace level (none, customers, decisions)")
	traceCmd.Flags().StringVar(&traceOut, "out", "", "Trace JSONL destination (default stdout)")

	rootCmd.AddCommand(traceCmd)
}
