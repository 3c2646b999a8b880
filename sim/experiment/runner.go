package experiment

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kannorhart/PVZpunkt/sim"
)

// RunScenario replicates one scenario runs times, seeding run i with
// sim.DeriveRunSeed(masterSeed, i). Runs execute on up to GOMAXPROCS
// worker goroutines; each run writes only its own slot of the results
// slice, so scheduling order never changes the reduced output.
//
// onRun, if non-nil, is invoked once per completed run and may be called
// concurrently. A panicking run aborts the whole scenario: a scenario with
// a broken run has no meaningful statistics.
func RunScenario(ctx context.Context, cfg *sim.Config, runs int, masterSeed int64, onRun func()) (*ScenarioResult, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs must be >= 1, got %d", runs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if load := cfg.OfferedLoad(); load > 1 {
		logrus.Warnf("scenario %s: offered load %.2f exceeds capacity, expect queues to grow until the horizon", cfg.Name, load)
	}

	results := make([]*sim.RunResult, runs)
	jobs := make(chan int)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > runs {
		workers = runs
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := runOne(cfg, masterSeed, i, results); err != nil {
					fail(err)
					return
				}
				if onRun != nil {
					onRun()
				}
			}
		}()
	}

feed:
	for i := 0; i < runs; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("scenario %q: %w", cfg.Name, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", cfg.Name, err)
	}

	sr := Reduce(cfg, results)
	logrus.Infof("scenario %s: %d runs, mean wait %.2f min, throughput %.1f/h",
		cfg.Name, runs, sr.MeanWaitMin.Mean, sr.ThroughputPerHour.Mean)
	return sr, nil
}

func runOne(cfg *sim.Config, masterSeed int64, runIdx int, results []*sim.RunResult) (err error) {
	key := sim.DeriveRunSeed(masterSeed, runIdx)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run %d (key %d) panicked: %v", runIdx, key, r)
		}
	}()
	s, err := sim.NewSimulation(cfg, key)
	if err != nil {
		return fmt.Errorf("run %d: %w", runIdx, err)
	}
	results[runIdx] = s.Run()
	logrus.Debugf("scenario %s run %d: served %d of %d", cfg.Name, runIdx,
		results[runIdx].Served, results[runIdx].Arrived)
	return nil
}

// Run executes every scenario in declaration order. Scenarios run
// sequentially (their replications are parallel internally) and share the
// same derived per-run seeds.
func (e *Experiment) Run(ctx context.Context, onRun func()) (*Report, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	scenarios := make([]*ScenarioResult, 0, len(e.Scenarios))
	for i := range e.Scenarios {
		cfg := &e.Scenarios[i]
		sr, err := RunScenario(ctx, cfg, e.Runs, e.Seed, onRun)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sr)
	}
	return NewReport(e, scenarios), nil
}
