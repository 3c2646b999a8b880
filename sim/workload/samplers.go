// Package workload generates the stochastic inputs of a simulation run:
// inter-arrival gaps, service durations, issue-resolution delays, and the
// Bernoulli trials behind adoption, delay incidence, and balking.
//
// All samples are returned in simulated ticks (one tick = one microsecond).
// Distribution parameters arrive in minutes, the unit the configuration
// speaks, and are converted exactly once at construction.
package workload

import (
	"fmt"
	"math"
	"math/rand"
)

const ticksPerMinute = 60_000_000.0

// DurationSampler generates service-style durations.
type DurationSampler interface {
	// Sample returns a duration in ticks. Always positive (>= 1).
	Sample(rng *rand.Rand) int64
}

// TruncatedNormalSampler produces Normal(mean, stdDev) durations clamped
// from below at floor. Draws below the floor are clamped, not redrawn, so
// the realized mean sits slightly above the nominal one. Parameters are
// held in ticks.
type TruncatedNormalSampler struct {
	mean, stdDev, floor float64
}

func (s *TruncatedNormalSampler) Sample(rng *rand.Rand) int64 {
	val := rng.NormFloat64()*s.stdDev + s.mean
	if val < s.floor {
		val = s.floor
	}
	result := int64(math.Round(val))
	if result < 1 {
		return 1
	}
	return result
}

// UniformSampler produces durations uniform on [lo, hi] ticks.
type UniformSampler struct {
	lo, hi float64
}

func (s *UniformSampler) Sample(rng *rand.Rand) int64 {
	val := s.lo + rng.Float64()*(s.hi-s.lo)
	result := int64(math.Round(val))
	if result < 1 {
		return 1
	}
	return result
}

// ExponentialSampler produces exponentially-distributed durations.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) int64 {
	result := int64(rng.ExpFloat64() * s.mean)
	if result < 1 {
		return 1
	}
	return result
}

// ConstantSampler always returns the same fixed duration (zero variance).
type ConstantSampler struct {
	value int64
}

func (s *ConstantSampler) Sample(_ *rand.Rand) int64 {
	if s.value < 1 {
		return 1
	}
	return s.value
}

// GapSampler generates inter-arrival gaps.
type GapSampler interface {
	// NextGap returns the gap to the next arrival in ticks.
	// Always positive (>= 1), so arrival times strictly increase.
	NextGap(rng *rand.Rand) int64
}

// PoissonGaps generates exponentially-distributed gaps (a Poisson arrival
// process). rate is held in arrivals per tick.
type PoissonGaps struct {
	rate float64
}

func (s *PoissonGaps) NextGap(rng *rand.Rand) int64 {
	gap := int64(rng.ExpFloat64() / s.rate)
	if gap < 1 {
		return 1
	}
	return gap
}

// ConstantGaps generates a fixed gap. Zero variance makes it the sampler
// of choice for hand-checkable scenarios.
type ConstantGaps struct {
	gap int64
}

func (s *ConstantGaps) NextGap(_ *rand.Rand) int64 {
	if s.gap < 1 {
		return 1
	}
	return s.gap
}

// Bernoulli reports one success/failure trial with success probability p.
// p <= 0 never succeeds and p >= 1 always does, without consuming
// different amounts of randomness: exactly one draw per call.
func Bernoulli(rng *rand.Rand, p float64) bool {
	u := rng.Float64()
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return u < p
}

// DistSpec selects a distribution family and its parameters. Duration
// parameters (mean, std_dev, floor, min, max, value) are in minutes;
// rate is in events per minute.
type DistSpec struct {
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// MeanMinutes returns the spec's expected value in minutes, for rough
// load estimates. For poisson that is the mean gap, 1/rate. Clamp floors
// are ignored. ok is false for unknown types or missing parameters.
func (s DistSpec) MeanMinutes() (mean float64, ok bool) {
	switch s.Type {
	case "poisson":
		rate, ok := s.Params["rate"]
		if !ok || rate <= 0 {
			return 0, false
		}
		return 1 / rate, true
	case "normal", "exponential":
		mean, ok := s.Params["mean"]
		return mean, ok
	case "uniform":
		lo, okLo := s.Params["min"]
		hi, okHi := s.Params["max"]
		return (lo + hi) / 2, okLo && okHi
	case "constant":
		v, ok := s.Params["value"]
		return v, ok
	default:
		return 0, false
	}
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewDurationSampler creates a DurationSampler from a DistSpec.
func NewDurationSampler(spec DistSpec) (DurationSampler, error) {
	switch spec.Type {
	case "normal":
		if err := requireParam(spec.Params, "mean", "std_dev", "floor"); err != nil {
			return nil, err
		}
		if spec.Params["std_dev"] < 0 {
			return nil, fmt.Errorf("normal distribution requires std_dev >= 0, got %v", spec.Params["std_dev"])
		}
		return &TruncatedNormalSampler{
			mean:   spec.Params["mean"] * ticksPerMinute,
			stdDev: spec.Params["std_dev"] * ticksPerMinute,
			floor:  spec.Params["floor"] * ticksPerMinute,
		}, nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := spec.Params["min"], spec.Params["max"]
		if lo > hi {
			return nil, fmt.Errorf("uniform distribution requires min <= max, got [%v, %v]", lo, hi)
		}
		return &UniformSampler{
			lo: lo * ticksPerMinute,
			hi: hi * ticksPerMinute,
		}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["mean"] <= 0 {
			return nil, fmt.Errorf("exponential distribution requires mean > 0, got %v", spec.Params["mean"])
		}
		return &ExponentialSampler{
			mean: spec.Params["mean"] * ticksPerMinute,
		}, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return &ConstantSampler{
			value: int64(math.Round(spec.Params["value"] * ticksPerMinute)),
		}, nil

	default:
		return nil, fmt.Errorf("unknown duration distribution type %q", spec.Type)
	}
}

// NewGapSampler creates a GapSampler from a DistSpec.
func NewGapSampler(spec DistSpec) (GapSampler, error) {
	switch spec.Type {
	case "poisson":
		if err := requireParam(spec.Params, "rate"); err != nil {
			return nil, err
		}
		rate := spec.Params["rate"]
		if rate <= 0 {
			return nil, fmt.Errorf("poisson arrivals require rate > 0, got %v", rate)
		}
		return &PoissonGaps{rate: rate / ticksPerMinute}, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		if spec.Params["value"] <= 0 {
			return nil, fmt.Errorf("constant gap requires value > 0, got %v", spec.Params["value"])
		}
		return &ConstantGaps{
			gap: int64(math.Round(spec.Params["value"] * ticksPerMinute)),
		}, nil

	default:
		return nil, fmt.Errorf("unknown arrival process type %q", spec.Type)
	}
}
