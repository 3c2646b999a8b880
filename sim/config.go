package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Kannorhart/PVZpunkt/sim/workload"
)

// Config is the complete physical description of one scenario: who arrives,
// how long they take, what serves them, and how they are routed. Replication
// counts and seeds live one level up, in the experiment.
type Config struct {
	Name        string  `yaml:"name"`
	HorizonMins float64 `yaml:"horizon_minutes"`

	// Termination selects what happens to work still in flight at the
	// horizon: "drain" (default) serves out queues, "cutoff" flushes them.
	Termination string `yaml:"termination,omitempty"`

	Arrivals workload.DistSpec `yaml:"arrivals"`
	Service  workload.DistSpec `yaml:"service"`
	Delay    DelayConfig       `yaml:"delay"`

	// Adoption is the probability that a customer prefers self-service.
	// The trial is only held when a self-service pool is configured;
	// otherwise every customer prefers staffed service.
	Adoption float64 `yaml:"adoption"`

	Policy string `yaml:"policy,omitempty"` // "static" (default) or "bee"

	Pools []PoolConfig `yaml:"pools"`

	// Zones group pools for routing. Empty means one zone per pool.
	Zones []ZoneConfig `yaml:"zones,omitempty"`

	Churn ChurnConfig `yaml:"churn,omitempty"`
}

// PoolConfig declares one service pool.
type PoolConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"` // "staffed" or "self_service"
	Capacity int    `yaml:"capacity"`
}

// ZoneConfig declares a routing zone over existing pools. All pools in a
// zone must share one kind. Efficiency scales service durations for
// customers served in the zone (nil = 1.0).
type ZoneConfig struct {
	Name       string   `yaml:"name"`
	Pools      []string `yaml:"pools"`
	Efficiency *float64 `yaml:"efficiency,omitempty"`
}

// DelayConfig models issue-resolution delays (missing parcel, ID check):
// with the given probability a customer's service is extended by an extra
// duration drawn from Duration.
type DelayConfig struct {
	Probability float64           `yaml:"probability"`
	Duration    workload.DistSpec `yaml:"duration"`
}

// ChurnConfig groups the two abandonment mechanisms. Both default off.
type ChurnConfig struct {
	Balk     BalkConfig     `yaml:"balk,omitempty"`
	Patience PatienceConfig `yaml:"patience,omitempty"`
}

// BalkConfig controls refusal to join a queue on arrival. The balk
// probability is min(Base + PerWaiting*queueLen, Cap), evaluated against
// the queue the customer was routed to.
type BalkConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Base       float64 `yaml:"base"`
	PerWaiting float64 `yaml:"per_waiting"`
	Cap        float64 `yaml:"cap"`
}

// PatienceConfig controls reneging: a waiting customer leaves the queue
// once a drawn patience duration elapses without service starting.
type PatienceConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Duration workload.DistSpec `yaml:"duration"`
}

// Termination mode registry.
const (
	TerminationDrain  = "drain"
	TerminationCutoff = "cutoff"
)

var validTerminations = map[string]bool{
	"": true, TerminationDrain: true, TerminationCutoff: true,
}

var validServeKinds = map[string]bool{
	string(KindStaffed): true, string(KindSelfService): true,
}

// LoadConfig reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that all fields in the config are consistent. The first
// offending parameter is named in the returned error.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := validateFinitePositive("horizon_minutes", c.HorizonMins); err != nil {
		return err
	}
	if !validTerminations[c.Termination] {
		return fmt.Errorf("unknown termination %q; valid: drain, cutoff", c.Termination)
	}
	if !IsValidRoutingPolicy(c.Policy) {
		return fmt.Errorf("unknown policy %q; valid: static, bee", c.Policy)
	}
	if c.Adoption < 0 || c.Adoption > 1 {
		return fmt.Errorf("adoption must be in [0, 1], got %f", c.Adoption)
	}
	if _, err := workload.NewGapSampler(c.Arrivals); err != nil {
		return fmt.Errorf("arrivals: %w", err)
	}
	if _, err := workload.NewDurationSampler(c.Service); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if c.Delay.Probability < 0 || c.Delay.Probability > 1 {
		return fmt.Errorf("delay.probability must be in [0, 1], got %f", c.Delay.Probability)
	}
	if c.Delay.Probability > 0 {
		if _, err := workload.NewDurationSampler(c.Delay.Duration); err != nil {
			return fmt.Errorf("delay.duration: %w", err)
		}
	}
	if err := c.validatePools(); err != nil {
		return err
	}
	if err := c.validateZones(); err != nil {
		return err
	}
	return c.validateChurn()
}

func (c *Config) validatePools() error {
	if len(c.Pools) == 0 {
		return fmt.Errorf("at least one pool is required")
	}
	seen := make(map[string]bool, len(c.Pools))
	staffed := false
	for i, p := range c.Pools {
		prefix := fmt.Sprintf("pools[%d]", i)
		if p.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if seen[p.Name] {
			return fmt.Errorf("%s: duplicate pool name %q", prefix, p.Name)
		}
		seen[p.Name] = true
		if !validServeKinds[p.Kind] {
			return fmt.Errorf("%s: unknown kind %q; valid: staffed, self_service", prefix, p.Kind)
		}
		if p.Capacity < 0 {
			return fmt.Errorf("%s: capacity must be non-negative, got %d", prefix, p.Capacity)
		}
		if p.Kind == string(KindStaffed) {
			staffed = true
		}
	}
	if !staffed {
		return fmt.Errorf("at least one pool of kind %q is required", KindStaffed)
	}
	return nil
}

func (c *Config) validateZones() error {
	pools := make(map[string]string, len(c.Pools)) // name → kind
	for _, p := range c.Pools {
		pools[p.Name] = p.Kind
	}
	assigned := make(map[string]string, len(c.Pools)) // pool → zone
	seen := make(map[string]bool, len(c.Zones))
	for i, z := range c.Zones {
		prefix := fmt.Sprintf("zones[%d]", i)
		if z.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if seen[z.Name] {
			return fmt.Errorf("%s: duplicate zone name %q", prefix, z.Name)
		}
		seen[z.Name] = true
		if len(z.Pools) == 0 {
			return fmt.Errorf("%s: zone %q lists no pools", prefix, z.Name)
		}
		if z.Efficiency != nil {
			if err := validateFinitePositive(prefix+".efficiency", *z.Efficiency); err != nil {
				return err
			}
		}
		kind := ""
		for _, name := range z.Pools {
			k, ok := pools[name]
			if !ok {
				return fmt.Errorf("%s: references unknown pool %q", prefix, name)
			}
			if prev, ok := assigned[name]; ok {
				return fmt.Errorf("%s: pool %q already belongs to zone %q", prefix, name, prev)
			}
			assigned[name] = z.Name
			if kind == "" {
				kind = k
			} else if kind != k {
				return fmt.Errorf("%s: zone %q mixes kinds %q and %q", prefix, z.Name, kind, k)
			}
		}
	}
	if len(c.Zones) > 0 && len(assigned) != len(c.Pools) {
		for _, p := range c.Pools {
			if _, ok := assigned[p.Name]; !ok {
				return fmt.Errorf("pool %q belongs to no zone", p.Name)
			}
		}
	}
	return nil
}

func (c *Config) validateChurn() error {
	b := c.Churn.Balk
	if b.Enabled {
		for _, f := range []struct {
			name string
			val  float64
		}{
			{"churn.balk.base", b.Base},
			{"churn.balk.per_waiting", b.PerWaiting},
			{"churn.balk.cap", b.Cap},
		} {
			if math.IsNaN(f.val) || math.IsInf(f.val, 0) || f.val < 0 || f.val > 1 {
				return fmt.Errorf("%s must be in [0, 1], got %f", f.name, f.val)
			}
		}
		if b.Cap < b.Base {
			return fmt.Errorf("churn.balk.cap must be >= churn.balk.base, got %f < %f", b.Cap, b.Base)
		}
	}
	if c.Churn.Patience.Enabled {
		if _, err := workload.NewDurationSampler(c.Churn.Patience.Duration); err != nil {
			return fmt.Errorf("churn.patience.duration: %w", err)
		}
	}
	return nil
}

// ZonePlan returns the effective zone layout: the declared zones, or one
// derived zone per pool when none are declared.
func (c *Config) ZonePlan() []ZoneConfig {
	if len(c.Zones) > 0 {
		return c.Zones
	}
	plan := make([]ZoneConfig, 0, len(c.Pools))
	for _, p := range c.Pools {
		plan = append(plan, ZoneConfig{Name: p.Name, Pools: []string{p.Name}})
	}
	return plan
}

// HorizonTicks returns the arrival cutoff in ticks.
func (c *Config) HorizonTicks() int64 {
	return MinutesToTicks(c.HorizonMins)
}

// OfferedLoad estimates layout utilization: arrival rate times expected
// service demand (delay contribution included) over total capacity. Zone
// efficiency and churn are ignored; treat it as a sizing hint, not a
// prediction. Zero capacity reports +Inf.
func (c *Config) OfferedLoad() float64 {
	gap, ok := c.Arrivals.MeanMinutes()
	if !ok || gap <= 0 {
		return 0
	}
	service, ok := c.Service.MeanMinutes()
	if !ok {
		return 0
	}
	if c.Delay.Probability > 0 {
		if d, ok := c.Delay.Duration.MeanMinutes(); ok {
			service += c.Delay.Probability * d
		}
	}
	capacity := 0
	for _, p := range c.Pools {
		capacity += p.Capacity
	}
	if capacity == 0 {
		return math.Inf(1)
	}
	return service / (gap * float64(capacity))
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

// DefaultConfig returns the peak-hour parameter set the canonical
// scenarios share: Poisson arrivals at 1/min, Normal(2.0, 0.5) service
// clamped at 0.1 min, a 10% chance of a 1-5 minute issue delay, adoption
// 0.5, two-hour horizon. Name and pools are left for the caller.
func DefaultConfig() *Config {
	return &Config{
		HorizonMins: 120,
		Arrivals: workload.DistSpec{
			Type:   "poisson",
			Params: map[string]float64{"rate": 1.0},
		},
		Service: workload.DistSpec{
			Type:   "normal",
			Params: map[string]float64{"mean": 2.0, "std_dev": 0.5, "floor": 0.1},
		},
		Delay: DelayConfig{
			Probability: 0.10,
			Duration: workload.DistSpec{
				Type:   "uniform",
				Params: map[string]float64{"min": 1.0, "max": 5.0},
			},
		},
		Adoption: 0.50,
	}
}

// BaselineConfig is the reference peak-hour scenario: three staffed
// counters, no terminals, direct routing.
func BaselineConfig() *Config {
	cfg := DefaultConfig()
	cfg.Name = "baseline"
	cfg.Pools = []PoolConfig{
		{Name: "counters", Kind: string(KindStaffed), Capacity: 3},
	}
	return cfg
}

// SelfServiceConfig adds two self-service terminals to the baseline,
// keeping direct (static) routing.
func SelfServiceConfig() *Config {
	cfg := BaselineConfig()
	cfg.Name = "self_service"
	cfg.Pools = append(cfg.Pools, PoolConfig{
		Name: "terminals", Kind: string(KindSelfService), Capacity: 2,
	})
	return cfg
}

// BeeConfig is the self-service scenario under the dynamic bee-inspired
// balancer instead of direct routing.
func BeeConfig() *Config {
	cfg := SelfServiceConfig()
	cfg.Name = "bee"
	cfg.Policy = PolicyBee
	return cfg
}
