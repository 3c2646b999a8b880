package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Policy selector names accepted in configuration.
const (
	PolicyStatic = "static"
	PolicyBee    = "bee"
)

var validRoutingPolicies = map[string]bool{
	"":           true, // empty defaults to static
	PolicyStatic: true,
	PolicyBee:    true,
}

// IsValidRoutingPolicy reports whether name is a recognized policy selector.
func IsValidRoutingPolicy(name string) bool {
	return validRoutingPolicies[name]
}

// RoutingDecision encapsulates where one arriving customer goes.
type RoutingDecision struct {
	Zone   *Zone
	Pool   *ResourcePool
	Reason string             // human-readable explanation
	Loads  map[string]float64 // zone name → load estimate at decision time (nil for static)
}

// RoutingPolicy decides, for each arriving customer, which zone (and pool
// within it) the customer joins. Implementations see only the live zones
// slice; the decision is their sole side effect.
type RoutingPolicy interface {
	Name() string
	Route(c *Customer, zones []*Zone) RoutingDecision
}

// StaticPolicy maps the customer's preferred kind straight to the first
// declared zone of that kind. This is the baseline and plain self-service
// behavior: the adoption trial alone determines where a customer goes.
type StaticPolicy struct{}

// Name implements RoutingPolicy.
func (sp *StaticPolicy) Name() string { return PolicyStatic }

// Route implements RoutingPolicy for StaticPolicy.
func (sp *StaticPolicy) Route(c *Customer, zones []*Zone) RoutingDecision {
	for _, z := range zones {
		if z.Kind == c.PreferredKind {
			return RoutingDecision{
				Zone:   z,
				Pool:   z.LeastLoadedPool(),
				Reason: fmt.Sprintf("static (kind=%s)", c.PreferredKind),
			}
		}
	}
	panic(fmt.Sprintf("StaticPolicy.Route: no zone of kind %q", c.PreferredKind))
}

// BeePolicy is the dynamic, bee-inspired load balancer: a greedy, myopic
// choice of the least-loaded compatible zone using only the current
// snapshot. No pheromone trails, no foraging memory, no replanning; each
// arrival re-evaluates from scratch.
//
// Compatibility: customers preferring staffed service only consider
// staffed zones (they chose not to use a terminal); customers preferring
// self-service may overflow to staffed zones when those are quieter.
// Candidates keep a fixed order (preferred-kind zones first, then the
// rest, each group in declaration order) and ties resolve to the first
// candidate, so the decision is fully deterministic.
type BeePolicy struct{}

// Name implements RoutingPolicy.
func (bp *BeePolicy) Name() string { return PolicyBee }

// Route implements RoutingPolicy for BeePolicy.
func (bp *BeePolicy) Route(c *Customer, zones []*Zone) RoutingDecision {
	candidates := make([]*Zone, 0, len(zones))
	for _, z := range zones {
		if z.Kind == c.PreferredKind {
			candidates = append(candidates, z)
		}
	}
	if c.PreferredKind == KindSelfService {
		for _, z := range zones {
			if z.Kind == KindStaffed {
				candidates = append(candidates, z)
			}
		}
	}
	if len(candidates) == 0 {
		panic(fmt.Sprintf("BeePolicy.Route: no compatible zones for kind %q", c.PreferredKind))
	}

	loads := make(map[string]float64, len(candidates))
	best := candidates[0]
	bestLoad := best.Load()
	loads[best.Name] = bestLoad
	for _, z := range candidates[1:] {
		l := z.Load()
		loads[z.Name] = l
		if l < bestLoad {
			best, bestLoad = z, l
		}
	}

	return RoutingDecision{
		Zone:   best,
		Pool:   best.LeastLoadedPool(),
		Reason: fmt.Sprintf("bee-least-loaded (load=%.3f)", bestLoad),
		Loads:  loads,
	}
}

// NewRoutingPolicy creates a routing policy by name. Empty string defaults
// to static. Config validation rejects unknown names before this point;
// the factory panics on unrecognized input.
func NewRoutingPolicy(name string) RoutingPolicy {
	switch name {
	case "", PolicyStatic:
		return &StaticPolicy{}
	case PolicyBee:
		return &BeePolicy{}
	default:
		logrus.Panicf("unknown routing policy: %s", name)
		return nil
	}
}
