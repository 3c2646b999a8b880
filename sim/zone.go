package sim

import "math"

// Zone is a logical grouping of one or more pools of the same kind that
// the routing policy load-balances across. The zone itself owns no queue;
// its load is computed from live pool state at each routing decision, so
// policies see a snapshot and nothing else.
type Zone struct {
	Name  string
	Kind  ServeKind
	Pools []*ResourcePool

	// Efficiency scales service durations of customers seated through this
	// zone (1.0 = neutral; below 1.0 means a better-organized zone).
	Efficiency float64

	// Routed counts customers the policy sent here, for reporting.
	Routed int
}

// Load is the normalized pressure over the zone's pools:
// (Σ waiting + Σ busy) / Σ capacity. Infinite when total capacity is zero.
func (z *Zone) Load() float64 {
	waiting, busy, capacity := 0, 0, 0
	for _, p := range z.Pools {
		waiting += p.Queue.Len()
		busy += p.Busy()
		capacity += p.Capacity
	}
	if capacity == 0 {
		return math.Inf(1)
	}
	return float64(waiting+busy) / float64(capacity)
}

// LeastLoadedPool returns the pool inside this zone with minimum Load,
// ties broken by declaration order.
func (z *Zone) LeastLoadedPool() *ResourcePool {
	if len(z.Pools) == 0 {
		panic("zone " + z.Name + " has no pools")
	}
	best := z.Pools[0]
	bestLoad := best.Load()
	for _, p := range z.Pools[1:] {
		if l := p.Load(); l < bestLoad {
			best, bestLoad = p, l
		}
	}
	return best
}
