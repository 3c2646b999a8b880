package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Kannorhart/PVZpunkt/sim/trace"
	"github.com/Kannorhart/PVZpunkt/sim/workload"
)

// Simulation is one deterministic run of a pickup-point scenario: a single
// event loop over one clock, one partitioned RNG, and the pools and zones
// built from the scenario config.
type Simulation struct {
	Config *Config

	// Simulation state
	EventQueue *EventHeap
	Clock      int64
	Horizon    int64 // arrival cutoff in ticks

	// Service layout
	Pools []*ResourcePool
	Zones []*Zone

	// Every customer that arrived, in arrival order.
	Customers []*Customer

	// Trace recording (nil = no tracing)
	Trace *trace.SimulationTrace

	policy RoutingPolicy
	rng    *PartitionedRNG

	gaps     workload.GapSampler
	service  workload.DurationSampler
	delay    workload.DurationSampler // nil when delay probability is 0
	patience workload.DurationSampler // nil unless patience churn enabled

	// self-service terminals with actual capacity exist, so the
	// adoption trial is held
	hasSelfService bool

	nextEventID    uint64 // per-simulation counter for deterministic event ordering
	nextCustomerID int

	// Outcome counters. served + balked + reneged + flushed == arrived
	// holds after Run returns.
	arrived int
	served  int
	balked  int
	reneged int
	flushed int
	delayed int
}

// NewSimulation validates cfg, builds the pools, zones, samplers, and
// routing policy, and schedules the first arrival (and the horizon cutoff
// in cutoff mode). key controls every random draw: equal key and config
// means an identical run.
func NewSimulation(cfg *Config, key SimulationKey) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", cfg.Name, err)
	}

	sim := &Simulation{
		Config:     cfg,
		EventQueue: NewEventHeap(),
		Horizon:    cfg.HorizonTicks(),
		rng:        NewPartitionedRNG(key),
		policy:     NewRoutingPolicy(cfg.Policy),
	}

	var err error
	if sim.gaps, err = workload.NewGapSampler(cfg.Arrivals); err != nil {
		return nil, fmt.Errorf("arrivals: %w", err)
	}
	if sim.service, err = workload.NewDurationSampler(cfg.Service); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if cfg.Delay.Probability > 0 {
		if sim.delay, err = workload.NewDurationSampler(cfg.Delay.Duration); err != nil {
			return nil, fmt.Errorf("delay.duration: %w", err)
		}
	}
	if cfg.Churn.Patience.Enabled {
		if sim.patience, err = workload.NewDurationSampler(cfg.Churn.Patience.Duration); err != nil {
			return nil, fmt.Errorf("churn.patience.duration: %w", err)
		}
	}

	poolsByName := make(map[string]*ResourcePool, len(cfg.Pools))
	for _, pc := range cfg.Pools {
		pool := NewResourcePool(pc.Name, ServeKind(pc.Kind), pc.Capacity)
		poolsByName[pc.Name] = pool
		sim.Pools = append(sim.Pools, pool)
		if pool.Kind == KindSelfService && pool.Capacity > 0 {
			sim.hasSelfService = true
		}
	}
	for _, zc := range cfg.ZonePlan() {
		zone := &Zone{Name: zc.Name, Efficiency: 1.0}
		if zc.Efficiency != nil {
			zone.Efficiency = *zc.Efficiency
		}
		for _, name := range zc.Pools {
			pool := poolsByName[name]
			zone.Kind = pool.Kind
			zone.Pools = append(zone.Pools, pool)
		}
		sim.Zones = append(sim.Zones, zone)
	}

	sim.scheduleNextArrival(0)
	if cfg.Termination == TerminationCutoff {
		sim.ScheduleEvent(sim.NewHorizonCutoffEvent(sim.Horizon))
	}
	return sim, nil
}

// ScheduleEvent adds an event to the event queue.
func (sim *Simulation) ScheduleEvent(e Event) {
	sim.EventQueue.Schedule(e)
}

// newEventID generates the next event ID for this simulation.
func (sim *Simulation) newEventID() uint64 {
	sim.nextEventID++
	return sim.nextEventID
}

// NewArrivalEvent creates an arrival event with this simulation's next event ID.
func (sim *Simulation) NewArrivalEvent(timestamp int64, c *Customer) *ArrivalEvent {
	return NewArrivalEvent(timestamp, sim.newEventID(), c)
}

// NewCompletionEvent creates a completion event with this simulation's next event ID.
func (sim *Simulation) NewCompletionEvent(timestamp int64, c *Customer) *CompletionEvent {
	return NewCompletionEvent(timestamp, sim.newEventID(), c)
}

// NewSeatNextEvent creates a seat-next event with this simulation's next event ID.
func (sim *Simulation) NewSeatNextEvent(timestamp int64, pool *ResourcePool) *SeatNextEvent {
	return NewSeatNextEvent(timestamp, sim.newEventID(), pool)
}

// NewRenegeEvent creates a renege event with this simulation's next event ID.
func (sim *Simulation) NewRenegeEvent(timestamp int64, c *Customer) *RenegeEvent {
	return NewRenegeEvent(timestamp, sim.newEventID(), c)
}

// NewHorizonCutoffEvent creates a horizon cutoff event with this simulation's next event ID.
func (sim *Simulation) NewHorizonCutoffEvent(timestamp int64) *HorizonCutoffEvent {
	return NewHorizonCutoffEvent(timestamp, sim.newEventID())
}

// scheduleNextArrival draws the next inter-arrival gap and schedules the
// arrival, unless it would land at or past the horizon. Arrival times are
// strictly increasing because gaps are always >= 1 tick.
func (sim *Simulation) scheduleNextArrival(now int64) {
	next := now + sim.gaps.NextGap(sim.rng.ForSubsystem(SubsystemArrivals))
	if next >= sim.Horizon {
		return
	}
	sim.nextCustomerID++
	c := NewCustomer(sim.nextCustomerID, next)
	sim.ScheduleEvent(sim.NewArrivalEvent(next, c))
}

// Run executes the event loop until the queue empties, then finalizes pool
// accounting and checks customer conservation. The returned RunResult is
// fully determined by the config and the SimulationKey.
func (sim *Simulation) Run() *RunResult {
	for sim.EventQueue.Len() > 0 {
		event := sim.EventQueue.PopNext()

		if event.Timestamp() < sim.Clock {
			panic(fmt.Sprintf("Clock went backwards: %d < %d", event.Timestamp(), sim.Clock))
		}
		sim.Clock = event.Timestamp()

		logrus.Tracef("[tick %010d] executing %T", sim.Clock, event)
		event.Execute(sim)
	}

	// Customers can still be waiting here only if their pool has zero
	// capacity (nothing ever completes there). Flush them so every
	// customer has a final disposition.
	for _, pool := range sim.Pools {
		sim.flushQueue(pool)
	}
	for _, pool := range sim.Pools {
		pool.Finalize(sim.Clock)
	}
	sim.assertConservation()

	return sim.computeResult()
}

// Event handlers

func (sim *Simulation) handleArrival(e *ArrivalEvent) {
	c := e.Customer
	sim.arrived++
	sim.Customers = append(sim.Customers, c)

	// All per-customer draws happen here, in a fixed order, before the
	// routing decision. Scenarios differing only in policy therefore
	// hand every customer the same arrival time, service demand, delay,
	// and preference: paired comparisons across policies stay paired.
	c.ServiceDuration = sim.service.Sample(sim.rng.ForSubsystem(SubsystemService))
	if sim.delay != nil && workload.Bernoulli(sim.rng.ForSubsystem(SubsystemDelay), sim.Config.Delay.Probability) {
		c.Delayed = true
		c.DelayDuration = sim.delay.Sample(sim.rng.ForSubsystem(SubsystemDelay))
		sim.delayed++
	}
	c.PreferredKind = KindStaffed
	if sim.hasSelfService && workload.Bernoulli(sim.rng.ForSubsystem(SubsystemAdoption), sim.Config.Adoption) {
		c.PreferredKind = KindSelfService
	}

	decision := sim.policy.Route(c, sim.Zones)
	c.AssignedZone = decision.Zone
	c.AssignedPool = decision.Pool
	decision.Zone.Routed++
	sim.recordRouting(c, decision)

	pool := decision.Pool
	if pool.FreeServers() > 0 {
		sim.seat(c, pool)
	} else if sim.balks(pool) {
		c.State = CustomerStateBalked
		c.DepartureTime = sim.Clock
		sim.balked++
		sim.recordCustomer(c)
	} else {
		pool.EnqueueWaiting(c, sim.Clock)
		c.State = CustomerStateWaiting
		if sim.patience != nil {
			wait := sim.patience.Sample(sim.rng.ForSubsystem(SubsystemPatience))
			sim.ScheduleEvent(sim.NewRenegeEvent(sim.Clock+wait, c))
		}
	}

	sim.scheduleNextArrival(sim.Clock)
}

// balks draws the balk trial against the queue the customer was routed to.
// Only held when the customer would actually wait.
func (sim *Simulation) balks(pool *ResourcePool) bool {
	b := sim.Config.Churn.Balk
	if !b.Enabled {
		return false
	}
	p := b.Base + b.PerWaiting*float64(pool.Queue.Len())
	if p > b.Cap {
		p = b.Cap
	}
	return workload.Bernoulli(sim.rng.ForSubsystem(SubsystemBalk), p)
}

// seat starts service for c on pool at the current clock.
func (sim *Simulation) seat(c *Customer, pool *ResourcePool) {
	pool.Seat(sim.Clock)
	c.State = CustomerStateInService
	c.ServiceStartTime = sim.Clock
	sim.ScheduleEvent(sim.NewCompletionEvent(sim.Clock+c.TotalServiceTicks(), c))
}

func (sim *Simulation) handleCompletion(e *CompletionEvent) {
	c := e.Customer
	pool := c.AssignedPool
	pool.Release(sim.Clock)

	c.State = CustomerStateServed
	c.DepartureTime = sim.Clock
	sim.served++

	// Verify causality
	if c.ArrivalTime > c.ServiceStartTime || c.ServiceStartTime > c.DepartureTime {
		panic(fmt.Sprintf("Causality violated for customer %d", c.ID))
	}

	sim.recordCustomer(c)
	sim.ScheduleEvent(sim.NewSeatNextEvent(sim.Clock, pool))
}

func (sim *Simulation) handleSeatNext(e *SeatNextEvent) {
	pool := e.Pool
	for pool.FreeServers() > 0 && pool.Queue.Len() > 0 {
		sim.seat(pool.DequeueWaiting(sim.Clock), pool)
	}
}

func (sim *Simulation) handleRenege(e *RenegeEvent) {
	c := e.Customer
	// Lazy cancellation: the customer may have been seated or flushed
	// since this event was scheduled.
	if c.State != CustomerStateWaiting {
		return
	}
	if !c.AssignedPool.RemoveWaiting(c, sim.Clock) {
		panic(fmt.Sprintf("customer %d waiting but not in queue of pool %s", c.ID, c.AssignedPool.Name))
	}
	c.State = CustomerStateReneged
	c.DepartureTime = sim.Clock
	sim.reneged++
	sim.recordCustomer(c)
}

func (sim *Simulation) handleHorizonCutoff(e *HorizonCutoffEvent) {
	for _, pool := range sim.Pools {
		sim.flushQueue(pool)
	}
}

// flushQueue abandons every customer still waiting on pool. In-service
// customers are unaffected and complete normally.
func (sim *Simulation) flushQueue(pool *ResourcePool) {
	for pool.Queue.Len() > 0 {
		c := pool.DequeueWaiting(sim.Clock)
		c.State = CustomerStateFlushed
		c.DepartureTime = sim.Clock
		sim.flushed++
		sim.recordCustomer(c)
	}
}

func (sim *Simulation) assertConservation() {
	if sim.served+sim.balked+sim.reneged+sim.flushed != sim.arrived {
		panic(fmt.Sprintf("customer conservation violated: arrived %d != served %d + balked %d + reneged %d + flushed %d",
			sim.arrived, sim.served, sim.balked, sim.reneged, sim.flushed))
	}
}

// Trace recording

func (sim *Simulation) recordCustomer(c *Customer) {
	if sim.Trace == nil {
		return
	}
	rec := trace.CustomerRecord{
		CustomerID: c.ID,
		ArrivalMin: TicksToMinutes(c.ArrivalTime),
		Preferred:  string(c.PreferredKind),
		Outcome:    string(c.State),
		Delayed:    c.Delayed,
		WaitMin:    -1,
		ServiceMin: -1,
		SojournMin: -1,
	}
	if c.AssignedZone != nil {
		rec.Zone = c.AssignedZone.Name
	}
	if c.AssignedPool != nil {
		rec.Pool = c.AssignedPool.Name
	}
	if c.State == CustomerStateServed {
		rec.WaitMin = TicksToMinutes(c.WaitTicks())
		rec.ServiceMin = TicksToMinutes(c.DepartureTime - c.ServiceStartTime)
	}
	if c.DepartureTime >= 0 {
		rec.SojournMin = TicksToMinutes(c.SojournTicks())
	}
	sim.Trace.RecordCustomer(rec)
}

func (sim *Simulation) recordRouting(c *Customer, decision RoutingDecision) {
	if sim.Trace == nil {
		return
	}
	rec := trace.RoutingRecord{
		CustomerID: c.ID,
		ClockMin:   TicksToMinutes(sim.Clock),
		Zone:       decision.Zone.Name,
		Pool:       decision.Pool.Name,
		Reason:     decision.Reason,
	}
	if len(decision.Loads) > 0 {
		// Zero-capacity zones report infinite load; JSON cannot carry it.
		loads := make(map[string]float64, len(decision.Loads))
		for name, l := range decision.Loads {
			if !math.IsInf(l, 0) && !math.IsNaN(l) {
				loads[name] = l
			}
		}
		rec.Loads = loads
	}
	sim.Trace.RecordRouting(rec)
}
