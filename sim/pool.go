package sim

import (
	"fmt"
	"math"
)

// ServeKind distinguishes the two server classes at the pickup point.
type ServeKind string

const (
	KindStaffed     ServeKind = "staffed"
	KindSelfService ServeKind = "self_service"
)

// ResourcePool is a named class of identical servers with a FIFO wait
// queue. Busy-time and queue-length statistics are integrated over
// simulated time at every state change, never sampled at poll points.
//
// Invariants (violations panic, they are programming defects):
//   - busy count never exceeds capacity
//   - Seat requires a free server, Release requires a busy one
type ResourcePool struct {
	Name     string
	Kind     ServeKind
	Capacity int

	Queue *WaitQueue

	busy   int
	served int

	// Time integrals in tick-units: Σ state × Δt between changes.
	lastChange   int64
	busyTicks    int64
	queueTicks   int64
	peakQueueLen int
}

// NewResourcePool creates an idle pool. Zero capacity is legal: such a
// pool never seats anyone and all of its arrivals wait forever.
func NewResourcePool(name string, kind ServeKind, capacity int) *ResourcePool {
	return &ResourcePool{
		Name:     name,
		Kind:     kind,
		Capacity: capacity,
		Queue:    &WaitQueue{},
	}
}

// Busy returns the number of occupied servers.
func (p *ResourcePool) Busy() int {
	return p.busy
}

// FreeServers returns how many servers are idle.
func (p *ResourcePool) FreeServers() int {
	return p.Capacity - p.busy
}

// Served returns how many customers completed service in this pool.
func (p *ResourcePool) Served() int {
	return p.served
}

// PeakQueueLen returns the maximum queue length observed so far.
func (p *ResourcePool) PeakQueueLen() int {
	return p.peakQueueLen
}

// advanceTo accumulates the busy and queue-length integrals up to now.
// Every state mutation must call it first.
func (p *ResourcePool) advanceTo(now int64) {
	if now < p.lastChange {
		panic(fmt.Sprintf("pool %s: time went backwards: %d < %d", p.Name, now, p.lastChange))
	}
	dt := now - p.lastChange
	p.busyTicks += int64(p.busy) * dt
	p.queueTicks += int64(p.Queue.Len()) * dt
	p.lastChange = now
}

// Seat occupies one server at time now.
func (p *ResourcePool) Seat(now int64) {
	p.advanceTo(now)
	if p.busy >= p.Capacity {
		panic(fmt.Sprintf("pool %s: seat with no free server (busy=%d capacity=%d)", p.Name, p.busy, p.Capacity))
	}
	p.busy++
}

// Release frees one server at time now and counts the completed customer.
func (p *ResourcePool) Release(now int64) {
	p.advanceTo(now)
	if p.busy == 0 {
		panic(fmt.Sprintf("pool %s: release on idle pool", p.Name))
	}
	p.busy--
	p.served++
}

// EnqueueWaiting appends a customer to the wait queue at time now.
func (p *ResourcePool) EnqueueWaiting(c *Customer, now int64) {
	p.advanceTo(now)
	p.Queue.Enqueue(c)
	if p.Queue.Len() > p.peakQueueLen {
		p.peakQueueLen = p.Queue.Len()
	}
}

// DequeueWaiting removes and returns the head of the wait queue at time
// now, or nil when nobody waits.
func (p *ResourcePool) DequeueWaiting(now int64) *Customer {
	p.advanceTo(now)
	return p.Queue.Dequeue()
}

// RemoveWaiting removes a specific customer from the wait queue (renege or
// horizon flush). Returns false if the customer is no longer queued.
func (p *ResourcePool) RemoveWaiting(c *Customer, now int64) bool {
	p.advanceTo(now)
	return p.Queue.Remove(c)
}

// Finalize closes the integrals at the run's end time.
func (p *ResourcePool) Finalize(now int64) {
	p.advanceTo(now)
}

// Load is the normalized pressure on this pool: (waiting + busy) divided
// by capacity, so pools of different sizes compare fairly. A zero-capacity
// pool reports infinite load and never attracts routing.
func (p *ResourcePool) Load() float64 {
	if p.Capacity == 0 {
		return math.Inf(1)
	}
	return float64(p.Queue.Len()+p.busy) / float64(p.Capacity)
}

// Utilization is the busy-time integral over capacity × duration.
func (p *ResourcePool) Utilization(duration int64) float64 {
	if p.Capacity == 0 || duration == 0 {
		return 0
	}
	return float64(p.busyTicks) / (float64(p.Capacity) * float64(duration))
}

// AvgQueueLen is the time-averaged wait-queue length over the run.
func (p *ResourcePool) AvgQueueLen(duration int64) float64 {
	if duration == 0 {
		return 0
	}
	return float64(p.queueTicks) / float64(duration)
}
