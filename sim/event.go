package sim

// EventType identifies the kind of a simulation event.
type EventType string

const (
	EventTypeArrival       EventType = "Arrival"
	EventTypeCompletion    EventType = "Completion"
	EventTypeSeatNext      EventType = "SeatNext"
	EventTypeRenege        EventType = "Renege"
	EventTypeHorizonCutoff EventType = "HorizonCutoff"
)

// EventTypePriority defines ordering for simultaneous events.
// Lower values are processed first. Arrivals precede completions at equal
// timestamps so a customer arriving exactly when a server frees still
// queues behind everyone already waiting; seat-next events run after all
// completions of that instant have freed their servers; renege comes after
// seat-next so a customer seated at the exact patience deadline is served.
var EventTypePriority = map[EventType]int{
	EventTypeArrival:       1,
	EventTypeCompletion:    2,
	EventTypeSeatNext:      3,
	EventTypeRenege:        4,
	EventTypeHorizonCutoff: 5,
}

// Event represents a timestamped simulation action, processed exactly once.
type Event interface {
	Timestamp() int64
	EventID() uint64
	Type() EventType
	Execute(sim *Simulation)
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	timestamp int64
	eventID   uint64
	eventType EventType
}

func newBaseEvent(timestamp int64, eventID uint64, eventType EventType) BaseEvent {
	return BaseEvent{
		timestamp: timestamp,
		eventID:   eventID,
		eventType: eventType,
	}
}

func (e *BaseEvent) Timestamp() int64 {
	return e.timestamp
}

func (e *BaseEvent) EventID() uint64 {
	return e.eventID
}

func (e *BaseEvent) Type() EventType {
	return e.eventType
}

// ArrivalEvent represents a customer arriving at the pickup point.
type ArrivalEvent struct {
	BaseEvent
	Customer *Customer
}

func NewArrivalEvent(timestamp int64, eventID uint64, c *Customer) *ArrivalEvent {
	return &ArrivalEvent{
		BaseEvent: newBaseEvent(timestamp, eventID, EventTypeArrival),
		Customer:  c,
	}
}

func (e *ArrivalEvent) Execute(sim *Simulation) {
	sim.handleArrival(e)
}

// CompletionEvent represents a customer finishing service and departing.
type CompletionEvent struct {
	BaseEvent
	Customer *Customer
}

func NewCompletionEvent(timestamp int64, eventID uint64, c *Customer) *CompletionEvent {
	return &CompletionEvent{
		BaseEvent: newBaseEvent(timestamp, eventID, EventTypeCompletion),
		Customer:  c,
	}
}

func (e *CompletionEvent) Execute(sim *Simulation) {
	sim.handleCompletion(e)
}

// SeatNextEvent represents the zero-duration re-seating pass over a pool
// after one of its servers frees. Scheduled at the freeing completion's
// own timestamp so simulated time never advances between the two.
type SeatNextEvent struct {
	BaseEvent
	Pool *ResourcePool
}

func NewSeatNextEvent(timestamp int64, eventID uint64, pool *ResourcePool) *SeatNextEvent {
	return &SeatNextEvent{
		BaseEvent: newBaseEvent(timestamp, eventID, EventTypeSeatNext),
		Pool:      pool,
	}
}

func (e *SeatNextEvent) Execute(sim *Simulation) {
	sim.handleSeatNext(e)
}

// RenegeEvent fires when a waiting customer's patience runs out. It is a
// no-op if the customer was already seated (lazy cancellation).
type RenegeEvent struct {
	BaseEvent
	Customer *Customer
}

func NewRenegeEvent(timestamp int64, eventID uint64, c *Customer) *RenegeEvent {
	return &RenegeEvent{
		BaseEvent: newBaseEvent(timestamp, eventID, EventTypeRenege),
		Customer:  c,
	}
}

func (e *RenegeEvent) Execute(sim *Simulation) {
	sim.handleRenege(e)
}

// HorizonCutoffEvent flushes all waiting customers at the horizon when the
// run is configured with TerminationCutoff. In-flight customers still
// complete naturally; nobody new is seated afterwards.
type HorizonCutoffEvent struct {
	BaseEvent
}

func NewHorizonCutoffEvent(timestamp int64, eventID uint64) *HorizonCutoffEvent {
	return &HorizonCutoffEvent{
		BaseEvent: newBaseEvent(timestamp, eventID, EventTypeHorizonCutoff),
	}
}

func (e *HorizonCutoffEvent) Execute(sim *Simulation) {
	sim.handleHorizonCutoff(e)
}
