package sim

// CustomerState represents the lifecycle state of a customer.
type CustomerState string

const (
	CustomerStateArrived   CustomerState = "ARRIVED"
	CustomerStateWaiting   CustomerState = "WAITING"
	CustomerStateInService CustomerState = "IN_SERVICE"
	CustomerStateServed    CustomerState = "SERVED"
	CustomerStateBalked    CustomerState = "BALKED"
	CustomerStateReneged   CustomerState = "RENEGED"
	CustomerStateFlushed   CustomerState = "FLUSHED"
)

// Abandoned reports whether the state is one of the churn outcomes.
func (s CustomerState) Abandoned() bool {
	return s == CustomerStateBalked || s == CustomerStateReneged || s == CustomerStateFlushed
}

// Customer is one visitor to the pickup point. All stochastic attributes
// (service duration, delay, kind preference) are drawn at arrival from
// dedicated RNG substreams, so two runs that differ only in routing policy
// present every customer with identical draws.
//
// A customer is owned exclusively by the run that created it and is never
// mutated after departure is recorded.
type Customer struct {
	// Identity: sequential within a run, assigned in arrival order.
	ID int

	// Timing (ticks). ServiceStartTime and DepartureTime are -1 until the
	// corresponding transition happens; t=0 is a valid instant.
	ArrivalTime      int64
	ServiceStartTime int64
	DepartureTime    int64

	// Draws fixed at arrival.
	PreferredKind   ServeKind
	ServiceDuration int64 // sampled duration before zone efficiency
	DelayDuration   int64 // extra duration from the delay trial, 0 if none
	Delayed         bool

	// Routing outcome.
	AssignedPool *ResourcePool
	AssignedZone *Zone

	State CustomerState
}

// NewCustomer creates a customer in the ARRIVED state.
func NewCustomer(id int, arrivalTime int64) *Customer {
	return &Customer{
		ID:               id,
		ArrivalTime:      arrivalTime,
		ServiceStartTime: -1,
		DepartureTime:    -1,
		State:            CustomerStateArrived,
	}
}

// WaitTicks returns service start minus arrival. Only meaningful once the
// customer has started service; -1 otherwise.
func (c *Customer) WaitTicks() int64 {
	if c.ServiceStartTime < 0 {
		return -1
	}
	return c.ServiceStartTime - c.ArrivalTime
}

// SojournTicks returns departure minus arrival, or -1 before departure.
func (c *Customer) SojournTicks() int64 {
	if c.DepartureTime < 0 {
		return -1
	}
	return c.DepartureTime - c.ArrivalTime
}

// TotalServiceTicks is the effective time the customer occupies a server:
// the sampled duration scaled by the assigned zone's efficiency, plus the
// delay draw. The scaled value floors at one tick so an aggressive
// efficiency factor can never produce a zero-length occupation.
func (c *Customer) TotalServiceTicks() int64 {
	d := c.ServiceDuration
	if c.AssignedZone != nil {
		d = int64(float64(d) * c.AssignedZone.Efficiency)
	}
	if d < 1 {
		d = 1
	}
	return d + c.DelayDuration
}
