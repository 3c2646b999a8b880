// Package trace provides per-customer and per-decision trace recording for
// a single simulation run. This package has no dependencies on sim/ and
// stores pure data types. All durations are reported in minutes of
// simulated time; -1 marks a transition that never happened.
package trace

// CustomerRecord captures one customer's complete passage through a run.
type CustomerRecord struct {
	CustomerID int     `json:"customer_id"`
	ArrivalMin float64 `json:"arrival_min"`
	Preferred  string  `json:"preferred"`
	Zone       string  `json:"zone,omitempty"`
	Pool       string  `json:"pool,omitempty"`
	Outcome    string  `json:"outcome"` // SERVED, BALKED, RENEGED or FLUSHED
	Delayed    bool    `json:"delayed"`
	WaitMin    float64 `json:"wait_min"`
	ServiceMin float64 `json:"service_min"`
	SojournMin float64 `json:"sojourn_min"`
}

// RoutingRecord captures a single routing policy decision.
type RoutingRecord struct {
	CustomerID int                `json:"customer_id"`
	ClockMin   float64            `json:"clock_min"`
	Zone       string             `json:"zone"`
	Pool       string             `json:"pool"`
	Reason     string             `json:"reason"`
	Loads      map[string]float64 `json:"loads,omitempty"` // zone name → load at decision time
}
