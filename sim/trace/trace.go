package trace

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// TraceLevel controls the verbosity of run tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelCustomers captures one lifecycle record per customer.
	TraceLevelCustomers TraceLevel = "customers"
	// TraceLevelDecisions captures customer records plus every routing decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelCustomers: true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects records during one simulation run.
type SimulationTrace struct {
	Level     TraceLevel
	Customers []CustomerRecord
	Routings  []RoutingRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:     level,
		Customers: make([]CustomerRecord, 0),
		Routings:  make([]RoutingRecord, 0),
	}
}

// RecordCustomer appends a customer lifecycle record. No-op below
// TraceLevelCustomers.
func (st *SimulationTrace) RecordCustomer(record CustomerRecord) {
	if st.Level != TraceLevelCustomers && st.Level != TraceLevelDecisions {
		return
	}
	st.Customers = append(st.Customers, record)
}

// RecordRouting appends a routing decision record. No-op below
// TraceLevelDecisions.
func (st *SimulationTrace) RecordRouting(record RoutingRecord) {
	if st.Level != TraceLevelDecisions {
		return
	}
	st.Routings = append(st.Routings, record)
}

var traceJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonl line wrappers: embedding keeps record fields inline next to the
// type tag, so each line stays self-describing.
type customerLine struct {
	Type string `json:"type"`
	CustomerRecord
}

type routingLine struct {
	Type string `json:"type"`
	RoutingRecord
}

// WriteJSONL writes the trace as JSON Lines: one object per record, tagged
// with "type": "customer" or "routing". Customer records come first, in
// arrival order; routing records follow in decision order.
func (st *SimulationTrace) WriteJSONL(w io.Writer) error {
	enc := traceJSON.NewEncoder(w)
	for i := range st.Customers {
		if err := enc.Encode(customerLine{Type: "customer", CustomerRecord: st.Customers[i]}); err != nil {
			return fmt.Errorf("encoding customer record %d: %w", i, err)
		}
	}
	for i := range st.Routings {
		if err := enc.Encode(routingLine{Type: "routing", RoutingRecord: st.Routings[i]}); err != nil {
			return fmt.Errorf("encoding routing record %d: %w", i, err)
		}
	}
	return nil
}
