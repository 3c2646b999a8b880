// Package sim provides the core discrete-event simulation engine for an
// order pickup point under peak-hour load.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - customer.go: Customer lifecycle (arrived → waiting → in service → served/abandoned)
//   - event.go: Event types that drive the simulation (Arrival, Completion, SeatNext, etc.)
//   - simulator.go: The event loop, routing, seating, and the abandonment paths
//
// # Architecture
//
// The sim package holds the engine; supporting concerns live in sub-packages:
//   - sim/workload/: Inter-arrival, service, delay, and trial sampling
//   - sim/trace/: Per-customer and per-decision trace recording
//   - sim/experiment/: Replication across derived seeds and cross-run statistics
//
// # Determinism
//
// One run is fully determined by its Config and SimulationKey. Three rules
// keep it that way:
//   - Ties in the event heap break by event type priority, then by the
//     per-simulation event ID (creation order).
//   - Every stochastic concern draws from its own partitioned RNG stream,
//     and all per-customer draws happen at arrival in a fixed order, so
//     changing the routing policy never shifts anyone's randomness.
//   - Replication i of a scenario uses DeriveRunSeed(masterSeed, i); all
//     scenarios of an experiment share those derived seeds, pairing their
//     runs for low-variance comparison.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - RoutingPolicy: pick a zone (and pool) for each arriving customer
//   - workload.GapSampler / workload.DurationSampler: stochastic inputs
package sim
