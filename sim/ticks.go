package sim

// Simulated time is measured in integer ticks so that event ordering and
// clock arithmetic stay exact. One tick is one microsecond of simulated
// time; configuration and reports speak in minutes.
const (
	TicksPerSecond int64 = 1_000_000
	TicksPerMinute int64 = 60 * TicksPerSecond
)

// MinutesToTicks converts a duration in simulated minutes to ticks.
func MinutesToTicks(min float64) int64 {
	return int64(min * float64(TicksPerMinute))
}

// TicksToMinutes converts ticks to simulated minutes.
func TicksToMinutes(t int64) float64 {
	return float64(t) / float64(TicksPerMinute)
}
