// Package timeline provides the monotone time and duration types that
// sequence every state admission and deadline computation in the engine.
package timeline

import (
	"encoding/json"
	"fmt"
)

// Time is a non-negative count of milliseconds since the start of a test
// run. It is a pure sequencing token over caller-supplied timestamps, not
// a wall clock: the engine never reads the system clock itself.
type Time struct {
	ms int64
}

// Zero is the smallest representable Time.
var Zero = Time{}

// At constructs a Time from a non-negative millisecond offset.
func At(ms int64) Time {
	return Time{ms: ms}
}

// Milliseconds returns the numeric millisecond value.
func (t Time) Milliseconds() int64 {
	return t.ms
}

// IsBefore reports whether t is strictly earlier than other.
func (t Time) IsBefore(other Time) bool {
	return t.ms < other.ms
}

// Equal reports whether t and other denote the same instant.
func (t Time) Equal(other Time) bool {
	return t.ms == other.ms
}

// Add returns the Time offset forward by d.
func (t Time) Add(d Duration) Time {
	return Time{ms: t.ms + d.Milliseconds()}
}

// String renders the time as "<ms>ms" for logs and error messages.
func (t Time) String() string {
	return fmt.Sprintf("%dms", t.ms)
}

// MarshalJSON renders the time as its raw millisecond value, so a
// ViolationTree embedding a Time serializes as a plain number rather than
// exposing the unexported field layout.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ms)
}

// UnmarshalJSON reads a raw millisecond value back into t.
func (t *Time) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.ms)
}

// Unit is the unit a Duration was constructed with.
type Unit int

const (
	Milliseconds Unit = iota
	Seconds
)

// String renders the unit name, e.g. for config validation errors.
func (u Unit) String() string {
	switch u {
	case Milliseconds:
		return "milliseconds"
	case Seconds:
		return "seconds"
	default:
		return "unknown"
	}
}

// Duration is a magnitude with a unit, used only as an offset added to a
// Time (e.g. an `within` deadline). It carries no notion of "now".
type Duration struct {
	magnitude int64
	unit      Unit
}

// Millis constructs a Duration of n milliseconds.
func Millis(n int64) Duration {
	return Duration{magnitude: n, unit: Milliseconds}
}

// Secs constructs a Duration of n seconds.
func Secs(n int64) Duration {
	return Duration{magnitude: n, unit: Seconds}
}

// New constructs a Duration of n units in the given Unit, matching the
// DSL's `within(n, unit)` call shape.
func New(n int64, unit Unit) Duration {
	return Duration{magnitude: n, unit: unit}
}

// Milliseconds returns the canonical millisecond value of the duration.
func (d Duration) Milliseconds() int64 {
	switch d.unit {
	case Seconds:
		return d.magnitude * 1000
	default:
		return d.magnitude
	}
}

// String renders the duration in its original unit, e.g. "5s" or "250ms".
func (d Duration) String() string {
	switch d.unit {
	case Seconds:
		return fmt.Sprintf("%ds", d.magnitude)
	default:
		return fmt.Sprintf("%dms", d.magnitude)
	}
}
