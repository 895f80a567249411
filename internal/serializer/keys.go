package serializer

// Wire keys of the Instana span ingestion schema. These are a fixed contract with the
// backend and must not change.
const (
	KeyTraceID     = "t"
	KeySpanID      = "s"
	KeyParentID    = "p"
	KeyName        = "n"
	KeyKind        = "k"
	KeyTimestamp   = "ts"
	KeyDuration    = "d"
	KeyErrorCount  = "ec"
	KeyLongTraceID = "lt"
	KeyTraceParent = "tp"
	KeyFrom        = "f"
	KeyEntityID    = "e"
	KeyHost        = "h"
	KeyData        = "data"
	KeyTags        = "tags"
	KeyEvents      = "events"

	KeyEventName      = "name"
	KeyEventTimestamp = "ts"
	KeyEventTags      = "tags"

	KeySpans = "spans"
)

// TicksPerWireUnit is the divisor between raw span timings (100ns ticks) and the wire
// unit (milliseconds).
const TicksPerWireUnit = 10_000

// ToWireUnit converts a raw timing to the wire unit. The remainder is truncated toward
// zero.
func ToWireUnit(raw int64) int64 {
	return raw / TicksPerWireUnit
}

// FromWireUnit is the inverse of ToWireUnit up to the truncated remainder.
func FromWireUnit(wire int64) int64 {
	return wire * TicksPerWireUnit
}
