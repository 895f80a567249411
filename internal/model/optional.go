package model

// Optional holds a value that may be absent. Absent fields are left out of the wire
// document instead of being written as null.
type Optional[T any] struct {
	value    T
	hasValue bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, hasValue: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) HasValue() bool {
	return o.hasValue
}

// Value returns the held value, or the zero value of T when absent.
func (o Optional[T]) Value() T {
	return o.value
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.hasValue
}

func (o Optional[T]) Or(def T) T {
	if o.hasValue {
		return o.value
	}

	return def
}
