package serializer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSpan      = errors.New("invalid span")
	ErrUnsupportedValue = errors.New("unsupported value")
	ErrReservedKey      = errors.New("reserved key")
)

// SerializationError reports a freeform payload entry that cannot be written.
// Key is the path of the offending value, e.g. "resource.attrs[2]".
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize data key %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
