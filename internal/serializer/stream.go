package serializer

import (
	"io"
	"math"

	jsoniter "github.com/json-iterator/go"
)

const flushThreshold = 4096

// stream tracks whether a field was already written in each open object so callers
// never have to call WriteMore between fields. Keys and string values share one
// escaping path, so invalid UTF-8 becomes U+FFFD in both.
type stream struct {
	*jsoniter.Stream
	fieldWritten []bool
}

func borrowStream(w io.Writer) *stream {
	return &stream{
		Stream:       jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(w),
		fieldWritten: make([]bool, 0, 8),
	}
}

func returnStream(s *stream) {
	jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(s.Stream)
}

func (s *stream) WriteObjectStart() {
	s.Stream.WriteObjectStart()
	s.fieldWritten = append(s.fieldWritten, false)
}

func (s *stream) WriteObjectField(field string) {
	top := len(s.fieldWritten) - 1
	if s.fieldWritten[top] {
		s.WriteMore()
	}

	s.writeString(field)
	s.WriteRaw(":")
	s.fieldWritten[top] = true
}

func (s *stream) WriteObjectEnd() {
	s.Stream.WriteObjectEnd()
	s.fieldWritten = s.fieldWritten[:len(s.fieldWritten)-1]
}

func (s *stream) writeString(v string) {
	s.WriteStringWithHTMLEscaped(v)
}

// writeDouble keeps a fraction on integral values so they read back as doubles.
func (s *stream) writeDouble(v float64) {
	s.WriteFloat64(v)

	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		s.WriteRaw(".0")
	}
}

// flushIfFull hands buffered bytes to the sink once the buffer grows past
// flushThreshold. After a failed write no further bytes reach the sink.
func (s *stream) flushIfFull() error {
	if s.Error != nil {
		return s.Error
	}

	if s.Buffered() < flushThreshold {
		return nil
	}

	return s.Flush()
}
