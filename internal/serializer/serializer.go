// Package serializer converts spans of the Instana wire model to and from the JSON
// span ingestion schema.
package serializer

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gofr.dev/instana-exporter/internal/model"
)

// Validate reports whether span can be serialized. It checks the required identifiers,
// the data container and every freeform payload value.
func Validate(span *model.Span) error {
	switch {
	case span == nil:
		return fmt.Errorf("%w: nil span", ErrInvalidSpan)
	case span.TraceID == "":
		return fmt.Errorf("%w: missing trace id", ErrInvalidSpan)
	case span.SpanID == "":
		return fmt.Errorf("%w: missing span id", ErrInvalidSpan)
	case span.Data == nil:
		return fmt.Errorf("%w: span %s has no data container", ErrInvalidSpan, span.SpanID)
	case span.ErrorCount < 0:
		return fmt.Errorf("%w: span %s has negative error count %d", ErrInvalidSpan, span.SpanID, span.ErrorCount)
	}

	for i, e := range span.Data.Events {
		if e.Name == "" {
			return fmt.Errorf("%w: span %s event %d has no name", ErrInvalidSpan, span.SpanID, i)
		}
	}

	for _, k := range sortedKeys(span.Data.Payload) {
		if k == KeyTags || k == KeyEvents {
			return &SerializationError{Key: k, Err: ErrReservedKey}
		}

		if err := validateValue(k, span.Data.Payload[k]); err != nil {
			return err
		}
	}

	return nil
}

func validateValue(path string, v model.Value) error {
	switch v.Type() {
	case model.ValueTypeStr, model.ValueTypeInt, model.ValueTypeBool:
		return nil
	case model.ValueTypeDouble:
		if math.IsNaN(v.Double()) || math.IsInf(v.Double(), 0) {
			return &SerializationError{Key: path, Err: fmt.Errorf("%w: %v", ErrUnsupportedValue, v.Double())}
		}

		return nil
	case model.ValueTypeMap:
		for _, k := range sortedKeys(v.Map()) {
			if err := validateValue(path+"."+k, v.Map()[k]); err != nil {
				return err
			}
		}

		return nil
	case model.ValueTypeSlice:
		for i, e := range v.Slice() {
			if err := validateValue(path+"["+strconv.Itoa(i)+"]", e); err != nil {
				return err
			}
		}

		return nil
	default:
		return &SerializationError{Key: path, Err: fmt.Errorf("%w: type %s", ErrUnsupportedValue, v.Type())}
	}
}

// WriteSpan writes span to w as a single JSON object. Nothing is written when span is
// invalid. When w fails the output is incomplete and must be discarded.
func WriteSpan(w io.Writer, span *model.Span) error {
	if err := Validate(span); err != nil {
		return err
	}

	s := borrowStream(w)
	defer returnStream(s)

	if err := writeSpan(s, span); err != nil {
		return fmt.Errorf("write span %s: %w", span.SpanID, err)
	}

	if err := s.Flush(); err != nil {
		return fmt.Errorf("write span %s: %w", span.SpanID, err)
	}

	return nil
}

// WriteBundle writes spans to w as {"spans":[...]}. Every span is validated before the
// first byte is written. ctx is checked between spans.
func WriteBundle(ctx context.Context, w io.Writer, spans []*model.Span) error {
	for i, span := range spans {
		if err := Validate(span); err != nil {
			return fmt.Errorf("span %d: %w", i, err)
		}
	}

	s := borrowStream(w)
	defer returnStream(s)

	s.WriteObjectStart()
	s.WriteObjectField(KeySpans)
	s.WriteArrayStart()

	for i, span := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i > 0 {
			s.WriteMore()
		}

		if err := writeSpan(s, span); err != nil {
			return fmt.Errorf("write bundle: %w", err)
		}
	}

	s.WriteArrayEnd()
	s.WriteObjectEnd()

	if err := s.Flush(); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}

	return nil
}

func writeSpan(s *stream, span *model.Span) error {
	s.WriteObjectStart()

	s.WriteObjectField(KeyTraceID)
	s.writeString(span.TraceID)

	s.WriteObjectField(KeySpanID)
	s.writeString(span.SpanID)

	if v, ok := span.ParentID.Get(); ok {
		s.WriteObjectField(KeyParentID)
		s.writeString(v)
	}

	if v, ok := span.LongTraceID.Get(); ok {
		s.WriteObjectField(KeyLongTraceID)
		s.writeString(v)
	}

	if v, ok := span.TraceParent.Get(); ok {
		s.WriteObjectField(KeyTraceParent)
		s.WriteBool(v)
	}

	if v, ok := span.Kind.Get(); ok {
		s.WriteObjectField(KeyKind)
		s.WriteInt(int(v))
	}

	s.WriteObjectField(KeyName)
	s.writeString(span.Name)

	if v, ok := span.Timestamp.Get(); ok {
		s.WriteObjectField(KeyTimestamp)
		s.WriteInt64(ToWireUnit(v))
	}

	s.WriteObjectField(KeyDuration)
	s.WriteInt64(ToWireUnit(span.Duration))

	s.WriteObjectField(KeyErrorCount)
	s.WriteInt64(span.ErrorCount)

	if from, ok := span.From.Get(); ok {
		s.WriteObjectField(KeyFrom)
		s.WriteObjectStart()
		s.WriteObjectField(KeyEntityID)
		s.writeString(from.EntityID)

		if from.Host != "" {
			s.WriteObjectField(KeyHost)
			s.writeString(from.Host)
		}

		s.WriteObjectEnd()
	}

	s.WriteObjectField(KeyData)

	if err := writeData(s, span.Data); err != nil {
		return err
	}

	s.WriteObjectEnd()

	return s.flushIfFull()
}

func writeData(s *stream, data *model.Data) error {
	s.WriteObjectStart()

	if len(data.Tags) > 0 {
		s.WriteObjectField(KeyTags)
		writeTags(s, data.Tags)
	}

	for _, k := range sortedKeys(data.Payload) {
		s.WriteObjectField(k)
		writeValue(s, data.Payload[k])
	}

	if len(data.Events) > 0 {
		s.WriteObjectField(KeyEvents)
		s.WriteArrayStart()

		for i := range data.Events {
			if i > 0 {
				s.WriteMore()
			}

			writeEvent(s, &data.Events[i])

			if err := s.flushIfFull(); err != nil {
				return err
			}
		}

		s.WriteArrayEnd()
	}

	s.WriteObjectEnd()

	return s.Error
}

func writeEvent(s *stream, e *model.Event) {
	s.WriteObjectStart()

	s.WriteObjectField(KeyEventName)
	s.writeString(e.Name)

	s.WriteObjectField(KeyEventTimestamp)
	s.WriteInt64(ToWireUnit(e.Timestamp))

	if len(e.Tags) > 0 {
		s.WriteObjectField(KeyEventTags)
		writeTags(s, e.Tags)
	}

	s.WriteObjectEnd()
}

func writeTags(s *stream, tags map[string]string) {
	s.WriteObjectStart()

	for _, k := range sortedKeys(tags) {
		s.WriteObjectField(k)
		s.writeString(tags[k])
	}

	s.WriteObjectEnd()
}

func writeValue(s *stream, v model.Value) {
	switch v.Type() {
	case model.ValueTypeStr:
		s.writeString(v.Str())
	case model.ValueTypeInt:
		s.WriteInt64(v.Int())
	case model.ValueTypeDouble:
		s.writeDouble(v.Double())
	case model.ValueTypeBool:
		s.WriteBool(v.Bool())
	case model.ValueTypeMap:
		s.WriteObjectStart()

		for _, k := range sortedKeys(v.Map()) {
			s.WriteObjectField(k)
			writeValue(s, v.Map()[k])
		}

		s.WriteObjectEnd()
	case model.ValueTypeSlice:
		s.WriteArrayStart()

		for i, e := range v.Slice() {
			if i > 0 {
				s.WriteMore()
			}

			writeValue(s, e)
		}

		s.WriteArrayEnd()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
