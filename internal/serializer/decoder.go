package serializer

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"gofr.dev/instana-exporter/internal/model"
)

const readBufferSize = 4096

var errTrailingData = errors.New("unexpected data after top-level value")

// DecodeSpan reads a single span object from r. Wire timings are converted back to
// ticks, so any remainder truncated on write is lost.
func DecodeSpan(r io.Reader) (*model.Span, error) {
	iter := jsoniter.Parse(jsoniter.ConfigCompatibleWithStandardLibrary, r, readBufferSize)

	span := readSpan(iter)
	if err := readEnd(iter); err != nil {
		return nil, fmt.Errorf("decode span: %w", err)
	}

	if err := Validate(span); err != nil {
		return nil, err
	}

	return span, nil
}

// readEnd reports the iterator's error, or errTrailingData when anything but
// whitespace follows the top-level value.
func readEnd(iter *jsoniter.Iterator) error {
	if iter.Error != nil {
		return iter.Error
	}

	// Peeking past the value only hits io.EOF when the input is exhausted.
	iter.WhatIsNext()

	switch {
	case errors.Is(iter.Error, io.EOF):
		return nil
	case iter.Error != nil:
		return iter.Error
	default:
		return errTrailingData
	}
}

// DecodeBundle reads a {"spans":[...]} document from r.
func DecodeBundle(r io.Reader) ([]*model.Span, error) {
	iter := jsoniter.Parse(jsoniter.ConfigCompatibleWithStandardLibrary, r, readBufferSize)

	var spans []*model.Span

	iter.ReadObjectCB(func(iter *jsoniter.Iterator, f string) bool {
		switch f {
		case KeySpans:
			iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
				spans = append(spans, readSpan(iter))
				return true
			})
		default:
			iter.Skip()
		}

		return true
	})

	if err := readEnd(iter); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	for i, span := range spans {
		if err := Validate(span); err != nil {
			return nil, fmt.Errorf("span %d: %w", i, err)
		}
	}

	return spans, nil
}

func readSpan(iter *jsoniter.Iterator) *model.Span {
	span := &model.Span{}

	iter.ReadObjectCB(func(iter *jsoniter.Iterator, f string) bool {
		if iter.ReadNil() {
			return true
		}

		switch f {
		case KeyTraceID:
			span.TraceID = iter.ReadString()
		case KeySpanID:
			span.SpanID = iter.ReadString()
		case KeyParentID:
			span.ParentID = model.Some(iter.ReadString())
		case KeyName:
			span.Name = iter.ReadString()
		case KeyKind:
			span.Kind = model.Some(model.Kind(iter.ReadInt()))
		case KeyTimestamp:
			span.Timestamp = model.Some(FromWireUnit(iter.ReadInt64()))
		case KeyDuration:
			span.Duration = FromWireUnit(iter.ReadInt64())
		case KeyErrorCount:
			span.ErrorCount = iter.ReadInt64()
		case KeyLongTraceID:
			span.LongTraceID = model.Some(iter.ReadString())
		case KeyTraceParent:
			span.TraceParent = model.Some(iter.ReadBool())
		case KeyFrom:
			span.From = model.Some(readFrom(iter))
		case KeyData:
			span.Data = readData(iter)
		default:
			iter.Skip()
		}

		return true
	})

	return span
}

func readFrom(iter *jsoniter.Iterator) model.From {
	var from model.From

	iter.ReadObjectCB(func(iter *jsoniter.Iterator, f string) bool {
		switch f {
		case KeyEntityID:
			from.EntityID = iter.ReadString()
		case KeyHost:
			from.Host = iter.ReadString()
		default:
			iter.Skip()
		}

		return true
	})

	return from
}

func readData(iter *jsoniter.Iterator) *model.Data {
	data := model.NewData()

	iter.ReadObjectCB(func(iter *jsoniter.Iterator, f string) bool {
		switch f {
		case KeyTags:
			data.Tags = readTags(iter)
		case KeyEvents:
			iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
				data.Events = append(data.Events, readEvent(iter))
				return true
			})
		default:
			if iter.ReadNil() {
				return true
			}

			data.Payload[f] = readValue(iter)
		}

		return true
	})

	return data
}

func readEvent(iter *jsoniter.Iterator) model.Event {
	var e model.Event

	iter.ReadObjectCB(func(iter *jsoniter.Iterator, f string) bool {
		switch f {
		case KeyEventName:
			e.Name = iter.ReadString()
		case KeyEventTimestamp:
			e.Timestamp = FromWireUnit(iter.ReadInt64())
		case KeyEventTags:
			e.Tags = readTags(iter)
		default:
			iter.Skip()
		}

		return true
	})

	return e
}

func readTags(iter *jsoniter.Iterator) map[string]string {
	tags := make(map[string]string)

	iter.ReadMapCB(func(iter *jsoniter.Iterator, k string) bool {
		tags[k] = iter.ReadString()
		return true
	})

	return tags
}

func readValue(iter *jsoniter.Iterator) model.Value {
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		return model.StringValue(iter.ReadString())
	case jsoniter.NumberValue:
		n := iter.ReadNumber()
		if i, err := n.Int64(); err == nil {
			return model.IntValue(i)
		}

		f, err := n.Float64()
		if err != nil {
			iter.ReportError("readValue", err.Error())
			return model.Value{}
		}

		return model.DoubleValue(f)
	case jsoniter.BoolValue:
		return model.BoolValue(iter.ReadBool())
	case jsoniter.ObjectValue:
		m := make(map[string]model.Value)

		iter.ReadMapCB(func(iter *jsoniter.Iterator, k string) bool {
			if !iter.ReadNil() {
				m[k] = readValue(iter)
			}

			return true
		})

		return model.MapValue(m)
	case jsoniter.ArrayValue:
		vs := []model.Value{}

		iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
			if !iter.ReadNil() {
				vs = append(vs, readValue(iter))
			}

			return true
		})

		return model.SliceValue(vs...)
	default:
		iter.Skip()
		return model.Value{}
	}
}
