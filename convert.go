package instana

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"gofr.dev/instana-exporter/internal/model"
)

// Instana files every OpenTelemetry span under this name; the operation goes to data.
const spanName = "otel"

const emptyTraceIDHalf = "0000000000000000"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func convertSpan(s sdktrace.ReadOnlySpan, from model.From) *model.Span {
	sc := s.SpanContext()
	traceID := sc.TraceID().String()

	span := model.NewSpan(traceID[16:], sc.SpanID().String(), spanName)

	if traceID[:16] != emptyTraceIDHalf {
		span.LongTraceID = model.Some(traceID)
	}

	if parent := s.Parent(); parent.IsValid() {
		span.ParentID = model.Some(parent.SpanID().String())

		if parent.IsRemote() {
			span.TraceParent = model.Some(true)
		}
	}

	span.Kind = model.Some(convertKind(s.SpanKind()))

	if start := s.StartTime(); !start.IsZero() {
		span.Timestamp = model.Some(toTicks(start))

		if end := s.EndTime(); end.After(start) {
			span.Duration = int64(end.Sub(start) / 100)
		}
	}

	span.From = model.Some(originOf(s.Resource(), from))

	if status := s.Status(); status.Code == codes.Error {
		span.ErrorCount = 1

		if status.Description != "" {
			span.Data.Payload["error"] = model.StringValue(status.Description)
		}
	}

	for _, kv := range s.Attributes() {
		k, v := attributeToStringPair(kv)
		span.Data.Tags[k] = v
	}

	payload := span.Data.Payload
	payload["operation"] = model.StringValue(s.Name())
	payload["kind"] = model.StringValue(s.SpanKind().String())

	if v, ok := s.Resource().Set().Value(semconv.ServiceNameKey); ok {
		payload["service"] = model.StringValue(v.Emit())
	}

	if ts := sc.TraceState().String(); ts != "" {
		payload["trace_state"] = model.StringValue(ts)
	}

	if lib := s.InstrumentationScope().Name; lib != "" {
		payload["library"] = model.StringValue(lib)
	}

	if s.Resource().Len() > 0 {
		payload["resource"] = resourceValue(s.Resource())
	}

	if n := s.DroppedAttributes(); n > 0 {
		payload["dropped_attributes"] = model.IntValue(int64(n))
	}

	for _, ev := range s.Events() {
		e := model.Event{
			Name:      ev.Name,
			Timestamp: toTicks(ev.Time),
			Tags:      make(map[string]string, len(ev.Attributes)),
		}

		for _, kv := range ev.Attributes {
			k, v := attributeToStringPair(kv)
			e.Tags[k] = v
		}

		span.Data.Events = append(span.Data.Events, e)
	}

	return span
}

// toTicks returns t as 100ns ticks since the Unix epoch.
func toTicks(t time.Time) int64 {
	return t.UnixNano() / 100
}

func convertKind(k trace.SpanKind) model.Kind {
	switch k {
	case trace.SpanKindServer, trace.SpanKindConsumer:
		return model.KindEntry
	case trace.SpanKindClient, trace.SpanKindProducer:
		return model.KindExit
	default:
		return model.KindIntermediate
	}
}

func originOf(res *resource.Resource, def model.From) model.From {
	from := def
	set := res.Set()

	if v, ok := set.Value(semconv.ProcessPIDKey); ok {
		from.EntityID = v.Emit()
	}

	if v, ok := set.Value(semconv.HostNameKey); ok && v.AsString() != "" {
		from.Host = v.AsString()
	}

	return from
}

func resourceValue(res *resource.Resource) model.Value {
	m := make(map[string]model.Value, res.Len())

	for iter := res.Iter(); iter.Next(); {
		kv := iter.Attribute()
		m[string(kv.Key)] = attributeValue(kv.Value)
	}

	return model.MapValue(m)
}

func attributeValue(v attribute.Value) model.Value {
	switch v.Type() {
	case attribute.BOOL:
		return model.BoolValue(v.AsBool())
	case attribute.INT64:
		return model.IntValue(v.AsInt64())
	case attribute.FLOAT64:
		return model.DoubleValue(v.AsFloat64())
	case attribute.BOOLSLICE:
		vals := v.AsBoolSlice()
		s := make([]model.Value, len(vals))

		for i, b := range vals {
			s[i] = model.BoolValue(b)
		}

		return model.SliceValue(s...)
	case attribute.INT64SLICE:
		vals := v.AsInt64Slice()
		s := make([]model.Value, len(vals))

		for i, n := range vals {
			s[i] = model.IntValue(n)
		}

		return model.SliceValue(s...)
	case attribute.FLOAT64SLICE:
		vals := v.AsFloat64Slice()
		s := make([]model.Value, len(vals))

		for i, f := range vals {
			s[i] = model.DoubleValue(f)
		}

		return model.SliceValue(s...)
	case attribute.STRINGSLICE:
		vals := v.AsStringSlice()
		s := make([]model.Value, len(vals))

		for i, str := range vals {
			s[i] = model.StringValue(str)
		}

		return model.SliceValue(s...)
	default:
		return model.StringValue(v.Emit())
	}
}

// attributeToStringPair renders slice attributes as a JSON list. Slices JSON cannot
// carry, such as floats holding NaN, fall back to the attribute's own rendering.
func attributeToStringPair(kv attribute.KeyValue) (string, string) {
	var list interface{}

	switch kv.Value.Type() {
	case attribute.BOOLSLICE:
		list = kv.Value.AsBoolSlice()
	case attribute.INT64SLICE:
		list = kv.Value.AsInt64Slice()
	case attribute.FLOAT64SLICE:
		list = kv.Value.AsFloat64Slice()
	case attribute.STRINGSLICE:
		list = kv.Value.AsStringSlice()
	default:
		return string(kv.Key), kv.Value.Emit()
	}

	data, err := json.Marshal(list)
	if err != nil {
		return string(kv.Key), kv.Value.Emit()
	}

	return string(kv.Key), string(data)
}
