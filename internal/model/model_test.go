package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	some := Some("abc")
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.Equal(t, "abc", some.Or("def"))

	none := None[string]()
	assert.False(t, none.HasValue())
	assert.Equal(t, "", none.Value())
	assert.Equal(t, "def", none.Or("def"))

	var zero Optional[bool]
	assert.False(t, zero.HasValue())

	assert.True(t, Some(false).HasValue(), "a present false is still present")
}

func TestValueTypes(t *testing.T) {
	tests := []struct {
		desc string
		val  Value
		typ  ValueType
	}{
		{"empty", Value{}, ValueTypeEmpty},
		{"string", StringValue("a"), ValueTypeStr},
		{"int", IntValue(3), ValueTypeInt},
		{"double", DoubleValue(1.5), ValueTypeDouble},
		{"bool", BoolValue(true), ValueTypeBool},
		{"map", MapValue(nil), ValueTypeMap},
		{"slice", SliceValue(), ValueTypeSlice},
	}

	for i, tc := range tests {
		assert.Equal(t, tc.typ, tc.val.Type(), "TEST[%d], Failed.\n%s", i, tc.desc)
	}

	assert.NotNil(t, MapValue(nil).Map())
	assert.NotNil(t, SliceValue().Slice())
	assert.Equal(t, "Double", ValueTypeDouble.String())
}

func TestValueClone(t *testing.T) {
	orig := MapValue(map[string]Value{
		"list": SliceValue(StringValue("a"), IntValue(1)),
	})

	c := orig.Clone()
	c.Map()["list"].Slice()[0] = StringValue("changed")
	c.Map()["extra"] = BoolValue(true)

	assert.Equal(t, "a", orig.Map()["list"].Slice()[0].Str())
	assert.NotContains(t, orig.Map(), "extra")
}

func TestSpanClone(t *testing.T) {
	s := NewSpan("t1", "s1", "otel")
	s.ParentID = Some("p1")
	s.Data.Tags["k"] = "v"
	s.Data.Payload["service"] = StringValue("svc")
	s.Data.Events = []Event{{Name: "e1", Timestamp: 10, Tags: map[string]string{"ek": "ev"}}}

	c := s.Clone()
	require.Equal(t, s, c)

	c.Data.Tags["k"] = "other"
	c.Data.Events[0].Tags["ek"] = "other"
	c.Data.Payload["service"] = StringValue("other")

	assert.Equal(t, "v", s.Data.Tags["k"])
	assert.Equal(t, "ev", s.Data.Events[0].Tags["ek"])
	assert.Equal(t, "svc", s.Data.Payload["service"].Str())

	var nilSpan *Span
	assert.Nil(t, nilSpan.Clone())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "entry", KindEntry.String())
	assert.Equal(t, "exit", KindExit.String())
	assert.Equal(t, "intermediate", KindIntermediate.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
