package model

// Kind is the Instana span kind.
type Kind int

const (
	KindEntry        Kind = 1
	KindExit         Kind = 2
	KindIntermediate Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindExit:
		return "exit"
	case KindIntermediate:
		return "intermediate"
	default:
		return "unknown"
	}
}

// Span is a single span in the Instana ingestion schema.
//
// Duration, Timestamp and Event.Timestamp hold ticks of 100 nanoseconds. The
// serializer converts them to the wire unit.
type Span struct {
	TraceID     string
	SpanID      string
	ParentID    Optional[string]
	Name        string
	Kind        Optional[Kind]
	Timestamp   Optional[int64]
	Duration    int64
	ErrorCount  int64
	LongTraceID Optional[string]
	TraceParent Optional[bool]
	From        Optional[From]
	Data        *Data
}

// From identifies the process and host that reported a span.
type From struct {
	EntityID string
	Host     string
}

// Data is the container for tags, freeform payload and events. It must never be nil on a
// span handed to the serializer.
type Data struct {
	Tags    map[string]string
	Payload map[string]Value
	Events  []Event
}

type Event struct {
	Name      string
	Timestamp int64
	Tags      map[string]string
}

func NewData() *Data {
	return &Data{
		Tags:    make(map[string]string),
		Payload: make(map[string]Value),
	}
}

func NewSpan(traceID, spanID, name string) *Span {
	return &Span{
		TraceID: traceID,
		SpanID:  spanID,
		Name:    name,
		Data:    NewData(),
	}
}

// Clone returns a deep copy of s.
func (s *Span) Clone() *Span {
	if s == nil {
		return nil
	}

	c := *s
	if s.Data != nil {
		c.Data = s.Data.Clone()
	}

	return &c
}

func (d *Data) Clone() *Data {
	c := &Data{
		Tags:    cloneTags(d.Tags),
		Payload: make(map[string]Value, len(d.Payload)),
	}

	for k, v := range d.Payload {
		c.Payload[k] = v.Clone()
	}

	if d.Events != nil {
		c.Events = make([]Event, len(d.Events))
		for i, e := range d.Events {
			c.Events[i] = Event{Name: e.Name, Timestamp: e.Timestamp, Tags: cloneTags(e.Tags)}
		}
	}

	return c
}

func cloneTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}

	c := make(map[string]string, len(tags))
	for k, v := range tags {
		c[k] = v
	}

	return c
}
