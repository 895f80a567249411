package acceptor

import (
	"sync"

	"gofr.dev/instana-exporter/internal/model"
)

// Store keeps the most recent spans in arrival order, up to a fixed capacity.
type Store struct {
	mu       sync.RWMutex
	capacity int
	spans    []*model.Span
}

// NewStore returns a store holding up to capacity spans. A capacity below one
// falls back to DefaultMaxSpans.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultMaxSpans
	}

	return &Store{
		capacity: capacity,
		spans:    make([]*model.Span, 0, capacity),
	}
}

// Add appends spans, evicting the oldest ones once the store is full.
func (s *Store) Add(spans ...*model.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(spans) >= s.capacity {
		spans = spans[len(spans)-s.capacity:]
		s.spans = s.spans[:0]
	}

	if overflow := len(s.spans) + len(spans) - s.capacity; overflow > 0 {
		s.spans = append(s.spans[:0], s.spans[overflow:]...)
	}

	for _, span := range spans {
		s.spans = append(s.spans, span.Clone())
	}
}

// ByTraceID returns copies of the stored spans of one trace, matching either the short
// or the long trace id.
func (s *Store) ByTraceID(traceID string) []*model.Span {
	if traceID == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var spans []*model.Span

	for _, span := range s.spans {
		if span.TraceID == traceID || span.LongTraceID.Or("") == traceID {
			spans = append(spans, span.Clone())
		}
	}

	return spans
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.spans)
}
