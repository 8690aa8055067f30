package activitymap

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	auth "github.com/goliatone/go-auth-gate"
)

// WriterSink appends every event to w as one JSON document per line.
type WriterSink struct {
	mu   sync.Mutex
	enc  *json.Encoder
	opts []Option
}

var _ auth.ActivitySink = (*WriterSink)(nil)

// NewWriterSink returns a sink writing normalized records to w.
func NewWriterSink(w io.Writer, opts ...Option) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w), opts: opts}
}

// Record implements auth.ActivitySink.
func (s *WriterSink) Record(_ context.Context, event auth.ActivityEvent) error {
	record := Normalize(event, s.opts...)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(record)
}
