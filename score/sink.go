package score

import (
	"io"
	"sync"
)

// Sink receives textual score events, one statement per call.
type Sink interface {
	Emit(cmd string)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(cmd string)

func (f SinkFunc) Emit(cmd string) { f(cmd) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(string) {})

// WriterSink writes each event as one line to an io.Writer. The first write
// error is kept and every later event is dropped.
type WriterSink struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Emit(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, cmd+"\n")
}

// Err returns the first write error, if any.
func (s *WriterSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *Recorder) Emit(cmd string) {
	r.mu.Lock()
	r.lines = append(r.lines, cmd)
	r.mu.Unlock()
}

// Lines returns a copy of the recorded events in emission order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.lines = nil
	r.mu.Unlock()
}

// Tee forwards each event to every sink in order.
type Tee []Sink

func (t Tee) Emit(cmd string) {
	for _, s := range t {
		if s != nil {
			s.Emit(cmd)
		}
	}
}
