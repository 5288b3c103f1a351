package redisdriver

import (
	"sync"

	lettuce "github.com/handsfreemc/lettuce-core"
)

// BatchOutput holds a single reply value available once its command
// completes. It implements the lettuce CommandOutput interface.
type BatchOutput struct {
	mu    sync.Mutex
	value interface{}
	err   error
}

// IsStreaming always returns false for a batch output.
func (b *BatchOutput) IsStreaming() bool { return false }

// TakeResult returns the completed reply value if one was set.
func (b *BatchOutput) TakeResult() (interface{}, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.value != nil
}

// HasError reports whether the command produced an error reply.
func (b *BatchOutput) HasError() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err != nil
}

// Err returns the error reply, if any.
func (b *BatchOutput) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *BatchOutput) setValue(value interface{}) {
	b.mu.Lock()
	b.value = value
	b.mu.Unlock()
}

func (b *BatchOutput) setError(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// ArrayOutput holds an ordered multi-bulk reply available once its command
// completes. It implements the lettuce CollectionOutput interface, which
// lets a dissolving publisher emit the reply element by element.
type ArrayOutput struct {
	mu       sync.Mutex
	elements []interface{}
	err      error
}

// IsStreaming always returns false for an array output.
func (a *ArrayOutput) IsStreaming() bool { return false }

// TakeResult returns the whole reply as one value.
func (a *ArrayOutput) TakeResult() (interface{}, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.elements == nil {
		return nil, false
	}
	return a.elements, true
}

// TakeElements returns the reply as its ordered elements.
func (a *ArrayOutput) TakeElements() []interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elements
}

// HasError reports whether the command produced an error reply.
func (a *ArrayOutput) HasError() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err != nil
}

// Err returns the error reply, if any.
func (a *ArrayOutput) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *ArrayOutput) setElements(elements []interface{}) {
	a.mu.Lock()
	a.elements = elements
	a.mu.Unlock()
}

func (a *ArrayOutput) setError(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// StreamOutput pushes each decoded value to its sink as it arrives,
// ahead of command completion. It implements the lettuce StreamingOutput
// interface; the reactive layer installs the subscription as the sink.
type StreamOutput struct {
	mu   sync.Mutex
	sink lettuce.Sink
	err  error
}

// IsStreaming always returns true for a stream output.
func (s *StreamOutput) IsStreaming() bool { return true }

// TakeResult returns nothing; values were pushed during decode.
func (s *StreamOutput) TakeResult() (interface{}, bool) { return nil, false }

// HasError reports whether the command produced an error reply.
func (s *StreamOutput) HasError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}

// Err returns the error reply, if any.
func (s *StreamOutput) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetSink installs the sink receiving decoded values.
func (s *StreamOutput) SetSink(sink lettuce.Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Sink returns the installed sink, if any.
func (s *StreamOutput) Sink() lettuce.Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}

func (s *StreamOutput) setError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *StreamOutput) push(value interface{}) {
	if sink := s.Sink(); sink != nil {
		sink.OnNext(value)
	}
}
