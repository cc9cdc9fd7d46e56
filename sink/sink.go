// Package sink provides the per-session delivery queue drained by the
// session's outbound loop.
package sink

import (
	"context"
	"sync"

	"termchat/domain"
)

// Sink owns a bounded channel of messages addressed to one connection.
// The router enqueues through Consume; only the owning session drains.
type Sink struct {
	mu       sync.Mutex
	closed   bool
	messages chan domain.Message
}

func NewSink(bufferSize int) *Sink {
	return &Sink{messages: make(chan domain.Message, bufferSize)}
}

// Consume is called by the router during fanout or direct delivery.
// It never blocks: a full queue drops the message (backpressure on a slow
// client must not stall the sender), and a closed sink swallows it
// silently so racing with a disconnect cannot panic.
func (s *Sink) Consume(ctx context.Context, m domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.messages <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Messages exposes the drain side to the owning session only.
func (s *Sink) Messages() <-chan domain.Message {
	return s.messages
}

// Close seals the queue. The outbound loop drains what is already buffered
// and then exits. Safe to call more than once.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.messages)
	}
}
