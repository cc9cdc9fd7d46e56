package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"termchat/domain"
)

func TestSink_ConsumeAndDrain(t *testing.T) {
	req := require.New(t)
	s := NewSink(2)

	req.NoError(s.Consume(context.Background(), domain.NewPublic("alice", "one")))
	req.NoError(s.Consume(context.Background(), domain.NewPublic("alice", "two")))

	first := <-s.Messages()
	second := <-s.Messages()
	req.Equal("one", first.Body)
	req.Equal("two", second.Body)
}

func TestSink_FullQueueDropsWithoutBlocking(t *testing.T) {
	req := require.New(t)
	s := NewSink(1)

	req.NoError(s.Consume(context.Background(), domain.NewPublic("alice", "kept")))
	// The queue is full: this enqueue is dropped, the caller is not stalled.
	req.NoError(s.Consume(context.Background(), domain.NewPublic("alice", "dropped")))

	kept := <-s.Messages()
	req.Equal("kept", kept.Body)
	select {
	case m := <-s.Messages():
		req.Failf("unexpected delivery", "got %q", m.Body)
	default:
	}
}

func TestSink_ConsumeAfterCloseIsSilent(t *testing.T) {
	req := require.New(t)
	s := NewSink(1)

	s.Close()
	s.Close() // idempotent

	// Enqueue to a closed handle must not panic, per the registry contract.
	req.NoError(s.Consume(context.Background(), domain.NewPublic("alice", "late")))

	_, open := <-s.Messages()
	req.False(open)
}

func TestSink_CloseLetsBufferedMessagesDrain(t *testing.T) {
	req := require.New(t)
	s := NewSink(4)

	req.NoError(s.Consume(context.Background(), domain.NewSystem("goodbye")))
	s.Close()

	m, open := <-s.Messages()
	req.True(open)
	req.Equal("goodbye", m.Body)

	_, open = <-s.Messages()
	req.False(open)
}
