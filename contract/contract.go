//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"termchat/domain"
)

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type WorkerName string

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery handle of one connected session.
// Consume must never block the caller: an enqueue to a full or closed
// sink is dropped, never escalated.
type EventSink interface {
	Consume(ctx context.Context, m domain.Message) error
}

type IRegistry interface {
	Register(username string, sink EventSink) error
	Unregister(username string)
	Lookup(username string) (EventSink, bool)
	Snapshot() []EventSink
}

// LineConn is the transport seen by a session: an ordered duplex channel
// carrying one text line per frame. Handshake and framing belong to the
// websocket layer behind it.
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
}
