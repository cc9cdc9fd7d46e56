package workers

import (
	"context"
	"log/slog"

	"termchat/contract"
	"termchat/domain"
	"termchat/repositories"
)

// AppendRequest carries one message to persist plus the sink of the session
// that sent it, so a storage failure can be reported back to its origin.
type AppendRequest struct {
	Message domain.Message
	Origin  contract.EventSink
}

// LogWriter owns the only write path to the message log. Routing goroutines
// enqueue and move on; disk latency never stalls a session, and appends are
// serialized by construction.
type LogWriter struct {
	repository repositories.IMessageRepository
	requests   chan AppendRequest
	log        *slog.Logger
}

func NewLogWriter(repository repositories.IMessageRepository, bufferSize int, log *slog.Logger) *LogWriter {
	return &LogWriter{
		repository: repository,
		requests:   make(chan AppendRequest, bufferSize),
		log:        log,
	}
}

// Requests exposes the enqueue side to the router.
func (w *LogWriter) Requests() chan<- AppendRequest {
	return w.requests
}

func (w *LogWriter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case request, ok := <-w.requests:
			if !ok {
				return nil
			}
			if err := w.repository.Append(request.Message); err != nil {
				w.log.Error("Message log append failed",
					"message_id", request.Message.ID,
					"error", err)
				w.notifyOrigin(ctx, request)
			}
		}
	}
}

// notifyOrigin surfaces a durability failure to the sender as a system
// line. Delivery to online users has already proceeded: persistence is
// best-effort and its failure never blocks the chat.
func (w *LogWriter) notifyOrigin(ctx context.Context, request AppendRequest) {
	if request.Origin == nil {
		return
	}
	warning := domain.NewSystem("[error] your message could not be saved to history")
	if err := request.Origin.Consume(ctx, warning); err != nil {
		w.log.Debug("Could not notify sender about append failure", "error", err)
	}
}
