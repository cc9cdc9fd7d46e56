package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"termchat/contract"
	"termchat/domain"
	"termchat/moderation"
	"termchat/repositories"
	"termchat/runtime/workers"
)

// Router turns parsed commands into deliveries. It owns the fanout policy:
// which sinks receive a message, what the sender gets back, and when the
// message log is consulted. It never talks to a socket directly.
type Router struct {
	log          *slog.Logger
	registry     contract.IRegistry
	repository   repositories.IMessageRepository
	moderator    *moderation.Moderator
	appends      chan<- workers.AppendRequest
	historyLimit int
}

func NewRouter(
	log *slog.Logger,
	registry contract.IRegistry,
	repository repositories.IMessageRepository,
	moderator *moderation.Moderator,
	appends chan<- workers.AppendRequest,
	historyLimit int,
) *Router {
	return &Router{
		log:          log,
		registry:     registry,
		repository:   repository,
		moderator:    moderator,
		appends:      appends,
		historyLimit: historyLimit,
	}
}

// Handle dispatches one command on behalf of sender. It is safe for
// concurrent use: every session goroutine calls it directly.
func (r *Router) Handle(ctx context.Context, sender string, cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.BroadcastCommand:
		r.broadcast(ctx, sender, c.Body)
	case domain.PrivateCommand:
		r.private(ctx, sender, c.Recipient, c.Body)
	case domain.HistoryCommand:
		r.history(ctx, sender, c.Limit)
	case domain.SearchCommand:
		r.search(ctx, sender, c.Keyword)
	case domain.InvalidCommand:
		r.sendSystem(ctx, sender, c.Reason)
	default:
		r.log.Warn("Unknown command type", "sender", sender)
	}
}

// broadcast delivers a public message to every connected session, the
// sender included, and enqueues it for the log.
func (r *Router) broadcast(ctx context.Context, sender, body string) {
	message := domain.NewPublic(sender, r.moderator.Censor(body))
	r.persist(message, sender)

	for _, sink := range r.registry.Snapshot() {
		if err := sink.Consume(ctx, message); err != nil {
			r.log.Debug("Dropped broadcast delivery", "sender", sender, "error", err)
		}
	}
}

// private delivers to exactly the recipient and the sender. An offline
// recipient yields a system notice; the message still reaches the log,
// so it shows up in history once they reconnect.
func (r *Router) private(ctx context.Context, sender, recipient, body string) {
	message := domain.NewPrivate(sender, recipient, r.moderator.Censor(body))
	r.persist(message, sender)

	target, online := r.registry.Lookup(recipient)
	if !online {
		r.sendSystem(ctx, sender, fmt.Sprintf("[info] %s is not connected", recipient))
		return
	}
	if err := target.Consume(ctx, message); err != nil {
		r.log.Debug("Dropped private delivery", "recipient", recipient, "error", err)
	}
	// Echo so the sender sees their own line in the transcript.
	if origin, ok := r.registry.Lookup(sender); ok {
		_ = origin.Consume(ctx, message)
	}
}

func (r *Router) history(ctx context.Context, sender string, limit int) {
	if limit <= 0 {
		limit = r.historyLimit
	}
	entries, err := r.repository.Recent(limit)
	if err != nil {
		r.log.Error("History read failed", "sender", sender, "error", err)
		r.sendSystem(ctx, sender, "[error] history is unavailable right now")
		return
	}
	if len(entries) == 0 {
		r.sendSystem(ctx, sender, "[info] no messages yet")
		return
	}

	r.sendSystem(ctx, sender, fmt.Sprintf("--- last %d message(s) ---", len(entries)))
	r.sendEntries(ctx, sender, entries)
}

func (r *Router) search(ctx context.Context, sender, keyword string) {
	entries, err := r.repository.Search(ctx, keyword)
	if err != nil {
		r.log.Error("Search failed", "sender", sender, "keyword", keyword, "error", err)
		r.sendSystem(ctx, sender, "[error] search is unavailable right now")
		return
	}
	if len(entries) == 0 {
		r.sendSystem(ctx, sender, fmt.Sprintf("[info] no matches for '%s'", keyword))
		return
	}

	r.sendSystem(ctx, sender, fmt.Sprintf("--- %d match(es) for '%s' ---", len(entries), keyword))
	r.sendEntries(ctx, sender, entries)
}

// AnnouncePresence broadcasts a join or leave notice to every connected
// session. Presence lines are ephemeral and skip the log.
func (r *Router) AnnouncePresence(ctx context.Context, username string, joined bool) {
	verb := lo.Ternary(joined, "joined", "left")
	notice := domain.NewSystem(fmt.Sprintf("* %s %s the chat", username, verb))
	for _, sink := range r.registry.Snapshot() {
		_ = sink.Consume(ctx, notice)
	}
}

// persist hands the message to the log writer without blocking. When the
// append queue is saturated, delivery still proceeds and the loss is logged.
func (r *Router) persist(message domain.Message, sender string) {
	origin, _ := r.registry.Lookup(sender)
	select {
	case r.appends <- workers.AppendRequest{Message: message, Origin: origin}:
	default:
		r.log.Warn("Append queue full, message not persisted", "id", message.ID, "sender", sender)
	}
}

func (r *Router) sendEntries(ctx context.Context, sender string, entries []repositories.Entry) {
	for _, entry := range entries {
		rendered := entry.ToMessage().Render()
		r.sendSystem(ctx, sender, rendered)
	}
}

func (r *Router) sendSystem(ctx context.Context, username, body string) {
	sink, ok := r.registry.Lookup(username)
	if !ok {
		return
	}
	if err := sink.Consume(ctx, domain.NewSystem(body)); err != nil {
		r.log.Debug("Dropped system line", "username", username, "error", err)
	}
}
