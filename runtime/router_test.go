package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"termchat/domain"
	"termchat/moderation"
	"termchat/repositories"
	"termchat/runtime/workers"
)

// captureSink records every message consumed, in order.
type captureSink struct {
	received []domain.Message
}

func (s *captureSink) Consume(_ context.Context, m domain.Message) error {
	s.received = append(s.received, m)
	return nil
}

type fakeRepository struct {
	entries   []repositories.Entry
	recentErr error
	searchErr error

	lastRecentLimit int
	lastKeyword     string
}

func (f *fakeRepository) Append(domain.Message) error {
	return nil
}

func (f *fakeRepository) Recent(limit int) ([]repositories.Entry, error) {
	f.lastRecentLimit = limit
	return f.entries, f.recentErr
}

func (f *fakeRepository) Search(_ context.Context, keyword string) ([]repositories.Entry, error) {
	f.lastKeyword = keyword
	return f.entries, f.searchErr
}

type routerFixture struct {
	router   *Router
	registry *Registry
	repo     *fakeRepository
	appends  chan workers.AppendRequest
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	moderator, err := moderation.NewModerator([]string{"crap"}, '*')
	require.NoError(t, err)

	registry := NewRegistry()
	repo := &fakeRepository{}
	appends := make(chan workers.AppendRequest, 16)
	router := NewRouter(slog.Default(), registry, repo, &moderator, appends, 10)
	return routerFixture{router: router, registry: registry, repo: repo, appends: appends}
}

func TestRouter_Broadcast_ReachesEveryoneIncludingSender(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	alice, bob := &captureSink{}, &captureSink{}
	req.NoError(f.registry.Register("alice", alice))
	req.NoError(f.registry.Register("bob", bob))

	f.router.Handle(context.Background(), "alice", domain.BroadcastCommand{Body: "hello all"})

	req.Len(alice.received, 1)
	req.Len(bob.received, 1)
	req.Equal("hello all", bob.received[0].Body)
	req.Equal("alice", bob.received[0].Sender)
	req.Equal(domain.Public, bob.received[0].Kind)

	// And the message was enqueued for the log.
	select {
	case appended := <-f.appends:
		req.Equal(bob.received[0].ID, appended.Message.ID)
	default:
		req.Fail("broadcast was not enqueued for persistence")
	}
}

func TestRouter_Broadcast_CensorsForbiddenWords(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	bob := &captureSink{}
	req.NoError(f.registry.Register("bob", bob))

	f.router.Handle(context.Background(), "alice", domain.BroadcastCommand{Body: "what a load of crap"})

	req.Len(bob.received, 1)
	req.Equal("what a load of ****", bob.received[0].Body)
}

func TestRouter_Private_OnlyRecipientAndSenderSeeIt(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	alice, bob, eve := &captureSink{}, &captureSink{}, &captureSink{}
	req.NoError(f.registry.Register("alice", alice))
	req.NoError(f.registry.Register("bob", bob))
	req.NoError(f.registry.Register("eve", eve))

	f.router.Handle(context.Background(), "alice", domain.PrivateCommand{Recipient: "bob", Body: "psst"})

	req.Len(bob.received, 1)
	req.Equal(domain.Private, bob.received[0].Kind)
	req.Equal("bob", bob.received[0].Recipient)
	req.Len(alice.received, 1, "sender should see their own private message")
	req.Empty(eve.received, "third parties must never see a private message")
}

func TestRouter_Private_OfflineRecipientNotifiesSenderAndStillPersists(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	alice := &captureSink{}
	req.NoError(f.registry.Register("alice", alice))

	f.router.Handle(context.Background(), "alice", domain.PrivateCommand{Recipient: "ghost", Body: "anyone there?"})

	req.Len(alice.received, 1)
	req.Equal(domain.System, alice.received[0].Kind)
	req.Contains(alice.received[0].Body, "ghost is not connected")

	select {
	case appended := <-f.appends:
		req.Equal(domain.Private, appended.Message.Kind)
	default:
		req.Fail("private message to an offline user must still reach the log")
	}
}

func TestRouter_History_RendersEntriesOldestFirst(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := domain.NewPublic("bob", fmt.Sprintf("line %d", i))
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		f.repo.entries = append(f.repo.entries, repositories.Entry{
			ID: m.ID, Sender: m.Sender, Kind: int(m.Kind), Body: m.Body, At: m.CreatedAt,
		})
	}

	alice := &captureSink{}
	req.NoError(f.registry.Register("alice", alice))

	f.router.Handle(context.Background(), "alice", domain.HistoryCommand{})

	req.Equal(10, f.repo.lastRecentLimit, "zero limit falls back to the server default")
	req.Len(alice.received, 4) // header + 3 lines
	req.Contains(alice.received[0].Body, "last 3 message(s)")
	req.Contains(alice.received[1].Body, "line 0")
	req.Contains(alice.received[3].Body, "line 2")
}

func TestRouter_History_EmptyLog(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	alice := &captureSink{}
	req.NoError(f.registry.Register("alice", alice))

	f.router.Handle(context.Background(), "alice", domain.HistoryCommand{Limit: 5})

	req.Equal(5, f.repo.lastRecentLimit)
	req.Len(alice.received, 1)
	req.Contains(alice.received[0].Body, "no messages yet")
}

func TestRouter_Search_NoMatches(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	alice := &captureSink{}
	req.NoError(f.registry.Register("alice", alice))

	f.router.Handle(context.Background(), "alice", domain.SearchCommand{Keyword: "nothing"})

	req.Equal("nothing", f.repo.lastKeyword)
	req.Len(alice.received, 1)
	req.Contains(alice.received[0].Body, "no matches for 'nothing'")
}

func TestRouter_Search_ErrorSurfacesAsSystemLine(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)
	f.repo.searchErr = fmt.Errorf("index corrupted")

	alice := &captureSink{}
	req.NoError(f.registry.Register("alice", alice))

	f.router.Handle(context.Background(), "alice", domain.SearchCommand{Keyword: "boom"})

	req.Len(alice.received, 1)
	req.Contains(alice.received[0].Body, "search is unavailable")
}

func TestRouter_Invalid_ReasonGoesBackToSenderOnly(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	alice, bob := &captureSink{}, &captureSink{}
	req.NoError(f.registry.Register("alice", alice))
	req.NoError(f.registry.Register("bob", bob))

	f.router.Handle(context.Background(), "alice", domain.InvalidCommand{Reason: "usage: /msg <username> <message>"})

	req.Len(alice.received, 1)
	req.Contains(alice.received[0].Body, "usage: /msg")
	req.Empty(bob.received)
}

func TestRouter_AnnouncePresence(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t)

	alice, bob := &captureSink{}, &captureSink{}
	req.NoError(f.registry.Register("alice", alice))
	req.NoError(f.registry.Register("bob", bob))

	f.router.AnnouncePresence(context.Background(), "carol", true)
	f.router.AnnouncePresence(context.Background(), "carol", false)

	req.Len(bob.received, 2)
	req.Equal("* carol joined the chat", bob.received[0].Body)
	req.Equal("* carol left the chat", bob.received[1].Body)

	// Presence notices are ephemeral.
	req.Empty(f.appends)
}
