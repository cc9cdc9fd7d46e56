package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"termchat/contract"
	"termchat/domain"
	"termchat/errors"
	"termchat/runtime"
	"termchat/sink"
)

// usernameRules keeps identities printable and short enough to render.
const usernameRules = "required,alphanum,min=2,max=24"

var validate = validator.New()

// Session drives one connection through its lifecycle: handshake on the
// first line, then a read loop feeding the router and a write loop
// draining the sink, until either side goes away.
type Session struct {
	log      *slog.Logger
	conn     contract.LineConn
	registry contract.IRegistry
	router   *runtime.Router
	sink     *sink.Sink

	username  string
	closeOnce sync.Once
	cancel    context.CancelFunc
}

func NewSession(
	log *slog.Logger,
	conn contract.LineConn,
	registry contract.IRegistry,
	router *runtime.Router,
	bufferSize int,
) *Session {
	return &Session{
		log:      log,
		conn:     conn,
		registry: registry,
		router:   router,
		sink:     sink.NewSink(bufferSize),
	}
}

// Run blocks until the session is over. It always leaves the registry and
// the connection clean, whatever the exit path.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer s.beginClose()

	if err := s.handshake(); err != nil {
		return err
	}

	s.log.Info("Session started", "username", s.username)
	s.router.AnnouncePresence(ctx, s.username, true)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()

	s.readLoop(ctx)

	// Closing the sink lets the write loop drain what is buffered and exit.
	s.beginClose()
	wg.Wait()

	s.log.Info("Session ended", "username", s.username)
	s.router.AnnouncePresence(context.WithoutCancel(ctx), s.username, false)
	return nil
}

// handshake reads the first line as the desired username and claims it.
// A rejected handshake tells the client why before hanging up.
func (s *Session) handshake() error {
	line, err := s.conn.ReadLine()
	if err != nil {
		return err
	}
	username := strings.TrimSpace(line)

	if err := validate.Var(username, usernameRules); err != nil {
		_ = s.conn.WriteLine("[error] username must be 2-24 alphanumeric characters")
		return errors.ErrInvalidUsername
	}

	if err := s.registry.Register(username, s.sink); err != nil {
		if goerrors.Is(err, errors.ErrAlreadyRegistered) {
			_ = s.conn.WriteLine(fmt.Sprintf("[error] username %s is already taken", username))
		}
		return err
	}
	s.username = username

	_ = s.conn.WriteLine(fmt.Sprintf("* welcome, %s", username))
	_ = s.conn.WriteLine("* commands: /msg <username> <message> | /history [n] | /search <keyword>")
	return nil
}

// readLoop turns inbound lines into routed commands until the connection
// drops or the context ends.
func (s *Session) readLoop(ctx context.Context) {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			s.log.Debug("Read loop finished", "username", s.username, "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.router.Handle(ctx, s.username, domain.Parse(line))
	}
}

// writeLoop is the only writer on the connection after the handshake.
// It ends when the sink is closed and drained.
func (s *Session) writeLoop() {
	for message := range s.sink.Messages() {
		if err := s.conn.WriteLine(message.Render()); err != nil {
			s.log.Debug("Write loop finished", "username", s.username, "error", err)
			s.beginClose()
			return
		}
	}
}

// beginClose tears the session down exactly once: the username is freed
// first so reconnects with the same name succeed immediately.
func (s *Session) beginClose() {
	s.closeOnce.Do(func() {
		if s.username != "" {
			s.registry.Unregister(s.username)
		}
		s.sink.Close()
		_ = s.conn.Close()
		s.cancel()
	})
}
