package e2e

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseWsSuite dials websocket chat sessions against a running server.
// Scenarios skip cleanly when no server is listening.
type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// Connect opens a session and performs the username handshake.
// The first call skips the whole suite when the server is unreachable.
func (s *BaseWsSuite) Connect(t *testing.T, username string) *wsSession {
	header := fmt.Sprintf("  ====== session %s ======", username)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(s.Config.ServerURL, nil)
	if err != nil {
		t.Skipf("no chat server at %s: %v", s.Config.ServerURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(username)))
	session := &wsSession{t: t, conn: conn, username: username}
	session.AwaitLine("welcome")
	return session
}

type wsSession struct {
	t        *testing.T
	conn     *websocket.Conn
	username string
}

func (w *wsSession) Send(line string) {
	w.t.Helper()
	err := w.conn.WriteMessage(websocket.TextMessage, []byte(line))
	if err != nil {
		w.t.Fatalf("%s could not send %q: %v", w.username, line, err)
	}
}

// AwaitLine reads frames until one contains the fragment or the deadline hits.
func (w *wsSession) AwaitLine(fragment string) string {
	w.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = w.conn.SetReadDeadline(deadline)
		_, payload, err := w.conn.ReadMessage()
		if err != nil {
			w.t.Fatalf("%s: connection ended while waiting for %q: %v", w.username, fragment, err)
		}
		line := string(payload)
		w.t.Logf("%s <- %s", w.username, line)
		if strings.Contains(line, fragment) {
			return line
		}
	}
	w.t.Fatalf("%s never received a line containing %q", w.username, fragment)
	return ""
}
