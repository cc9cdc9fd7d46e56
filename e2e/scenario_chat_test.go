package e2e

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseWsSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

// TestBroadcastAndPrivateFlow drives two live sessions end to end:
// broadcast fanout, private delivery, then history over what was said.
func (s *testChatSuite) TestBroadcastAndPrivateFlow() {
	// Random suffixes keep reruns from colliding on usernames.
	suffix := uuid.New().String()[:8]
	aliceName := "alice" + suffix
	bobName := "bob" + suffix

	alice := s.Connect(s.T(), aliceName)
	bob := s.Connect(s.T(), bobName)
	alice.AwaitLine(bobName + " joined")

	s.Run("Step 1: broadcast reaches both sessions", func() {
		body := "hello from " + suffix
		alice.Send(body)
		bob.AwaitLine(fmt.Sprintf("[%s]: %s", aliceName, body))
		alice.AwaitLine(fmt.Sprintf("[%s]: %s", aliceName, body))
	})

	s.Run("Step 2: private message reaches only the recipient", func() {
		alice.Send(fmt.Sprintf("/msg %s secret-%s", bobName, suffix))
		bob.AwaitLine(fmt.Sprintf("[private from %s to %s]: secret-%s", aliceName, bobName, suffix))
	})

	s.Run("Step 3: history replays the conversation", func() {
		bob.Send("/history 10")
		bob.AwaitLine("hello from " + suffix)
	})

	s.Run("Step 4: search finds the private message", func() {
		alice.Send("/search secret-" + suffix)
		alice.AwaitLine("secret-" + suffix)
	})
}
