// Package client implements the terminal chat client: a websocket dialer,
// a receive loop painting lines by origin, and a stdin send loop.
package client

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

type Client struct {
	log       *slog.Logger
	serverURL string
	username  string
}

func NewClient(log *slog.Logger, serverURL string) *Client {
	return &Client{log: log, serverURL: serverURL}
}

// Run connects, sends the username as the opening frame, then pumps stdin
// until the server goes away or ctx is canceled.
func (c *Client) Run(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)
	username, err := promptUsername(reader)
	if err != nil {
		return err
	}
	c.username = username

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.serverURL, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(username)); err != nil {
		return fmt.Errorf("sending username: %w", err)
	}

	receiveDone := make(chan struct{})
	go func() {
		defer close(receiveDone)
		c.receive(conn)
	}()

	go func() {
		select {
		case <-ctx.Done():
		case <-receiveDone:
		}
		// Unblocks the stdin loop's write path and the receive loop.
		_ = conn.Close()
	}()

	return c.send(ctx, conn, bufio.NewScanner(os.Stdin), receiveDone)
}

// receive prints every server line. Own lines are green, other people's
// cyan, server notices yellow, so a busy channel stays scannable.
func (c *Client) receive(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.log.Debug("Connection closed", "error", err)
			return
		}
		line := string(payload)
		switch {
		case isNotice(line):
			color.Yellow.Println(line)
		case strings.Contains(line, c.username):
			color.Green.Println(line)
		default:
			color.Cyan.Println(line)
		}
	}
}

// isNotice recognizes server-generated lines by their prefixes.
func isNotice(line string) bool {
	for _, prefix := range []string{"* ", "[error]", "[info]", "---"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func (c *Client) send(ctx context.Context, conn *websocket.Conn, scanner *bufio.Scanner, receiveDone <-chan struct{}) error {
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-receiveDone:
			return nil
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
	}
	return scanner.Err()
}

func promptUsername(reader *bufio.Reader) (string, error) {
	color.Yellow.Print("Choose a username: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading username: %w", err)
	}
	return strings.TrimSpace(line), nil
}
