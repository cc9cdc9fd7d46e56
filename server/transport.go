package server

import (
	"strings"

	"github.com/gorilla/websocket"

	"termchat/contract"
)

// wsConn adapts a websocket connection to the line-oriented transport the
// session works with: one text frame in, one chat line out.
type wsConn struct {
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) contract.LineConn {
	return &wsConn{conn: conn}
}

// ReadLine blocks until the next text frame. Binary frames are skipped,
// control frames are handled by gorilla underneath.
func (c *wsConn) ReadLine() (string, error) {
	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(payload), "\r\n"), nil
	}
}

func (c *wsConn) WriteLine(line string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
