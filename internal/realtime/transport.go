package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is a single established push connection. Implementations must
// support one concurrent reader; writes are serialized by the Channel.
type Conn interface {
	// ReadMessage blocks until the next message arrives or the connection
	// fails.
	ReadMessage() ([]byte, error)
	// WriteJSON sends a JSON-encoded message.
	WriteJSON(v any) error
	// Close tears down the connection, unblocking any pending read.
	Close() error
}

// Transport dials push connections. The production implementation speaks
// websocket; tests substitute scripted fakes.
type Transport interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketTransport is the production Transport backed by
// gorilla/websocket.
type WebsocketTransport struct {
	// HandshakeTimeout bounds the websocket handshake. Zero means the
	// dialer default.
	HandshakeTimeout time.Duration
}

// Dial opens a websocket connection to the given URL.
func (t *WebsocketTransport) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: t.HandshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("websocket dial %s: status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &wsConn{conn: conn}, nil
}

// wsConn adapts *websocket.Conn to the Conn interface. gorilla/websocket
// permits one concurrent writer, so writes take a mutex.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
