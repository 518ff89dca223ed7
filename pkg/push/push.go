// Package push opens receive-only push channels to the document service.
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Receive after the channel was closed locally.
var ErrClosed = errors.New("push channel closed")

// Channel is a single open push channel. Receive blocks until a message
// arrives or the channel closes; every error from Receive means the channel
// is closed. Close is idempotent and may be called concurrently with Receive.
type Channel interface {
	Receive() ([]byte, error)
	Close() error
}

// Dialer opens push channels.
type Dialer interface {
	Dial(ctx context.Context, address string) (Channel, error)
}

type Settings struct {
	HandshakeTimeout time.Duration
	// ReadTimeout bounds the wait for each message; zero waits forever.
	ReadTimeout time.Duration
	Header      http.Header
}

func DefaultSettings() *Settings {
	return &Settings{
		HandshakeTimeout: 5 * time.Second,
	}
}

// WebSocketDialer dials push channels over gorilla/websocket.
type WebSocketDialer struct {
	dialer   *websocket.Dialer
	settings *Settings
}

var _ Dialer = (*WebSocketDialer)(nil)

func NewWebSocketDialer(settings *Settings) *WebSocketDialer {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &WebSocketDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: settings.HandshakeTimeout,
		},
		settings: settings,
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, address string) (Channel, error) {
	ws, resp, err := d.dialer.DialContext(ctx, address, d.settings.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open push channel %s (status %d): %w", address, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to open push channel %s: %w", address, err)
	}
	return &wsChannel{
		ws:          ws,
		readTimeout: d.settings.ReadTimeout,
		closed:      make(chan struct{}),
	}, nil
}

type wsChannel struct {
	ws          *websocket.Conn
	readTimeout time.Duration

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

func (c *wsChannel) Receive() ([]byte, error) {
	for {
		if c.readTimeout > 0 {
			c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		messageType, message, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				return nil, ErrClosed
			default:
			}
			return nil, err
		}

		switch messageType {
		case websocket.TextMessage, websocket.BinaryMessage:
			return message, nil
		}
	}
}

func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		// best effort close frame, the server may already be gone
		c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
