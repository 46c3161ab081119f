package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/whoomp/whoomp/internal/logging"
)

// Client subscribes to a feed server's websocket stream.
type Client struct {
	conn *websocket.Conn
	url  string
}

// WebSocketURL turns a feed address ("host:port", "http://host:port" or a
// full ws URL) into the /ws endpoint URL.
func WebSocketURL(addr string) (string, error) {
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("invalid feed address %q: %w", addr, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported feed scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("feed address %q has no host", addr)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Dial connects to the feed at addr. The subscription is active once Dial
// returns.
func Dial(ctx context.Context, addr string) (*Client, error) {
	wsURL, err := WebSocketURL(addr)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to feed %s: %w", wsURL, err)
	}
	logging.Info("Connected to feed", zap.String("url", wsURL))
	return &Client{conn: conn, url: wsURL}, nil
}

// Run reads events and passes each to fn until ctx is cancelled or the
// server closes the stream. A normal close returns nil.
func (c *Client) Run(ctx context.Context, fn func(Event)) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.Close()
	})
	defer stop()

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) &&
				(closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway) {
				logging.Info("Feed closed the stream", zap.String("url", c.url), zap.String("reason", closeErr.Text))
				return nil
			}
			return fmt.Errorf("feed stream error: %w", err)
		}
		fn(ev)
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
