package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"grimm.is/dvr/internal/routing"
)

// RouteEvent is one route change received from the watch stream.
type RouteEvent struct {
	Type      string    `json:"type" yaml:"type"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Source    string    `json:"source" yaml:"source"`
	Data      struct {
		Seq      uint64        `json:"seq" yaml:"seq"`
		Route    routing.Route `json:"route" yaml:"route"`
		Replaced bool          `json:"replaced,omitempty" yaml:"replaced,omitempty"`
	} `json:"data" yaml:"data"`
}

// Watch streams route changes to fn until ctx is cancelled, the server
// closes the stream, or fn returns an error. A cancelled context or a
// normal server close returns nil.
func (c *HTTPClient) Watch(ctx context.Context, fn func(RouteEvent) error) error {
	wsURL, err := c.wsURL("/routes/watch")
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("User-Agent", c.userAgent)

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("watch: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("watch: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		var ev RouteEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
		if err := fn(ev); err != nil {
			if errors.Is(err, ErrStopWatch) {
				return nil
			}
			return err
		}
	}
}

// ErrStopWatch can be returned from a Watch callback to end the stream cleanly.
var ErrStopWatch = errors.New("stop watch")

func (c *HTTPClient) wsURL(path string) (string, error) {
	switch {
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + path, nil
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + path, nil
	}
	return "", fmt.Errorf("unsupported server URL %q", c.baseURL)
}
