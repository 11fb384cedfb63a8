package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/status"
	"go.uber.org/zap"
)

// DefaultBackoff is the fixed delay between reconnect attempts.
const DefaultBackoff = 3 * time.Second

// frame is the shape of inbound chat frames. Frames without a message
// payload are ignored.
type frame struct {
	Message *api.Message `json:"message"`
}

// Client dials chat websocket endpoints and keeps exactly one live
// connection per Connect call, reconnecting after a fixed backoff until the
// handle is closed.
type Client struct {
	dialer  *websocket.Dialer
	backoff time.Duration
	machine *status.Machine
	logger  *zap.Logger
}

// NewClient creates a socket client reporting connection state changes to
// the given machine.
func NewClient(machine *status.Machine, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		dialer:  websocket.DefaultDialer,
		backoff: DefaultBackoff,
		machine: machine,
		logger:  logger,
	}
}

// SetBackoff overrides the reconnect delay. Used by tests.
func (c *Client) SetBackoff(d time.Duration) {
	c.backoff = d
}

// Handle controls one live subscription. Close tears the connection down
// and suppresses any further reconnect attempt.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

// Close disconnects and cancels pending reconnects. Safe to call more than
// once; blocks until the connection goroutine has exited.
func (h *Handle) Close() {
	// Cancel first so the run loop cannot interpret the close as a drop
	// and schedule a reconnect.
	h.cancel()
	h.mu.Lock()
	if h.conn != nil {
		_ = h.conn.Close()
		h.conn = nil
	}
	h.mu.Unlock()
	<-h.done
}

func (h *Handle) setConn(conn *websocket.Conn) {
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()
}

// Connect opens a connection to the given socket URL and delivers each
// inbound message to onMessage from the connection goroutine. The returned
// handle owns the connection; callers switching scopes must Close the old
// handle before connecting a new one.
func (c *Client) Connect(socketURL string, onMessage func(api.Message)) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(ctx, socketURL, onMessage, h)
	return h
}

func (c *Client) run(ctx context.Context, socketURL string, onMessage func(api.Message), h *Handle) {
	defer close(h.done)

	for {
		_ = c.machine.Transition(status.Connecting)
		conn, resp, err := c.dialer.DialContext(ctx, socketURL, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err == nil {
			_ = c.machine.Transition(status.Connected)
			h.setConn(conn)
			c.logger.Info("socket connected", zap.String("url", socketURL))

			c.readLoop(conn, onMessage)

			h.setConn(nil)
			_ = conn.Close()
		} else {
			c.logger.Warn("socket dial failed", zap.String("url", socketURL), zap.Error(err))
		}

		if ctx.Err() != nil {
			_ = c.machine.Transition(status.Closed)
			return
		}

		_ = c.machine.Transition(status.Reconnecting)
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			_ = c.machine.Transition(status.Closed)
			return
		}
	}
}

// readLoop consumes frames until the connection drops. Transport errors and
// peer closes both surface as a read error, funnelling every failure into
// the single reconnect path.
func (c *Client) readLoop(conn *websocket.Conn, onMessage func(api.Message)) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("socket read error", zap.Error(err))
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug("dropping malformed frame", zap.Error(err))
			continue
		}
		if f.Message == nil {
			continue
		}
		onMessage(*f.Message)
	}
}
