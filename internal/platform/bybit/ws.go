package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bitloop-dev/triarb/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// readWait bounds a single blocking read so cancellation is observed
	// within one socket-read timeout.
	readWait = 30 * time.Second

	// pingPeriod is the venue's recommended keep-alive interval.
	pingPeriod = 20 * time.Second

	// reconnectWait is the fixed delay between reconnect attempts. Fixed
	// rather than exponential: with a handful of connections against one
	// venue there is nothing to protect by backing off further.
	reconnectWait = 5 * time.Second

	// batchDelay spaces consecutive subscribe messages to respect the
	// venue's control-message rate limit.
	batchDelay = 250 * time.Millisecond
)

// ConnState is the feed connection's lifecycle state, advanced only by the
// supervising Run loop.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateSubscribed   ConnState = "subscribed"
	StateRunning      ConnState = "running"
)

// UpdateHandler receives every parsed Snapshot/Delta from the stream.
// Handlers must not retain the update past the call.
type UpdateHandler func(domain.BookUpdate)

// Conn owns one long-lived public-stream connection for a fixed partition
// of symbols. It subscribes in protocol-sized batches, routes book updates
// to its handler, and reconnects on failure at a fixed interval for as long
// as its context lives. Connections never talk to each other; a failure
// here cannot affect a sibling partition.
type Conn struct {
	id      int
	url     string
	symbols []string
	depth   int
	handler UpdateHandler
	logger  *slog.Logger

	mu     sync.Mutex
	ws     *websocket.Conn
	state  ConnState
	closed bool
}

// NewConn creates a feed connection for the given symbol partition. The id
// is only used for logging.
func NewConn(id int, url string, symbols []string, depth int, handler UpdateHandler, logger *slog.Logger) *Conn {
	return &Conn{
		id:      id,
		url:     url,
		symbols: symbols,
		depth:   depth,
		handler: handler,
		state:   StateDisconnected,
		logger: logger.With(
			slog.String("component", "bybit_ws"),
			slog.Int("conn", id),
		),
	}
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run drives the connection state machine until ctx is cancelled:
// Disconnected -> Connecting -> Subscribed -> Running -> Disconnected.
// Transport and protocol errors are contained here; Run only returns the
// context's error.
func (c *Conn) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.setState(StateConnecting)
		if err := c.connect(ctx); err != nil {
			c.logger.Warn("connect failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("wait", reconnectWait),
			)
			c.setState(StateDisconnected)
			if !sleepCtx(ctx, reconnectWait) {
				return ctx.Err()
			}
			continue
		}

		if err := c.subscribe(ctx); err != nil {
			c.logger.Warn("subscribe failed, reconnecting",
				slog.String("error", err.Error()),
			)
			c.teardown()
			if !sleepCtx(ctx, reconnectWait) {
				return ctx.Err()
			}
			continue
		}
		c.setState(StateSubscribed)

		pingCtx, cancelPing := context.WithCancel(ctx)
		go c.pingLoop(pingCtx)

		c.setState(StateRunning)
		err := c.readLoop(ctx)
		cancelPing()
		c.teardown()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("stream closed, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("wait", reconnectWait),
		)
		if !sleepCtx(ctx, reconnectWait) {
			return ctx.Err()
		}
	}
}

// Close tears down the socket and unblocks the read loop. Safe to call
// multiple times and concurrently with Run.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.ws != nil {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		return c.ws.Close()
	}
	return nil
}

func (c *Conn) connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrWSDisconnect
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	ws, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("bybit: dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()

	c.logger.Info("connected", slog.Int("symbols", len(c.symbols)))
	return nil
}

// subscribe sends the partition's topics in batches capped by the
// protocol's per-message limit, separated by a short delay.
func (c *Conn) subscribe(ctx context.Context) error {
	topics := make([]string, len(c.symbols))
	for i, sym := range c.symbols {
		topics[i] = Topic(c.depth, sym)
	}

	for start := 0; start < len(topics); start += MaxTopicsPerRequest {
		end := start + MaxTopicsPerRequest
		if end > len(topics) {
			end = len(topics)
		}

		req := subscribeRequest{Op: "subscribe", Args: topics[start:end]}
		if err := c.writeJSON(req); err != nil {
			return fmt.Errorf("bybit: subscribe batch %d: %w", start/MaxTopicsPerRequest, err)
		}

		if end < len(topics) && !sleepCtx(ctx, batchDelay) {
			return ctx.Err()
		}
	}

	c.logger.Info("subscribed",
		slog.Int("topics", len(topics)),
		slog.Int("batches", (len(topics)+MaxTopicsPerRequest-1)/MaxTopicsPerRequest),
	)
	return nil
}

// readLoop reads and routes frames until the socket fails or ctx ends.
// Per-frame protocol errors are logged and dropped; they never tear the
// connection down.
func (c *Conn) readLoop(ctx context.Context) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return domain.ErrWSDisconnect
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_ = ws.SetReadDeadline(time.Now().Add(readWait))
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("bybit: read: %w", err)
		}

		msg, err := Parse(raw)
		if err != nil {
			c.logger.Warn("dropping malformed frame", slog.String("error", err.Error()))
			continue
		}

		switch msg.Kind {
		case KindAck:
			if !msg.Ack.Success {
				c.logger.Warn("request rejected",
					slog.String("op", msg.Ack.Op),
					slog.String("ret_msg", msg.Ack.RetMsg),
				)
			}
		case KindSnapshot, KindDelta:
			c.handler(msg.Update)
		case KindUnknown:
			// Pong replies and unrecognized topics land here.
		}
	}
}

// pingLoop keeps the stream alive with the venue's JSON ping op.
func (c *Conn) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writeJSON(map[string]string{"op": "ping"}); err != nil {
				c.logger.Debug("ping failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (c *Conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return domain.ErrWSDisconnect
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Conn) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Conn) teardown() {
	c.mu.Lock()
	if c.ws != nil {
		_ = c.ws.Close()
		c.ws = nil
	}
	c.state = StateDisconnected
	c.mu.Unlock()
}

// sleepCtx waits d or until ctx is done; reports false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
