package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jonesrussell/crawldesk/internal/logger"
)

// Connect policy: two attempts, 10 s per attempt, 1 s between attempts.
const (
	DefaultConnectAttempts = 2
	DefaultAttemptTimeout  = 10 * time.Second
	DefaultConnectBackoff  = 1 * time.Second

	crawlPath = "/ws/crawl"
)

// ErrConnect is returned when every connect attempt has failed.
var ErrConnect = errors.New("could not connect to crawl backend")

// CloseReason describes how a channel ended. Valid once Frames is closed.
type CloseReason struct {
	// Code is the WebSocket close code, 0 when unknown.
	Code int
	// Clean is true for a normal closure or a local Close.
	Clean bool
	// Err is the underlying read error, nil on clean closure.
	Err error
}

// Channel yields inbound frames until the stream ends.
type Channel interface {
	// Frames returns the inbound frame stream. The channel is closed
	// when the stream ends; Reason then describes why.
	Frames() <-chan Frame
	// Close tears the channel down. No frame is delivered after Close
	// returns.
	Close() error
	// Reason reports how the channel ended.
	Reason() CloseReason
}

// Dialer opens channels and issues out-of-band cancels. The session
// controller depends on this interface so tests can substitute fakes.
type Dialer interface {
	Open(ctx context.Context, req Request) (Channel, error)
	SendCancel(ctx context.Context, crawlID string)
}

// Transport is the production Dialer backed by a WebSocket connection.
type Transport struct {
	wsBase   string
	httpBase string
	dialer   *websocket.Dialer
	httpc    *http.Client
	log      logger.Logger

	// Overridable for tests.
	Attempts       int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}

// New creates a Transport against the given base URLs.
func New(wsBase, httpBase string, log logger.Logger) *Transport {
	return &Transport{
		wsBase:         wsBase,
		httpBase:       httpBase,
		dialer:         websocket.DefaultDialer,
		httpc:          &http.Client{Timeout: 10 * time.Second},
		log:            log,
		Attempts:       DefaultConnectAttempts,
		AttemptTimeout: DefaultAttemptTimeout,
		Backoff:        DefaultConnectBackoff,
	}
}

// Open connects to the streaming endpoint and sends the request frame
// exactly once. A refused request write counts as a connect failure, so
// the whole attempt is retried.
func (t *Transport) Open(ctx context.Context, req Request) (Channel, error) {
	endpoint := t.wsBase + crawlPath

	var lastErr error
	for attempt := 1; attempt <= t.Attempts; attempt++ {
		conn, err := t.dialOnce(ctx, endpoint, req)
		if err == nil {
			return newWSChannel(conn, t.log), nil
		}
		lastErr = err
		t.log.Warn("connect attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt < t.Attempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrConnect, ctx.Err())
			case <-time.After(t.Backoff):
			}
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrConnect, t.Attempts, lastErr)
}

func (t *Transport) dialOnce(ctx context.Context, endpoint string, req Request) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, t.AttemptTimeout)
	defer cancel()

	conn, resp, err := t.dialer.DialContext(dialCtx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	if err := conn.WriteJSON(req); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send request frame: %w", err)
	}
	return conn, nil
}

// wsChannel adapts a websocket connection to the Channel contract.
type wsChannel struct {
	conn   *websocket.Conn
	frames chan Frame
	done   chan struct{}
	once   sync.Once
	log    logger.Logger

	mu     sync.Mutex
	reason CloseReason
}

func newWSChannel(conn *websocket.Conn, log logger.Logger) *wsChannel {
	c := &wsChannel{
		conn:   conn,
		frames: make(chan Frame, 16),
		done:   make(chan struct{}),
		log:    log,
	}
	go c.readLoop()
	return c
}

func (c *wsChannel) Frames() <-chan Frame { return c.frames }

func (c *wsChannel) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.setReason(CloseReason{Clean: true})
		// Best effort: tell the peer before dropping the socket.
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = c.conn.Close()
	})
	return err
}

func (c *wsChannel) Reason() CloseReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

func (c *wsChannel) setReason(r CloseReason) {
	c.mu.Lock()
	if c.reason == (CloseReason{}) {
		c.reason = r
	}
	c.mu.Unlock()
}

func (c *wsChannel) readLoop() {
	defer close(c.frames)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.setReason(closeReasonFromErr(err))
			return
		}
		frame := DecodeFrame(data)
		select {
		case c.frames <- frame:
		case <-c.done:
			// Locally closed: drop the frame, stop reading.
			return
		}
	}
}

func closeReasonFromErr(err error) CloseReason {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return CloseReason{
			Code:  ce.Code,
			Clean: ce.Code == websocket.CloseNormalClosure,
			Err:   err,
		}
	}
	return CloseReason{Err: err}
}
