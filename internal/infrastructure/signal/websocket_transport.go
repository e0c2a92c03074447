package signal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	"morpheus/pkg/circuitbreaker"
	"morpheus/pkg/retry"
	"morpheus/pkg/tracing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Options struct {
	URL          string
	Token        string
	DialTimeout  time.Duration
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration
	EventBuffer  int
	Dial         retry.Config
	Breaker      circuitbreaker.Config

	MessagesPerSecond float64
	Burst             int
}

func DefaultOptions() Options {
	return Options{
		URL:               "ws://localhost:8081/ws",
		DialTimeout:       10 * time.Second,
		PingInterval:      30 * time.Second,
		PongTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		EventBuffer:       64,
		Dial:              retry.DefaultConfig(),
		Breaker:           circuitbreaker.DefaultConfig(),
		MessagesPerSecond: 20,
		Burst:             40,
	}
}

// WebSocketTransport holds at most one connection to the office server.
// Opening a new subscription replaces the previous connection.
type WebSocketTransport struct {
	opts    Options
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger

	mu   sync.Mutex
	conn *connection
}

var _ ports.Transport = (*WebSocketTransport)(nil)

func NewWebSocketTransport(opts Options, logger *zap.SugaredLogger) *WebSocketTransport {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}

	if opts.Breaker.FailureThreshold <= 0 {
		opts.Breaker = circuitbreaker.DefaultConfig()
	}

	breaker := circuitbreaker.New(opts.Breaker)
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warnw("dial breaker changed state", "url", opts.URL, "from", from.String(), "to", to.String())
	})

	return &WebSocketTransport{
		opts: opts,
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.DialTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), opts.Burst),
		breaker: breaker,
		logger:  logger,
	}
}

// InitEvents dials the server, announces the office rooms and starts
// streaming events. After repeated failed dials the breaker rejects
// attempts until its timeout passes.
func (t *WebSocketTransport) InitEvents(ctx context.Context, rooms []domain.Room) (ports.Subscription, error) {
	ws, err := circuitbreaker.Do(ctx, t.breaker, func(ctx context.Context) (*websocket.Conn, error) {
		return retry.Do(ctx, t.opts.Dial, t.dial)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", t.opts.URL, err)
	}

	join, err := JoinOffice(rooms)
	if err != nil {
		ws.Close()
		return nil, err
	}

	c := newConnection(ws, t.opts, t.logger)
	if err := c.write(websocket.TextMessage, join); err != nil {
		ws.Close()
		return nil, fmt.Errorf("failed to send %s: %w", TypeJoinOffice, err)
	}

	t.mu.Lock()
	prev := t.conn
	t.conn = c
	t.mu.Unlock()

	if prev != nil {
		t.logger.Infow("replacing open connection", "connection_id", prev.id)
		prev.close()
	}

	go c.readPump()
	go c.pingLoop()

	t.logger.Infow("connected to office server",
		"url", t.opts.URL,
		"connection_id", c.id,
		"rooms", len(rooms),
	)

	return c.subscription, nil
}

func (t *WebSocketTransport) dial(ctx context.Context) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, t.opts.DialTimeout)
	defer cancel()

	header := http.Header{}
	if t.opts.Token != "" {
		header.Set("Authorization", "Bearer "+t.opts.Token)
	}

	ws, resp, err := t.dialer.DialContext(ctx, t.opts.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, retry.Permanent(fmt.Errorf("handshake rejected with status %d: %w", resp.StatusCode, err))
		}
		t.logger.Debugw("dial attempt failed", "url", t.opts.URL, "error", err)
		return nil, err
	}
	return ws, nil
}

// CloseConnection closes the open connection, if any. Idempotent.
func (t *WebSocketTransport) CloseConnection() error {
	t.mu.Lock()
	c := t.conn
	t.conn = nil
	t.mu.Unlock()

	if c != nil {
		c.close()
		t.logger.Infow("connection closed", "connection_id", c.id)
	}
	return nil
}

// EmitEnterInRoom tells the server the client is now in roomID.
func (t *WebSocketTransport) EmitEnterInRoom(ctx context.Context, roomID domain.RoomID) (err error) {
	ctx, span := tracing.TraceEmit(ctx, TypeEnterRoom, string(roomID))
	defer func() {
		tracing.RecordError(ctx, err)
		span.End()
	}()

	data, err := EnterRoom(roomID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	c := t.conn
	t.mu.Unlock()
	if c == nil {
		return domain.ErrConnectionClosed
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("outbound rate limit: %w", err)
	}

	if err := c.write(websocket.TextMessage, data); err != nil {
		if c.isClosed() {
			return domain.ErrConnectionClosed
		}
		return fmt.Errorf("failed to send %s: %w", TypeEnterRoom, err)
	}
	return nil
}

// connection pairs one websocket with the subscription it feeds.
type connection struct {
	id   string
	ws   *websocket.Conn
	opts Options

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}

	subscription *subscription
	logger       *zap.SugaredLogger
}

func newConnection(ws *websocket.Conn, opts Options, logger *zap.SugaredLogger) *connection {
	id := uuid.NewString()
	return &connection{
		id:     id,
		ws:     ws,
		opts:   opts,
		closed: make(chan struct{}),
		subscription: &subscription{
			id:     id,
			events: make(chan domain.Event, opts.EventBuffer),
			done:   make(chan struct{}),
		},
		logger: logger,
	}
}

func (c *connection) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.ws.Close()
	})
}

func (c *connection) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// readPump owns the events channel and closes it when the socket ends.
func (c *connection) readPump() {
	sub := c.subscription
	defer close(sub.events)
	defer c.close()

	c.ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !c.isClosed() {
				c.logger.Infow("error reading from office server", "connection_id", c.id, "error", err)
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))

		ev, err := DecodeEvent(data)
		if err != nil {
			if errors.Is(err, ErrUnknownMessageType) {
				c.logger.Debugw("ignoring frame", "connection_id", c.id, "error", err)
			} else {
				c.logger.Warnw("dropping invalid frame", "connection_id", c.id, "error", err)
			}
			continue
		}

		select {
		case sub.events <- ev:
		case <-sub.done:
			return
		case <-c.closed:
			return
		}
	}
}

func (c *connection) pingLoop() {
	if c.opts.PingInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Infow("error sending ping", "connection_id", c.id, "error", err)
				c.close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

type subscription struct {
	id     string
	events chan domain.Event

	doneOnce sync.Once
	done     chan struct{}
}

func (s *subscription) ID() string                  { return s.id }
func (s *subscription) Events() <-chan domain.Event { return s.events }

// Close stops delivery. The socket stays open until CloseConnection.
func (s *subscription) Close() error {
	s.doneOnce.Do(func() {
		close(s.done)
	})
	return nil
}
