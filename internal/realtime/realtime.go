// Package realtime maintains the socket connection to the backend and turns
// pushed events into cache invalidations. Event payloads are treated as
// staleness signals only; fresh data always comes back through HTTP.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stoop/internal/models"
	"stoop/internal/observability"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16384
)

// ErrNoSession is returned when Start is called without a stored token. The
// socket is an authenticated channel; anonymous sessions never connect.
var ErrNoSession = errors.New("realtime: no session token, socket not started")

// EventHandler receives decoded events. *queries.Client satisfies it.
type EventHandler interface {
	HandleRealtimeEvent(ctx context.Context, event string, postID models.ID)
}

// TokenSource supplies the current session token. *localstore.Store
// satisfies it.
type TokenSource interface {
	Token() string
}

// Options tune the reconnect behavior.
type Options struct {
	// MaxRetries caps consecutive failed connection attempts before the
	// bridge tears down for good. Default 5.
	MaxRetries int
	// RetryDelay is the fixed wait between attempts. Default 3s.
	RetryDelay time.Duration
	// Dialer overrides the websocket dialer, mainly for tests.
	Dialer *websocket.Dialer
}

func (o *Options) setDefaults() {
	if o.MaxRetries == 0 {
		o.MaxRetries = 5
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = 3 * time.Second
	}
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
}

// handshake is the first frame sent after the connection opens.
type handshake struct {
	Token string `json:"token"`
}

// frame is an inbound event envelope.
type frame struct {
	Event  string    `json:"event"`
	PostID models.ID `json:"postId"`
}

// Bridge owns one socket connection and its reconnect loop.
type Bridge struct {
	url     string
	tokens  TokenSource
	handler EventHandler
	opts    Options
	log     *observability.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New builds a bridge for the given socket URL. Call Start to connect.
func New(socketURL string, tokens TokenSource, handler EventHandler, opts Options) *Bridge {
	opts.setDefaults()
	return &Bridge{
		url:     socketURL,
		tokens:  tokens,
		handler: handler,
		opts:    opts,
		log:     observability.GlobalLogger,
	}
}

// Start connects and begins dispatching events. It returns ErrNoSession when
// no token is stored, and an error if the bridge is already running. The
// read loop runs until Close is called, the context ends, or the retry
// budget is exhausted.
func (b *Bridge) Start(ctx context.Context) error {
	if b.tokens.Token() == "" {
		return ErrNoSession
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return errors.New("realtime: bridge already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.started = true

	go b.run(ctx)
	return nil
}

// Close stops the bridge and waits for the read loop to exit.
func (b *Bridge) Close() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.started = false
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the bridge has stopped, whether by Close or by
// exhausting its retry budget.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)

	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := b.connect(ctx)
		if err != nil {
			failures++
			observability.SocketReconnects.Inc()
			if failures >= b.opts.MaxRetries {
				b.log.ErrorContext(ctx, "socket retry budget exhausted, tearing down",
					"attempts", failures, "error", err.Error())
				return
			}
			b.log.WarnContext(ctx, "socket connect failed, retrying",
				"attempt", failures, "error", err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.opts.RetryDelay):
			}
			continue
		}

		failures = 0
		b.read(ctx, conn)
		if ctx.Err() != nil {
			return
		}

		// Connection dropped; reconnect after the same fixed delay.
		observability.SocketReconnects.Inc()
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.opts.RetryDelay):
		}
	}
}

// connect dials the socket and sends the token handshake.
func (b *Bridge) connect(ctx context.Context) (*websocket.Conn, error) {
	token := b.tokens.Token()
	if token == "" {
		return nil, ErrNoSession
	}

	conn, resp, err := b.opts.Dialer.DialContext(ctx, b.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(handshake{Token: token}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// read pumps frames from the connection until it fails or the context ends.
func (b *Bridge) read(ctx context.Context, conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.ping(connCtx, conn)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.log.WarnContext(ctx, "socket read failed", "error", err.Error())
			}
			return
		}

		var f frame
		if err := json.Unmarshal(message, &f); err != nil || f.Event == "" {
			b.log.WarnContext(ctx, "dropping malformed socket frame")
			continue
		}

		observability.SocketEvents.WithLabelValues(f.Event).Inc()
		b.handler.HandleRealtimeEvent(ctx, f.Event, f.PostID)
	}
}

// ping keeps the connection alive until it is torn down.
func (b *Bridge) ping(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
