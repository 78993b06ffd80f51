// Package chatclient is the runtime for a duplex chat client. It owns the
// websocket connection, reconnects when it drops, dispatches every inbound
// message to the registered receive handlers, and repeatedly invokes the
// registered send handlers to obtain outbound messages.
package chatclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

type ErrClient struct {
	Message string `json:"message"`
}

func (e ErrClient) Error() string {
	return e.Message
}

var (
	ErrDuplicateHandler = errors.New("handler already registered for route")
	ErrNoHandlers       = errors.New("no handlers registered")
	ErrConnectionLost   = errors.New("connection lost")
	// ErrSendClosed is returned by a send handler that has nothing more to send.
	ErrSendClosed = errors.New("send handler closed")
)

const (
	DefaultRetryDelay = 3 * time.Second
	DefaultMaxRetries = 3
)

type Client interface {
	// ID identifies this client instance in logs
	ID() string
	// OnReceive registers the receive handler for route
	OnReceive(route string, h ReceiveHandler) error
	// OnSend registers the send handler for route
	OnSend(route string, h SendHandler) error
	// Run connects to addr and serves until ctx is done
	Run(ctx context.Context, addr string) error
	// Send sends content on route and blocks until it is written
	Send(ctx context.Context, route string, content any) error
	// Log allows implementors to use their own logging dependencies
	Log(int, string, ...any)
	// Block until done
	Wait()
}

type Option func(*client)

// WithReconnection sets the delay between dial attempts and the number of
// consecutive failed attempts tolerated. A negative maxRetries retries forever.
func WithReconnection(delay time.Duration, maxRetries int) Option {
	return func(c *client) {
		c.retryDelay = delay
		c.maxRetries = maxRetries
	}
}

// WithDialer sets the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *client) {
		c.dialer = d
	}
}

func NewClient(name string, lf func(int, string, ...interface{}), opts ...Option) Client {
	c := &client{
		name:       name,
		id:         uuid.New().String(),
		lock:       &sync.RWMutex{},
		wg:         &sync.WaitGroup{},
		egress:     make(chan egressPayload),
		receivers:  make(map[string]ReceiveHandler),
		senders:    make(map[string]SendHandler),
		logfunc:    lf,
		dialer:     websocket.DefaultDialer,
		retryDelay: DefaultRetryDelay,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type client struct {
	name       string
	id         string
	lock       *sync.RWMutex
	wg         *sync.WaitGroup
	receivers  map[string]ReceiveHandler
	senders    map[string]SendHandler
	egress     chan egressPayload
	logfunc    func(int, string, ...interface{})
	dialer     *websocket.Dialer
	retryDelay time.Duration
	maxRetries int
}

func (c *client) ID() string {
	return c.id
}

func (c *client) OnReceive(route string, h ReceiveHandler) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.receivers[route]; ok {
		return fmt.Errorf("receive %q: %w", route, ErrDuplicateHandler)
	}
	c.receivers[route] = AdaptReceiveHandler(h,
		AdaptWithRoute(route),
		AdaptWithRecover(c.Log),
	)
	return nil
}

func (c *client) OnSend(route string, h SendHandler) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.senders[route]; ok {
		return fmt.Errorf("send %q: %w", route, ErrDuplicateHandler)
	}
	c.senders[route] = h
	return nil
}

// Run validates the registered handlers, starts one send loop per send route
// and then keeps a connection to addr open until ctx is done. A dropped
// connection is redialed; Run gives up once maxRetries consecutive dials have
// failed. Send loops outlive individual connections, so a message composed
// while reconnecting is written once the next connection is up.
//
// Run returns nil when ctx is cancelled. It does not wait for send handlers
// that are blocked on input; use Wait for that.
func (c *client) Run(ctx context.Context, addr string) error {
	c.lock.RLock()
	senders := make(map[string]SendHandler, len(c.senders))
	for r, h := range c.senders {
		senders[r] = h
	}
	nrecv := len(c.receivers)
	c.lock.RUnlock()
	if len(senders) == 0 && nrecv == 0 {
		return ErrNoHandlers
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once   sync.Once
		runErr error
	)
	fail := func(err error) {
		once.Do(func() {
			runErr = err
			cancel()
		})
	}

	for route, h := range senders {
		c.wg.Add(1)
		go func(route string, h SendHandler) {
			defer c.wg.Done()
			if err := c.sendForever(ctx, route, h); err != nil {
				fail(err)
			}
		}(route, h)
	}

	failures := 0
	for {
		conn, err := c.dial(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return runErr
			}
			failures += 1
			if c.maxRetries >= 0 && failures > c.maxRetries {
				return ErrClient{Message: fmt.Sprintf("could not connect to %s after %d attempts: %v", addr, failures, err)}
			}
			c.Log(int(slog.LevelWarn), "dial failed, retrying", "addr", addr, "attempt", failures, "error", err.Error())
			select {
			case <-ctx.Done():
				return runErr
			case <-time.After(c.retryDelay):
			}
			continue
		}
		failures = 0

		c.Log(int(slog.LevelInfo), "connected", "addr", addr)
		err = c.serve(ctx, conn)
		if ctx.Err() != nil {
			return runErr
		}
		c.Log(int(slog.LevelWarn), "connection closed, reconnecting", "addr", addr, "error", fmt.Sprint(err))
	}
}

func (c *client) dial(ctx context.Context, addr string) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// serve runs the read and write pumps for one connection and returns when
// either of them stops.
func (c *client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.wg.Add(1)
	defer c.wg.Done()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// closing the connection unblocks the reader
		defer conn.Close()
		return c.writeForever(gctx, conn)
	})
	g.Go(func() error {
		return c.readForever(gctx, conn)
	})
	return g.Wait()
}

func (c *client) writeForever(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		// handle cancellation
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		// handle sending out messages
		case payload := <-c.egress:
			if err := conn.WriteMessage(websocket.TextMessage, payload.data); err != nil {
				payload.done <- err
				return fmt.Errorf("%w: %w", ErrConnectionLost, err)
			}
			payload.done <- nil
		}
	}
}

func (c *client) readForever(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.Log(int(slog.LevelError), "read loop encountered unexpected error", "error", err.Error())
			}
			return fmt.Errorf("%w: %w", ErrConnectionLost, err)
		}
		c.Log(int(slog.LevelDebug), "read message", "data", string(b))
		c.dispatch(ctx, ParseInbound(b))
	}
}

// dispatch runs each receive handler concurrently and waits for all of them
// before the next message is read.
func (c *client) dispatch(ctx context.Context, m InboundMessage) {
	// copy the current state of the handlers
	c.lock.RLock()
	handlers := make([]ReceiveHandler, 0, len(c.receivers))
	for _, h := range c.receivers {
		handlers = append(handlers, h)
	}
	c.lock.RUnlock()

	var wg sync.WaitGroup
	wg.Add(len(handlers))
	for _, h := range handlers {
		go func(h ReceiveHandler) {
			defer wg.Done()
			h(ctx, m)
		}(h)
	}
	wg.Wait()
}

// sendForever invokes h one call at a time and writes each message before
// asking for the next one.
func (c *client) sendForever(ctx context.Context, route string, h SendHandler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		text, err := h(ctx)
		if errors.Is(err, ErrSendClosed) {
			c.Log(int(slog.LevelInfo), "send handler closed", "route", route)
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("send handler %q: %w", route, err)
		}

		// keep the message until a connection accepts it
		for {
			err := c.Send(ctx, route, text)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return nil
			}
			c.Log(int(slog.LevelWarn), "send failed, retrying on next connection", "route", route, "error", err.Error())
		}
	}
}

type egressPayload struct {
	done chan error
	data []byte
}

// Send sends the supplied content and blocks until it is written. It is safe
// to call Send from multiple goroutines.
func (c *client) Send(ctx context.Context, route string, content any) error {
	b, err := OutboundMessage{Route: route, Content: content}.JSON()
	if err != nil {
		return err
	}
	p := egressPayload{
		done: make(chan error, 1),
		data: b,
	}
	select {
	case c.egress <- p:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := <-p.done; err != nil {
		return err
	}
	c.Log(int(slog.LevelDebug), "sent data", "data", string(b))
	return nil
}

func (c *client) Log(level int, s string, args ...any) {
	if c.logfunc == nil {
		return
	}
	args = append(args, "client", c.name, "client_id", c.id)
	c.logfunc(level, s, args...)
}

// Wait blocks until the pumps and send loops are done
func (c *client) Wait() {
	c.wg.Wait()
}
