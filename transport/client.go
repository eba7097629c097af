// Package transport carries frames between two duel clients, either
// through the relay over a WebSocket or in process.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/jbarratt/duel/internal/logging"
	"github.com/jbarratt/duel/wire"
)

var (
	ErrClosed    = errors.New("transport: connection closed")
	ErrNotJoined = errors.New("transport: not joined to a conversation")
	ErrRejected  = errors.New("transport: relay rejected frame")
)

// Client is a relay connection for one conversation. Send completes when
// the relay acknowledges the frame, which requires Listen to be running.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	conversation string
	waiting      map[string]func(error)
	closed       bool
}

type ClientOption func(*Client)

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// Dial connects to the relay at url (ws:// or wss://).
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	c := &Client{
		conn:    conn,
		logger:  logging.Nop(),
		now:     time.Now,
		waiting: make(map[string]func(error)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Join registers this connection as a member of conversation. Frames
// stored for it are delivered through Listen.
func (c *Client) Join(ctx context.Context, conversation string) error {
	err := wsjson.Write(ctx, c.conn, wire.Request{Action: wire.ActionJoin, Conversation: conversation})
	if err != nil {
		return fmt.Errorf("transport: join: %w", err)
	}
	c.mu.Lock()
	c.conversation = conversation
	c.mu.Unlock()
	return nil
}

// Send queues f for the peer. done is called once: with nil when the
// relay has stored the frame, or with the reason it was not.
func (c *Client) Send(ctx context.Context, f wire.Frame, done func(error)) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.SentAt.IsZero() {
		f.SentAt = c.now().UTC()
	}

	c.mu.Lock()
	conversation := c.conversation
	switch {
	case c.closed:
		c.mu.Unlock()
		go done(ErrClosed)
		return
	case conversation == "":
		c.mu.Unlock()
		go done(ErrNotJoined)
		return
	}
	c.waiting[f.ID] = done
	c.mu.Unlock()

	go func() {
		req := wire.Request{Action: wire.ActionSend, Conversation: conversation, Frame: &f}
		if err := wsjson.Write(ctx, c.conn, req); err != nil {
			c.complete(f.ID, fmt.Errorf("transport: send: %w", err))
		}
	}()
}

// Listen reads relay events until ctx ends or the connection drops,
// passing every inbound frame to fn. Sends still waiting when it
// returns fail with the read error.
func (c *Client) Listen(ctx context.Context, fn func(wire.Frame)) error {
	for {
		var ev wire.Event
		if err := wsjson.Read(ctx, c.conn, &ev); err != nil {
			c.failAll(err)
			return fmt.Errorf("transport: read: %w", err)
		}
		switch ev.Type {
		case wire.EventFrame:
			if ev.Frame != nil {
				fn(*ev.Frame)
			}
		case wire.EventDelivered:
			c.complete(ev.FrameID, nil)
		case wire.EventJoined:
			c.logger.DebugContext(ctx, "joined conversation", "conversation", ev.Conversation)
		case wire.EventError:
			if ev.FrameID != "" {
				c.complete(ev.FrameID, fmt.Errorf("%w: %s", ErrRejected, ev.Error))
				continue
			}
			c.logger.WarnContext(ctx, "relay error", "error", ev.Error)
		default:
			c.logger.DebugContext(ctx, "ignoring relay event", "type", ev.Type)
		}
	}
}

func (c *Client) complete(id string, err error) {
	c.mu.Lock()
	done, ok := c.waiting[id]
	delete(c.waiting, id)
	c.mu.Unlock()
	if ok {
		done(err)
	}
}

func (c *Client) failAll(err error) {
	c.mu.Lock()
	waiting := c.waiting
	c.waiting = make(map[string]func(error))
	c.mu.Unlock()
	for _, done := range waiting {
		done(fmt.Errorf("%w: %w", ErrClosed, err))
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
