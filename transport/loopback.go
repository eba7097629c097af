package transport

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jbarratt/duel/wire"
)

// Loopback is one end of an in-process conversation. Frames sent before
// the peer listens are held until it does.
type Loopback struct {
	peer *Loopback

	mu      sync.Mutex
	handler func(wire.Frame)
	held    []wire.Frame
	fail    error
}

// NewLoopback returns the two connected ends.
func NewLoopback() (*Loopback, *Loopback) {
	a, b := &Loopback{}, &Loopback{}
	a.peer, b.peer = b, a
	return a, b
}

// Send delivers f to the peer on another goroutine, then calls done.
func (l *Loopback) Send(ctx context.Context, f wire.Frame, done func(error)) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	l.mu.Lock()
	fail := l.fail
	l.mu.Unlock()

	go func() {
		if fail != nil {
			done(fail)
			return
		}
		if err := ctx.Err(); err != nil {
			done(err)
			return
		}
		l.peer.deliver(f)
		done(nil)
	}()
}

// Listen installs fn as the frame handler and flushes held frames to it.
func (l *Loopback) Listen(fn func(wire.Frame)) {
	l.mu.Lock()
	l.handler = fn
	held := l.held
	l.held = nil
	l.mu.Unlock()
	for _, f := range held {
		fn(f)
	}
}

// FailSends makes later sends complete with err. nil restores delivery.
func (l *Loopback) FailSends(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = err
}

func (l *Loopback) deliver(f wire.Frame) {
	l.mu.Lock()
	fn := l.handler
	if fn == nil {
		l.held = append(l.held, f)
	}
	l.mu.Unlock()
	if fn != nil {
		fn(f)
	}
}
