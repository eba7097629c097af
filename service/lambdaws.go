// Package service is the relay: it keeps a mailbox per conversation and
// forwards frames between its two members.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jbarratt/duel/internal/logging"
	"github.com/jbarratt/duel/notify"
	"github.com/jbarratt/duel/store"
	"github.com/jbarratt/duel/wire"
)

type LambdaSvc struct {
	store  store.Store
	ws     notify.Notifier
	logger *slog.Logger
	now    func() time.Time
}

// NewLambdaSvc returns a new lambda service
func NewLambdaSvc(st store.Store, ws notify.Notifier, logger *slog.Logger) *LambdaSvc {
	return &LambdaSvc{
		store:  st,
		ws:     ws,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Handle routes a WebSocket event by its route key.
func (s *LambdaSvc) Handle(ctx context.Context, e events.APIGatewayWebsocketProxyRequest) (any, error) {
	switch e.RequestContext.RouteKey {
	case "$connect":
		return s.Connect(ctx, e)
	case "$disconnect":
		return s.Disconnect(ctx, e)
	default:
		return s.Default(ctx, e)
	}
}

// Connect is a no-op: a connection belongs to nothing until it joins.
func (s *LambdaSvc) Connect(ctx context.Context, e events.APIGatewayWebsocketProxyRequest) (any, error) {
	s.logger.DebugContext(ctx, "$connect", "connection", e.RequestContext.ConnectionID)
	return response(200), nil
}

// Disconnect removes the connection from its conversation. Frames for it
// stay in the mailbox until it joins again.
func (s *LambdaSvc) Disconnect(ctx context.Context, e events.APIGatewayWebsocketProxyRequest) (any, error) {
	conv, err := s.store.Leave(ctx, e.RequestContext.ConnectionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "unable to remove connection", "connection", e.RequestContext.ConnectionID, "err", err)
		return response(statusFor(err)), nil
	}
	s.logger.DebugContext(ctx, "$disconnect", "connection", e.RequestContext.ConnectionID, "conversation", conv)
	return response(200), nil
}

func (s *LambdaSvc) Default(ctx context.Context, e events.APIGatewayWebsocketProxyRequest) (any, error) {
	connID := e.RequestContext.ConnectionID
	s.logger.DebugContext(ctx, "$default", "connection", connID, "bytes", len(e.Body))

	req := wire.Request{}
	if err := json.Unmarshal([]byte(e.Body), &req); err != nil {
		s.logger.WarnContext(ctx, "unable to decode request", "err", err)
		s.fail(ctx, connID, "", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return response(400), nil
	}

	var err error
	switch strings.ToLower(req.Action) {
	case wire.ActionJoin:
		err = s.Join(ctx, connID, req.Conversation)
	case wire.ActionSend:
		err = s.Send(ctx, connID, req.Conversation, req.Frame)
	default:
		err = fmt.Errorf("%w: unknown action %q", ErrBadRequest, req.Action)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "request failed", "action", req.Action, "connection", connID, "err", err)
		frameID := ""
		if req.Frame != nil {
			frameID = req.Frame.ID
		}
		s.fail(ctx, connID, frameID, err)
		return response(statusFor(err)), nil
	}
	return response(200), nil
}

// Join makes the connection a member of conversation and hands it every
// frame that was left for it.
func (s *LambdaSvc) Join(ctx context.Context, connID, conversation string) error {
	if conversation == "" {
		return fmt.Errorf("%w: conversation required", ErrBadRequest)
	}
	members, err := s.store.Join(ctx, conversation, connID)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "joined", "conversation", conversation, "connection", connID, "members", len(members))

	if err := s.emit(ctx, connID, wire.Event{Type: wire.EventJoined, Conversation: conversation}); err != nil {
		return err
	}

	pending, err := s.store.Pending(ctx, conversation, connID)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := s.deliver(ctx, conversation, connID, m); err != nil {
			// the rest stay queued for the next join
			s.logger.WarnContext(ctx, "delivery stopped", "conversation", conversation, "pending", len(pending), "err", err)
			return nil
		}
	}
	return nil
}

// Send stores f for the other member, acknowledges it to the sender and
// forwards it right away when the other member is connected.
func (s *LambdaSvc) Send(ctx context.Context, connID, conversation string, f *wire.Frame) error {
	if conversation == "" || f == nil {
		return fmt.Errorf("%w: conversation and frame required", ErrBadRequest)
	}
	if f.Payload == "" {
		return fmt.Errorf("%w: empty payload", ErrBadRequest)
	}
	members, err := s.store.Members(ctx, conversation)
	if err != nil {
		return err
	}
	if !slices.Contains(members, connID) {
		return fmt.Errorf("%w: %s", store.ErrNotMember, conversation)
	}
	if f.SentAt.IsZero() {
		f.SentAt = s.now().UTC()
	}

	msg, err := s.store.PutFrame(ctx, conversation, connID, *f)
	if err != nil {
		return err
	}
	if err := s.emit(ctx, connID, wire.Event{Type: wire.EventDelivered, Conversation: conversation, FrameID: msg.Frame.ID}); err != nil {
		s.logger.WarnContext(ctx, "unable to acknowledge frame", "frame", msg.Frame.ID, "err", err)
	}

	for _, peer := range members {
		if peer == connID {
			continue
		}
		if err := s.deliver(ctx, conversation, peer, msg); err != nil {
			s.logger.InfoContext(ctx, "frame left pending", "frame", msg.Frame.ID, "peer", peer, "err", err)
		}
	}
	return nil
}

// deliver pushes one stored frame and removes it once the push succeeds.
func (s *LambdaSvc) deliver(ctx context.Context, conversation, to string, m store.Message) error {
	err := s.emit(ctx, to, wire.Event{Type: wire.EventFrame, Conversation: conversation, Frame: &m.Frame})
	if errors.Is(err, notify.ErrGone) {
		if _, lerr := s.store.Leave(ctx, to); lerr != nil {
			s.logger.WarnContext(ctx, "unable to remove stale connection", "connection", to, "err", lerr)
		}
		return err
	}
	if err != nil {
		return err
	}
	return s.store.DeleteFrame(ctx, conversation, m.Key)
}

func (s *LambdaSvc) emit(ctx context.Context, to string, ev wire.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.ws.Send(ctx, to, b)
}

// fail reports err to the caller. The caller may already be gone.
func (s *LambdaSvc) fail(ctx context.Context, connID, frameID string, err error) {
	ev := wire.Event{Type: wire.EventError, FrameID: frameID, Error: err.Error()}
	if serr := s.emit(ctx, connID, ev); serr != nil {
		s.logger.DebugContext(ctx, "unable to report error", "connection", connID, "err", serr)
	}
}
