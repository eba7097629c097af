// Package session runs one duel on a client: it turns local input into
// outgoing frames and inbound frames into match updates, and keeps the
// scene showing the current spell.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jbarratt/duel/codec"
	"github.com/jbarratt/duel/game"
	"github.com/jbarratt/duel/gpu"
	"github.com/jbarratt/duel/internal/logging"
	"github.com/jbarratt/duel/scene"
	"github.com/jbarratt/duel/wire"
)

//go:generate go tool mockgen -destination=./mocks/session_mock.go -package=mocks . Messenger,Notifier,Scene,Previewer

// State is where the controller is in the host's lifecycle.
type State int

const (
	Inactive State = iota
	Active
	// Presenting means a frame has been handed to the Messenger and its
	// completion has not arrived yet.
	Presenting
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Presenting:
		return "presenting"
	}
	return "inactive"
}

var (
	ErrInactive   = errors.New("session: not active")
	ErrBusy       = errors.New("session: a move is already being sent")
	ErrSendFailed = errors.New("session: move could not be sent")
)

// Messenger hands frames to the host's message transport. done must be
// called exactly once.
type Messenger interface {
	Send(ctx context.Context, f wire.Frame, done func(error))
}

// Notifier shows messages to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Scene is the part of the render scene the session drives.
type Scene interface {
	SwapTexture(id scene.RangeID, tex gpu.TextureID) error
	Resize(s scene.Size)
	ToggleMoving() bool
}

// Previewer draws the image attached to an outgoing frame.
type Previewer interface {
	Render(move game.Move) ([]byte, error)
}

type Kind int

const (
	KindInfo Kind = iota
	KindOutcome
	KindError
)

// Notification is one user-visible message.
type Notification struct {
	Kind    Kind
	Text    string
	Outcome game.Outcome
	Round   int
	Err     error
}

type Config struct {
	Messenger Messenger
	Notifier  Notifier
	// Scene and Previewer are optional
	Scene     Scene
	Previewer Previewer
	// Spells maps each move to the texture shown on the cube
	Spells map[game.Move]gpu.TextureID
	// DismissOnSend returns the controller to Inactive after a
	// successful send, as a chat extension closes once its message is
	// composed.
	DismissOnSend bool
	Logger        *slog.Logger
}

// Controller is the session state machine:
// Inactive -> Active -> Presenting -> Active or Inactive.
type Controller struct {
	messenger Messenger
	notifier  Notifier
	scene     Scene
	previewer Previewer
	spells    map[game.Move]gpu.TextureID
	dismiss   bool
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	match    *game.Match
	selected game.Move
	lastSent game.Move
	// generation changes on deactivate so late send completions are ignored
	generation uint64
	// revision changes whenever match is replaced
	revision uint64
}

func New(cfg Config) (*Controller, error) {
	if cfg.Messenger == nil {
		return nil, errors.New("session: messenger required")
	}
	if cfg.Notifier == nil {
		return nil, errors.New("session: notifier required")
	}
	spells := make(map[game.Move]gpu.TextureID, len(cfg.Spells))
	for m, tex := range cfg.Spells {
		spells[m] = tex
	}
	return &Controller{
		messenger: cfg.Messenger,
		notifier:  cfg.Notifier,
		scene:     cfg.Scene,
		previewer: cfg.Previewer,
		spells:    spells,
		dismiss:   cfg.DismissOnSend,
		logger:    logging.OrNop(cfg.Logger),
	}, nil
}

// OnActivate is called when the host shows the session, with the
// payload of the message that opened it, if any.
func (c *Controller) OnActivate(ctx context.Context, inbound *string) error {
	c.mu.Lock()
	if c.state == Inactive {
		c.state = Active
	}
	c.mu.Unlock()
	c.logger.DebugContext(ctx, "session activated", "inbound", inbound != nil)

	if inbound == nil {
		return nil
	}
	return c.Receive(ctx, *inbound)
}

// OnDeactivate ends the session. The match is discarded.
func (c *Controller) OnDeactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Inactive
	c.match = nil
	c.selected = game.MoveNone
	c.lastSent = game.MoveNone
	c.generation++
	c.revision++
}

// Select makes move the pending choice and shows its spell on the cube.
func (c *Controller) Select(ctx context.Context, move game.Move) error {
	if !move.Valid() {
		return fmt.Errorf("%w: %s", game.ErrInvalidMove, move)
	}
	c.mu.Lock()
	if c.state == Inactive {
		c.mu.Unlock()
		return ErrInactive
	}
	c.selected = move
	c.mu.Unlock()

	c.showSpell(ctx, move)
	return nil
}

// HandleGesture applies the command mapped to g.
func (c *Controller) HandleGesture(ctx context.Context, g Gesture) error {
	cmd, ok := CommandFor(g)
	if !ok {
		return fmt.Errorf("session: unmapped gesture %s", g)
	}
	if c.State() == Inactive {
		return ErrInactive
	}
	if c.scene != nil {
		if cmd.Resize != nil {
			c.scene.Resize(*cmd.Resize)
		}
		if cmd.Spin {
			moving := c.scene.ToggleMoving()
			c.logger.DebugContext(ctx, "spin toggled", "moving", moving)
		}
	}
	if cmd.Move == game.MoveNone {
		return nil
	}
	return c.Select(ctx, cmd.Move)
}

// Submit plays the selected move and sends it. The match only changes
// once the Messenger reports the frame sent; a failed send leaves it as
// it was so the move can be retried. A round the move decides is
// announced and advanced on commit.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Inactive:
		c.mu.Unlock()
		return ErrInactive
	case Presenting:
		c.mu.Unlock()
		return ErrBusy
	}
	move := c.selected

	candidate, summary, err := game.Submit(c.match.Clone(), game.Slot1, move)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	payload := codec.Encode(*candidate)
	c.state = Presenting
	gen, rev := c.generation, c.revision
	c.mu.Unlock()

	frame := wire.Frame{Caption: codec.Caption(summary), Payload: payload}
	if c.previewer != nil {
		img, err := c.previewer.Render(move)
		if err != nil {
			c.logger.WarnContext(ctx, "preview failed, sending without image", "err", err)
		}
		frame.Image = img
	}

	c.logger.DebugContext(ctx, "sending move", "move", move, "round", candidate.Round, "result", candidate.Result)
	c.messenger.Send(ctx, frame, func(err error) {
		c.sent(ctx, gen, rev, candidate, summary, err)
	})
	return nil
}

func (c *Controller) sent(ctx context.Context, gen, rev uint64, candidate *game.Match, summary game.RoundSummary, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "send finished after session ended", "err", err)
		return
	}
	if c.state == Presenting {
		c.state = Active
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "send failed", "err", err)
		c.notifier.Notify(ctx, Notification{
			Kind: KindError,
			Text: "Your move was not sent, try again",
			Err:  fmt.Errorf("%w: %w", ErrSendFailed, err),
		})
		return
	}
	if c.revision == rev {
		// the peer advances a decided round on receipt; so does the sender
		if summary.Outcome.Terminal() {
			_ = candidate.NextRound() // candidate is never nil
		}
		c.match = candidate
		c.revision++
	} else {
		c.logger.WarnContext(ctx, "match changed while sending, keeping received state")
	}
	c.lastSent = summary.Local
	if c.dismiss {
		c.state = Inactive
	}
	c.mu.Unlock()

	if summary.Outcome.Terminal() {
		c.notifyOutcome(ctx, summary)
	}
}

// Receive adopts the match carried by an inbound payload. A payload that
// does not decode is reported and leaves the current match untouched.
// A decided round is announced and then advanced.
func (c *Controller) Receive(ctx context.Context, payload string) error {
	if c.State() == Inactive {
		return ErrInactive
	}
	m, err := codec.Decode(payload)
	if err != nil {
		c.logger.WarnContext(ctx, "inbound payload rejected", "err", err)
		c.notifier.Notify(ctx, Notification{Kind: KindError, Text: "Could not read your opponent's move", Err: err})
		return fmt.Errorf("session: decode: %w", err)
	}

	c.mu.Lock()
	if c.state == Inactive {
		c.mu.Unlock()
		return ErrInactive
	}
	var summary game.RoundSummary
	if m.Result.Terminal() {
		summary = game.RoundSummary{
			Round:   m.Round,
			Outcome: m.Result,
			Local:   c.lastSent,
			Remote:  m.RemoteMove(),
		}
		if m.Result == game.Draw {
			summary.Local = summary.Remote
		}
		if summary.Local.Valid() && summary.Remote.Valid() {
			summary.Text = game.Summarize(summary.Local, summary.Remote)
		} else {
			summary.Text = fmt.Sprintf("they cast %s", summary.Remote)
		}
		if err := m.NextRound(); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.match = &m
	c.revision++
	c.mu.Unlock()

	c.showSpell(ctx, m.Texture)
	if summary.Outcome.Terminal() {
		c.notifyOutcome(ctx, summary)
	}
	return nil
}

// OnFrame is Receive for a frame from the transport. Errors have already
// been shown to the user.
func (c *Controller) OnFrame(ctx context.Context, f wire.Frame) {
	if err := c.Receive(ctx, f.Payload); err != nil {
		c.logger.DebugContext(ctx, "frame dropped", "id", f.ID, "err", err)
	}
}

func (c *Controller) showSpell(ctx context.Context, move game.Move) {
	if c.scene == nil {
		return
	}
	tex, ok := c.spells[move]
	if !ok {
		return
	}
	if err := c.scene.SwapTexture(scene.Cube, tex); err != nil {
		c.logger.WarnContext(ctx, "spell texture swap failed", "move", move, "err", err)
	}
}

func (c *Controller) notifyOutcome(ctx context.Context, s game.RoundSummary) {
	var text string
	switch s.Outcome {
	case game.Won:
		text = "You won! " + s.Text
	case game.Lost:
		text = "You lost. " + s.Text
	default:
		text = "Draw. " + s.Text
	}
	c.notifier.Notify(ctx, Notification{Kind: KindOutcome, Text: text, Outcome: s.Outcome, Round: s.Round})
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Match returns a copy of the current match, or nil before the first
// submit or receive.
func (c *Controller) Match() *game.Match {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.match == nil {
		return nil
	}
	m := *c.match
	return &m
}

func (c *Controller) Selected() game.Move {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}
