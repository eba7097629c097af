// package game implements the rules of the spell duel and the state of one match
package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized = errors.New("game: match not initialized")
	ErrInvalidMove    = errors.New("game: invalid move")
)

// Match is the state of the single in-flight match, expressed from the
// point of view of the local instance.
type Match struct {
	// Current is the slot the local instance resolves as
	Current Slot
	P1Move  Move
	P2Move  Move
	// Texture is the spell shown on the interactive cube
	Texture Move
	Round   int
	Result  Outcome
}

// RoundSummary keeps what a finished round looked like before the
// opponent's move is cleared for the next one.
type RoundSummary struct {
	Round   int
	Outcome Outcome
	Local   Move
	Remote  Move
	Text    string
}

// NewMatch starts a match at round 1 with nothing played.
func NewMatch(slot Slot) *Match {
	return &Match{
		Current: slot,
		Round:   1,
		Result:  Incomplete,
	}
}

// Submit plays move for slot, creating the match first when m is nil.
// The returned match is the one that was mutated.
func Submit(m *Match, slot Slot, move Move) (*Match, RoundSummary, error) {
	if !move.Valid() {
		return m, RoundSummary{}, fmt.Errorf("%w: %s", ErrInvalidMove, move)
	}
	if m == nil {
		m = NewMatch(slot)
	}
	summary, err := m.Submit(move)
	return m, summary, err
}

// Submit records move for the current slot and recomputes the result.
// When the round is decided the opponent's move is cleared back to
// neutral, ready for the next round; the local move stays for display.
func (m *Match) Submit(move Move) (RoundSummary, error) {
	if m == nil {
		return RoundSummary{}, ErrNotInitialized
	}
	if !move.Valid() {
		return RoundSummary{}, fmt.Errorf("%w: %s", ErrInvalidMove, move)
	}
	m.setMove(m.Current, move)
	m.Texture = move

	remote := m.RemoteMove()
	m.Result = DetermineResult(move, remote)
	summary := RoundSummary{
		Round:   m.Round,
		Outcome: m.Result,
		Local:   move,
		Remote:  remote,
	}
	if m.Result.Terminal() {
		summary.Text = Summarize(move, remote)
		m.setMove(m.Current.Other(), MoveNone)
	}
	return summary, nil
}

// DetermineResult is the outcome of the moves currently recorded.
func (m *Match) DetermineResult() (Outcome, error) {
	if m == nil {
		return Incomplete, ErrNotInitialized
	}
	return DetermineResult(m.LocalMove(), m.RemoteMove()), nil
}

// NextRound moves an adopted, finished round on to the next one.
func (m *Match) NextRound() error {
	if m == nil {
		return ErrNotInitialized
	}
	m.Round++
	m.P1Move = MoveNone
	m.P2Move = MoveNone
	m.Result = Incomplete
	return nil
}

// Clone returns an independent copy of m, or nil when m is nil.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// Move returns the move recorded for slot.
func (m *Match) Move(slot Slot) Move {
	if slot == Slot2 {
		return m.P2Move
	}
	return m.P1Move
}

func (m *Match) LocalMove() Move {
	return m.Move(m.Current)
}

func (m *Match) RemoteMove() Move {
	return m.Move(m.Current.Other())
}

func (m *Match) setMove(slot Slot, move Move) {
	if slot == Slot2 {
		m.P2Move = move
		return
	}
	m.P1Move = move
}

// Summarize describes a decided round, e.g. "water douses fire".
func Summarize(local, remote Move) string {
	if local == remote {
		return fmt.Sprintf("Both played %s, tie", local)
	}
	if beats, how := Beats(local, remote); beats {
		return fmt.Sprintf("%s %s %s", local, how, remote)
	}
	_, how := Beats(remote, local)
	return fmt.Sprintf("%s %s %s", remote, how, local)
}
