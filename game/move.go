package game

import (
	"errors"
	"fmt"
)

// Move is one of the spells a player can cast. MoveNone means the slot
// has not played yet this round.
type Move int

const (
	MoveNone Move = iota
	MoveFire
	MoveWater
	MoveIce
)

var (
	// Moves lists every playable spell, in presentation order.
	Moves = []Move{MoveFire, MoveWater, MoveIce}

	moveNames = map[Move]string{
		MoveNone:  "none",
		MoveFire:  "fire",
		MoveWater: "water",
		MoveIce:   "ice",
	}

	// winnermap holds "winner:loser" -> verb
	winnermap = map[string]string{
		"water:fire": "douses",
		"fire:ice":   "melts",
		"ice:water":  "freezes",
	}
)

var (
	ErrUnknownMove    = errors.New("game: unknown move")
	ErrUnknownSlot    = errors.New("game: unknown slot")
	ErrUnknownOutcome = errors.New("game: unknown outcome")
)

func (m Move) String() string {
	if s, ok := moveNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Move(%d)", int(m))
}

// Valid reports whether m is a playable spell.
func (m Move) Valid() bool {
	return m == MoveFire || m == MoveWater || m == MoveIce
}

// ParseMove converts a wire token into a Move. The neutral token "none"
// is accepted.
func ParseMove(s string) (Move, error) {
	for m, name := range moveNames {
		if name == s {
			return m, nil
		}
	}
	return MoveNone, fmt.Errorf("%w %q", ErrUnknownMove, s)
}

// Slot is one of the two fixed roles in a match.
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

func (s Slot) String() string {
	switch s {
	case Slot1:
		return "1"
	case Slot2:
		return "2"
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

// Other returns the opposing slot.
func (s Slot) Other() Slot {
	if s == Slot1 {
		return Slot2
	}
	return Slot1
}

func (s Slot) Valid() bool {
	return s == Slot1 || s == Slot2
}

// ParseSlot converts "1" or "2" into a Slot.
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "1":
		return Slot1, nil
	case "2":
		return Slot2, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownSlot, s)
}

// Outcome is the result of a round seen from one slot.
type Outcome int

const (
	Incomplete Outcome = iota
	Won
	Lost
	Draw
)

var outcomeNames = map[Outcome]string{
	Incomplete: "incomplete",
	Won:        "won",
	Lost:       "lost",
	Draw:       "draw",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Terminal reports whether the round is over.
func (o Outcome) Terminal() bool {
	return o == Won || o == Lost || o == Draw
}

// Flip reinterprets the outcome from the opponent's side.
func (o Outcome) Flip() Outcome {
	switch o {
	case Won:
		return Lost
	case Lost:
		return Won
	}
	return o
}

// ParseOutcome converts a wire token into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	for o, name := range outcomeNames {
		if name == s {
			return o, nil
		}
	}
	return Incomplete, fmt.Errorf("%w %q", ErrUnknownOutcome, s)
}

// Beats reports whether first defeats second, with the verb that reads
// "first <verb> second", e.g. "douses" for water over fire. Equal moves
// return false and "ties".
func Beats(first, second Move) (bool, string) {
	if first == second {
		return false, "ties"
	}
	how, ok := winnermap[first.String()+":"+second.String()]
	if ok {
		return true, how
	}
	return false, ""
}

// DetermineResult resolves a round from the point of view of the player
// who cast local. Either move being neutral leaves the round Incomplete.
func DetermineResult(local, remote Move) Outcome {
	if !local.Valid() || !remote.Valid() {
		return Incomplete
	}
	if local == remote {
		return Draw
	}
	if beats, _ := Beats(local, remote); beats {
		return Won
	}
	return Lost
}
