package session

import (
	"fmt"
	"strings"

	"github.com/jbarratt/duel/game"
	"github.com/jbarratt/duel/scene"
)

// Gesture is a discrete input from the host.
type Gesture int

const (
	GestureTap Gesture = iota
	GestureSwipeUp
	GestureSwipeDown
	GestureSwipeLeft
	GestureSwipeRight
)

var gestureNames = map[Gesture]string{
	GestureTap:        "tap",
	GestureSwipeUp:    "up",
	GestureSwipeDown:  "down",
	GestureSwipeLeft:  "left",
	GestureSwipeRight: "right",
}

func (g Gesture) String() string {
	if s, ok := gestureNames[g]; ok {
		return s
	}
	return fmt.Sprintf("Gesture(%d)", int(g))
}

// ParseGesture accepts the names printed by String.
func ParseGesture(s string) (Gesture, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for g, name := range gestureNames {
		if name == s {
			return g, true
		}
	}
	return 0, false
}

// Command is what a gesture does. Move is MoveNone when the gesture only
// manipulates the scene.
type Command struct {
	Move   game.Move
	Resize *scene.Size
	Spin   bool
}

func size(s scene.Size) *scene.Size { return &s }

var gestureCommands = map[Gesture]Command{
	GestureSwipeUp:    {Move: game.MoveIce, Resize: size(scene.SizeBig)},
	GestureSwipeDown:  {Move: game.MoveWater, Resize: size(scene.SizeSmall)},
	GestureSwipeLeft:  {Move: game.MoveFire, Resize: size(scene.SizeMedium)},
	GestureSwipeRight: {Resize: size(scene.SizeMedium)},
	GestureTap:        {Spin: true},
}

// CommandFor maps a gesture to its command.
func CommandFor(g Gesture) (Command, bool) {
	c, ok := gestureCommands[g]
	return c, ok
}
