// Package snapshot draws the still preview attached to outgoing messages.
package snapshot

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/jbarratt/duel/game"
)

const (
	Size       = 300
	radius     = 75
	labelPoint = 40
)

// Renderer turns a move into a PNG preview: a red disc on white with the
// move's name written across it.
type Renderer struct {
	mu     sync.Mutex
	source *text.FontSource
	face   text.Face
}

func New() (*Renderer, error) {
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load font: %w", err)
	}
	return &Renderer{source: source, face: source.Face(labelPoint)}, nil
}

// Render returns the preview for move as PNG bytes.
func (r *Renderer) Render(move game.Move) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(Size, Size)
	defer dc.Close()

	dc.ClearWithColor(gg.White)
	dc.SetRGB(1, 0, 0)
	dc.DrawCircle(Size/2, Size/2, radius)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("snapshot: fill: %w", err)
	}

	dc.SetRGB(1, 1, 1)
	dc.SetFont(r.face)
	dc.DrawStringAnchored(label(move), Size/2, Size/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func label(m game.Move) string {
	if m == game.MoveNone {
		return "?"
	}
	return m.String()
}

func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source.Close()
}
