package snapshot

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/jbarratt/duel/game"
)

func TestRender(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	for _, m := range []game.Move{game.MoveFire, game.MoveWater, game.MoveIce, game.MoveNone} {
		t.Run(m.String(), func(t *testing.T) {
			data, err := r.Render(m)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != Size || b.Dy() != Size {
				t.Fatalf("size = %v", b)
			}
			cr, cg, cb, _ := img.At(5, 5).RGBA()
			if cr>>8 != 255 || cg>>8 != 255 || cb>>8 != 255 {
				t.Errorf("corner should be white, got %d %d %d", cr>>8, cg>>8, cb>>8)
			}
			// left edge of the disc, clear of the label
			dr, dg, _, _ := img.At(Size/2-radius+8, Size/2).RGBA()
			if dr>>8 < 200 || dg>>8 > 60 {
				t.Errorf("disc should be red, got r=%d g=%d", dr>>8, dg>>8)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	if label(game.MoveNone) != "?" {
		t.Errorf("neutral label")
	}
	if label(game.MoveIce) != "ice" {
		t.Errorf("ice label")
	}
}
