// Package scene composes the duel stage: one shared vertex buffer split
// into fixed ranges, a texture bound to each range, and the pose of the
// whole object.
package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jbarratt/duel/gpu"
)

// RangeID names one textured sub-mesh of the vertex buffer.
type RangeID int

const (
	Floor RangeID = iota
	Walls
	Sky
	Cloak
	Face
	Cube
)

// DrawOrder is the order ranges are drawn in every frame.
var DrawOrder = []RangeID{Floor, Walls, Sky, Cloak, Face, Cube}

var rangeNames = map[RangeID]string{
	Floor: "floor",
	Walls: "walls",
	Sky:   "sky",
	Cloak: "cloak",
	Face:  "face",
	Cube:  "cube",
}

func (id RangeID) String() string {
	if s, ok := rangeNames[id]; ok {
		return s
	}
	return fmt.Sprintf("RangeID(%d)", int(id))
}

func (id RangeID) valid() bool {
	_, ok := rangeNames[id]
	return ok
}

var (
	ErrBadLayout          = errors.New("scene: vertex ranges do not partition the buffer")
	ErrUnknownRange       = errors.New("scene: unknown range")
	ErrIncompleteTextures = errors.New("scene: texture table does not match ranges")
)

// VertexRange is a contiguous run of vertices drawn with one texture.
type VertexRange struct {
	ID    RangeID
	Start uint32
	Count uint32
}

// End is one past the last vertex of the range.
func (r VertexRange) End() uint32 {
	return r.Start + r.Count
}

// Layout is the set of ranges of one vertex buffer.
type Layout []VertexRange

// Validate checks that the ranges are non-empty, name each sub-mesh at
// most once and together cover [0, vertexCount) without gaps or overlaps.
func (l Layout) Validate(vertexCount uint32) error {
	if len(l) == 0 {
		return fmt.Errorf("%w: no ranges", ErrBadLayout)
	}
	seen := make(map[RangeID]bool, len(l))
	sorted := append(Layout(nil), l...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var next uint32
	for _, r := range sorted {
		if !r.ID.valid() {
			return fmt.Errorf("%w: %d", ErrUnknownRange, int(r.ID))
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: %s listed twice", ErrBadLayout, r.ID)
		}
		seen[r.ID] = true
		if r.Count == 0 {
			return fmt.Errorf("%w: %s is empty", ErrBadLayout, r.ID)
		}
		if r.Start != next {
			return fmt.Errorf("%w: %s starts at %d, expected %d", ErrBadLayout, r.ID, r.Start, next)
		}
		next = r.End()
	}
	if next != vertexCount {
		return fmt.Errorf("%w: ranges end at %d, buffer holds %d vertices", ErrBadLayout, next, vertexCount)
	}
	return nil
}

// Range returns the range for id.
func (l Layout) Range(id RangeID) (VertexRange, bool) {
	for _, r := range l {
		if r.ID == id {
			return r, true
		}
	}
	return VertexRange{}, false
}

// characterCounts is the vertex count of each sub-mesh of the character
// model, in buffer order. The cube takes whatever follows.
var characterCounts = []struct {
	id    RangeID
	count uint32
}{
	{Floor, 48},
	{Walls, 96},
	{Sky, 6},
	{Cloak, 234},
	{Face, 24},
}

// DefaultLayout is the layout of the character model: floor, walls, sky,
// cloak and face at fixed sizes, then the interactive cube.
func DefaultLayout(vertexCount uint32) (Layout, error) {
	var l Layout
	var start uint32
	for _, c := range characterCounts {
		l = append(l, VertexRange{ID: c.id, Start: start, Count: c.count})
		start += c.count
	}
	if vertexCount <= start {
		return nil, fmt.Errorf("%w: %d vertices leave nothing for the cube", ErrBadLayout, vertexCount)
	}
	l = append(l, VertexRange{ID: Cube, Start: start, Count: vertexCount - start})
	return l, nil
}

// TextureTable binds one texture to each range.
type TextureTable map[RangeID]gpu.TextureID

// Validate checks that every range of l has exactly one live texture and
// that no texture is bound to a range l does not have.
func (t TextureTable) Validate(l Layout) error {
	for _, r := range l {
		tex, ok := t[r.ID]
		if !ok || tex == gpu.InvalidID {
			return fmt.Errorf("%w: no texture for %s", ErrIncompleteTextures, r.ID)
		}
	}
	for id := range t {
		if _, ok := l.Range(id); !ok {
			return fmt.Errorf("%w: texture bound to absent range %s", ErrIncompleteTextures, id)
		}
	}
	return nil
}

func (t TextureTable) clone() TextureTable {
	c := make(TextureTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}
