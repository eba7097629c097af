package scene

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"pgregory.net/rapid"

	"github.com/jbarratt/duel/gpu"
	"github.com/jbarratt/duel/gpu/gputest"
)

type fixture struct {
	dev      *gputest.Device
	obj      *Object
	target   gpu.TargetID
	textures TextureTable
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dev := gputest.New()
	mesh, err := CharacterMesh()
	if err != nil {
		t.Fatalf("CharacterMesh: %v", err)
	}
	textures := TextureTable{}
	for _, id := range DrawOrder {
		tex, err := dev.CreateTexture(nil)
		if err != nil {
			t.Fatalf("CreateTexture: %v", err)
		}
		textures[id] = tex
	}
	obj, err := NewObject(dev, mesh, textures, opts...)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	target, err := dev.CreateTarget(320, 240)
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	return &fixture{dev: dev, obj: obj, target: target, textures: textures}
}

func (f *fixture) frame() Frame {
	return Frame{Target: f.target, Parent: mgl32.Ident4(), Projection: mgl32.Ident4()}
}

func TestDefaultLayout(t *testing.T) {
	l, err := DefaultLayout(444)
	if err != nil {
		t.Fatalf("DefaultLayout: %v", err)
	}
	want := Layout{
		{Floor, 0, 48},
		{Walls, 48, 96},
		{Sky, 144, 6},
		{Cloak, 150, 234},
		{Face, 384, 24},
		{Cube, 408, 36},
	}
	if len(l) != len(want) {
		t.Fatalf("got %d ranges, want %d", len(l), len(want))
	}
	for i := range want {
		if l[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, l[i], want[i])
		}
	}
	if err := l.Validate(444); err != nil {
		t.Errorf("default layout should validate: %v", err)
	}
	if _, err := DefaultLayout(408); !errors.Is(err, ErrBadLayout) {
		t.Errorf("layout without room for the cube: %v", err)
	}
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		count  uint32
		err    error
	}{
		{"ok", Layout{{Floor, 0, 6}, {Cube, 6, 36}}, 42, nil},
		{"out of order is fine", Layout{{Cube, 6, 36}, {Floor, 0, 6}}, 42, nil},
		{"gap", Layout{{Floor, 0, 6}, {Cube, 7, 35}}, 42, ErrBadLayout},
		{"overlap", Layout{{Floor, 0, 48}, {Walls, 48, 144}, {Sky, 144, 6}}, 150, ErrBadLayout},
		{"short", Layout{{Floor, 0, 6}}, 12, ErrBadLayout},
		{"duplicate", Layout{{Floor, 0, 6}, {Floor, 6, 6}}, 12, ErrBadLayout},
		{"empty range", Layout{{Floor, 0, 6}, {Sky, 6, 0}}, 6, ErrBadLayout},
		{"unknown id", Layout{{RangeID(42), 0, 6}}, 6, ErrUnknownRange},
		{"no ranges", nil, 0, ErrBadLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate(tt.count)
			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("got %v, want %v", err, tt.err)
			}
		})
	}
}

func TestBuilderPartitions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfNDistinct(rapid.SampledFrom(DrawOrder), 1, len(DrawOrder), func(id RangeID) RangeID { return id }).Draw(t, "ids")
		b := NewMeshBuilder()
		for _, id := range ids {
			n := rapid.IntRange(1, 50).Draw(t, "count")
			b.Add(id, make([]Vertex, n)...)
		}
		mesh, err := b.Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		var next uint32
		for _, r := range mesh.Layout {
			if r.Start != next {
				t.Fatalf("range %s starts at %d, want %d", r.ID, r.Start, next)
			}
			next = r.End()
		}
		if next != uint32(len(mesh.Vertices)) {
			t.Fatalf("ranges cover %d of %d vertices", next, len(mesh.Vertices))
		}
		if got := len(mesh.Bytes()); got != len(mesh.Vertices)*gpu.VertexStride {
			t.Fatalf("vertex bytes = %d", got)
		}
	})
}

func TestBuilderDuplicate(t *testing.T) {
	_, err := NewMeshBuilder().Add(Sky, make([]Vertex, 6)...).Add(Sky, make([]Vertex, 6)...).Build()
	if !errors.Is(err, ErrBadLayout) {
		t.Errorf("duplicate range: %v", err)
	}
}

func TestTextureTableValidate(t *testing.T) {
	l := Layout{{Floor, 0, 6}, {Cube, 6, 36}}
	if err := (TextureTable{Floor: 1, Cube: 2}).Validate(l); err != nil {
		t.Errorf("complete table: %v", err)
	}
	if err := (TextureTable{Floor: 1}).Validate(l); !errors.Is(err, ErrIncompleteTextures) {
		t.Errorf("missing cube: %v", err)
	}
	if err := (TextureTable{Floor: 1, Cube: gpu.InvalidID}).Validate(l); !errors.Is(err, ErrIncompleteTextures) {
		t.Errorf("invalid texture: %v", err)
	}
	if err := (TextureTable{Floor: 1, Cube: 2, Sky: 3}).Validate(l); !errors.Is(err, ErrIncompleteTextures) {
		t.Errorf("extra binding: %v", err)
	}
}

func TestNewObjectRejectsIncompleteTextures(t *testing.T) {
	mesh, err := CharacterMesh()
	if err != nil {
		t.Fatalf("CharacterMesh: %v", err)
	}
	_, err = NewObject(gputest.New(), mesh, TextureTable{Floor: 1})
	if !errors.Is(err, ErrIncompleteTextures) {
		t.Errorf("NewObject: %v", err)
	}
}

func TestRenderDrawOrder(t *testing.T) {
	f := newFixture(t)
	if err := f.obj.Render(context.Background(), f.frame()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	frames := f.dev.Frames()
	if len(frames) != 1 {
		t.Fatalf("got %d frames", len(frames))
	}
	fr := frames[0]
	if fr.Clear != ClearColor {
		t.Errorf("clear color = %+v", fr.Clear)
	}
	if len(fr.Draws) != len(DrawOrder) {
		t.Fatalf("got %d draws, want %d", len(fr.Draws), len(DrawOrder))
	}
	layout := f.obj.Layout()
	for i, id := range DrawOrder {
		d := fr.Draws[i]
		r, _ := layout.Range(id)
		if d.First != r.Start || d.Count != r.Count {
			t.Errorf("draw %d covers [%d,+%d), want %s [%d,+%d)", i, d.First, d.Count, id, r.Start, r.Count)
		}
		if d.Texture != f.textures[id] {
			t.Errorf("draw %d bound texture %d, want %d for %s", i, d.Texture, f.textures[id], id)
		}
	}
	if f.dev.Presented() != 1 {
		t.Errorf("frame should be presented")
	}
}

func TestRenderWorldTransform(t *testing.T) {
	pose := Pose{Position: mgl32.Vec3{1, 2, 3}, Rotation: mgl32.Vec3{0.1, 0.2, 0.3}, Scale: 2}
	f := newFixture(t, WithPose(pose))
	parent := mgl32.Translate3D(0, 0, -7).Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(25)))
	frame := f.frame()
	frame.Parent = parent
	if err := f.obj.Render(context.Background(), frame); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := parent.Mul4(mgl32.Translate3D(1, 2, 3)).
		Mul4(mgl32.HomogRotate3DX(0.1)).
		Mul4(mgl32.HomogRotate3DY(0.2)).
		Mul4(mgl32.HomogRotate3DZ(0.3)).
		Mul4(mgl32.Scale3D(2, 2, 2))

	data := f.dev.Frames()[0].Draws[0].UniformData
	var got mgl32.Mat4
	for i := range got {
		got[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[(16+i)*4:]))
	}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("model view =\n%v\nwant\n%v", got, want)
	}
}

func TestSwapTextureAtFrameBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	spell, _ := f.dev.CreateTexture(nil)

	if err := f.obj.SwapTexture(Cube, spell); err != nil {
		t.Fatalf("SwapTexture: %v", err)
	}
	if f.obj.Textures()[Cube] != f.textures[Cube] {
		t.Errorf("swap should wait for the next frame")
	}
	if err := f.obj.Render(ctx, f.frame()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	draws := f.dev.Frames()[0].Draws
	last := draws[len(draws)-1]
	if last.Texture != spell {
		t.Errorf("cube drawn with %d, want %d", last.Texture, spell)
	}
	for _, d := range draws[:len(draws)-1] {
		if d.Texture == spell {
			t.Errorf("swap leaked into another range: %+v", d)
		}
	}
	if f.obj.Textures()[Cube] != spell {
		t.Errorf("applied table should hold the new texture")
	}

	if err := f.obj.SwapTexture(RangeID(9), spell); !errors.Is(err, ErrUnknownRange) {
		t.Errorf("unknown range: %v", err)
	}
	if err := f.obj.SwapTexture(Cube, gpu.InvalidID); !errors.Is(err, ErrIncompleteTextures) {
		t.Errorf("invalid texture: %v", err)
	}
}

func TestRenderExhaustedPool(t *testing.T) {
	f := newFixture(t, WithFrames(gpu.FramesInFlight, gpu.WithAcquireTimeout(20*time.Millisecond)))
	f.dev.Manual = true
	ctx := context.Background()

	for i := 0; i < gpu.FramesInFlight; i++ {
		if err := f.obj.Render(ctx, f.frame()); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	err := f.obj.Render(ctx, f.frame())
	if !errors.Is(err, gpu.ErrResourceExhausted) {
		t.Fatalf("fourth frame should be dropped, got %v", err)
	}
	if len(f.dev.Frames()) != gpu.FramesInFlight {
		t.Errorf("dropped frame should not reach the device")
	}

	if !f.dev.Complete(nil) {
		t.Fatal("no pending frame to complete")
	}
	if err := f.obj.Render(ctx, f.frame()); err != nil {
		t.Errorf("frame after completion: %v", err)
	}
}

func TestRenderSubmitFailureReleasesSlot(t *testing.T) {
	f := newFixture(t, WithFrames(1, gpu.WithAcquireTimeout(20*time.Millisecond)))
	f.dev.FailSubmit = errors.New("lost device")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := f.obj.Render(ctx, f.frame())
		if err == nil || errors.Is(err, gpu.ErrResourceExhausted) {
			t.Fatalf("frame %d: want submit error, got %v", i, err)
		}
	}
}

func TestUpdatePoseDeterministic(t *testing.T) {
	steps := []time.Duration{0, 16 * time.Millisecond, 17 * time.Millisecond, time.Second}
	a := newFixture(t)
	b := newFixture(t)
	a.obj.SetMoving(true)
	b.obj.SetMoving(true)
	for _, dt := range steps {
		a.obj.UpdatePose(dt)
		b.obj.UpdatePose(dt)
	}
	if a.obj.Pose() != b.obj.Pose() {
		t.Errorf("poses diverged: %+v vs %+v", a.obj.Pose(), b.obj.Pose())
	}
	want := float32(SpinRate * (0.016 + 0.017 + 1))
	if got := a.obj.Pose().Rotation[1]; math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("rotation = %v, want %v", got, want)
	}
}

func TestStillObjectDoesNotSpin(t *testing.T) {
	f := newFixture(t)
	f.obj.UpdatePose(time.Second)
	if rot := f.obj.Pose().Rotation[1]; rot != 0 {
		t.Errorf("still object rotated to %v", rot)
	}

	f.obj.ToggleMoving()
	f.obj.UpdatePose(time.Second)
	if rot := f.obj.Pose().Rotation[1]; rot != SpinRate {
		t.Errorf("moving object rotation = %v, want %v", rot, SpinRate)
	}

	f.obj.ToggleMoving()
	f.obj.UpdatePose(time.Second)
	if rot := f.obj.Pose().Rotation[1]; rot != SpinRate {
		t.Errorf("spin continued after stopping: %v", rot)
	}
}

func TestResizeAndMoving(t *testing.T) {
	f := newFixture(t)
	f.obj.Resize(SizeBig)
	if f.obj.Pose().Scale != 1.5 {
		t.Errorf("big scale = %v", f.obj.Pose().Scale)
	}
	f.obj.Resize(SizeSmall)
	if f.obj.Pose().Scale != 0.5 {
		t.Errorf("small scale = %v", f.obj.Pose().Scale)
	}
	if !f.obj.ToggleMoving() {
		t.Errorf("toggle should start moving")
	}
	ctx := context.Background()
	if err := f.obj.Render(ctx, f.frame()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := f.obj.Render(ctx, f.frame()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	frames := f.dev.Frames()
	if string(frames[0].Draws[0].UniformData) == string(frames[1].Draws[0].UniformData) {
		t.Errorf("moving object should animate between frames")
	}
	if f.obj.Pose().Position[1] != 0 {
		t.Errorf("animation should not change the stored pose")
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	if err := f.obj.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := f.dev.Buffers(); n != 0 {
		t.Errorf("%d buffers left after close", n)
	}
}
