package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/jbarratt/duel/gpu"
	"github.com/jbarratt/duel/gpu/gputest"
	"github.com/jbarratt/duel/scene"
)

func newDriver(t *testing.T, objOpts ...scene.Option) (*Driver, *scene.Object, *gputest.Device) {
	t.Helper()
	dev := gputest.New()
	mesh, err := scene.CharacterMesh()
	if err != nil {
		t.Fatalf("CharacterMesh: %v", err)
	}
	textures := scene.TextureTable{}
	for _, id := range scene.DrawOrder {
		tex, _ := dev.CreateTexture(nil)
		textures[id] = tex
	}
	obj, err := scene.NewObject(dev, mesh, textures, objOpts...)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	target, _ := dev.CreateTarget(300, 150)
	return NewDriver(dev, obj, target, 300, 150), obj, dev
}

func TestFirstTickHasZeroDelta(t *testing.T) {
	d, obj, _ := newDriver(t)
	obj.SetMoving(true)
	ctx := context.Background()

	if err := d.Tick(ctx, 90*time.Second); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rot := obj.Pose().Rotation[1]; rot != 0 {
		t.Errorf("first tick should not animate, rotation = %v", rot)
	}
	if err := d.Tick(ctx, 92*time.Second); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rot := obj.Pose().Rotation[1]; rot != scene.SpinRate*2 {
		t.Errorf("second tick should advance by 2s, rotation = %v", rot)
	}
	if frames, dropped := d.Stats(); frames != 2 || dropped != 0 {
		t.Errorf("stats = %d/%d", frames, dropped)
	}
}

func TestProjectionOnlyOnResize(t *testing.T) {
	d, _, dev := newDriver(t)
	ctx := context.Background()

	want := mgl32.Perspective(mgl32.DegToRad(85), 2, 0.01, 100)
	if !d.Projection().ApproxEqual(want) {
		t.Errorf("initial projection mismatch")
	}
	before := d.Projection()
	for i := 0; i < 3; i++ {
		if err := d.Tick(ctx, time.Duration(i)*16*time.Millisecond); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if d.Projection() != before {
		t.Errorf("ticks should not touch the projection")
	}

	d.Resize(100, 200)
	want = mgl32.Perspective(mgl32.DegToRad(85), 0.5, 0.01, 100)
	if !d.Projection().ApproxEqual(want) {
		t.Errorf("projection after resize mismatch")
	}
	d.Resize(0, 10)
	if !d.Projection().ApproxEqual(want) {
		t.Errorf("degenerate resize should be ignored")
	}
	if len(dev.Frames()) != 3 {
		t.Errorf("got %d frames", len(dev.Frames()))
	}
}

func TestTickDropsExhaustedFrame(t *testing.T) {
	d, _, dev := newDriver(t, scene.WithFrames(1, gpu.WithAcquireTimeout(10*time.Millisecond)))
	dev.Manual = true
	ctx := context.Background()

	if err := d.Tick(ctx, 0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	err := d.Tick(ctx, time.Millisecond)
	if !errors.Is(err, gpu.ErrResourceExhausted) {
		t.Fatalf("want ErrResourceExhausted, got %v", err)
	}
	dev.Complete(nil)
	if err := d.Tick(ctx, 2*time.Millisecond); err != nil {
		t.Fatalf("driver should recover after completion: %v", err)
	}
	if frames, dropped := d.Stats(); frames != 2 || dropped != 1 {
		t.Errorf("stats = %d/%d, want 2/1", frames, dropped)
	}
}

func TestRun(t *testing.T) {
	d, _, dev := newDriver(t)
	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, ticks) }()
	now := time.Now()
	for i := 0; i < 4; i++ {
		ticks <- now.Add(time.Duration(i) * 16 * time.Millisecond)
	}
	close(ticks)
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(dev.Frames()) != 4 {
		t.Errorf("got %d frames, want 4", len(dev.Frames()))
	}
}
