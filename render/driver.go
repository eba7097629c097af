// Package render drives the scene once per display tick.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/jbarratt/duel/gpu"
	"github.com/jbarratt/duel/internal/logging"
	"github.com/jbarratt/duel/scene"
)

const (
	DefaultFOV  = 85
	DefaultNear = 0.01
	DefaultFar  = 100
)

// Camera is the parent transform of the scene: pulled back and tilted
// down so the floor is visible.
func Camera() mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, -7).Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(25)))
}

// Driver renders the object into target on every Tick. Only Resize
// changes the projection.
type Driver struct {
	device gpu.Device
	object *scene.Object
	logger *slog.Logger

	fov, near, far float32
	camera         mgl32.Mat4

	mu         sync.Mutex
	target     gpu.TargetID
	projection mgl32.Mat4
	width      int
	height     int

	seeded    bool
	lastFrame time.Duration
	frames    uint64
	dropped   uint64
}

type Option func(*Driver)

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logging.OrNop(l)
	}
}

// WithPerspective overrides the field of view in degrees and the clip
// planes.
func WithPerspective(fov, near, far float32) Option {
	return func(d *Driver) {
		d.fov, d.near, d.far = fov, near, far
	}
}

func WithCamera(m mgl32.Mat4) Option {
	return func(d *Driver) {
		d.camera = m
	}
}

// NewDriver renders obj into target, whose size is width x height.
func NewDriver(dev gpu.Device, obj *scene.Object, target gpu.TargetID, width, height int, opts ...Option) *Driver {
	d := &Driver{
		device: dev,
		object: obj,
		logger: logging.Nop(),
		fov:    DefaultFOV,
		near:   DefaultNear,
		far:    DefaultFar,
		camera: Camera(),
		target: target,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.Resize(width, height)
	return d
}

// Resize recomputes the projection for a new surface size.
func (d *Driver) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.width, d.height = width, height
	aspect := float32(width) / float32(height)
	d.projection = mgl32.Perspective(mgl32.DegToRad(d.fov), aspect, d.near, d.far)
}

// SetTarget points later frames at a new target, e.g. after the caller
// reallocated it for a resize.
func (d *Driver) SetTarget(target gpu.TargetID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = target
}

func (d *Driver) Projection() mgl32.Mat4 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.projection
}

// Tick renders one frame for the display timestamp ts. The first tick
// only seeds the clock, so the first delta is zero. A frame that cannot
// get GPU resources is dropped; the driver keeps going.
func (d *Driver) Tick(ctx context.Context, ts time.Duration) error {
	d.mu.Lock()
	if !d.seeded {
		d.seeded = true
		d.lastFrame = ts
	}
	delta := ts - d.lastFrame
	if delta < 0 {
		delta = 0
	}
	d.lastFrame = ts
	frame := scene.Frame{Target: d.target, Parent: d.camera, Projection: d.projection}
	d.mu.Unlock()

	d.object.UpdatePose(delta)
	err := d.object.Render(ctx, frame)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.dropped++
		if errors.Is(err, gpu.ErrResourceExhausted) {
			d.logger.WarnContext(ctx, "frame dropped", "dropped", d.dropped, "err", err)
		} else {
			d.logger.ErrorContext(ctx, "frame failed", "err", err)
		}
		return fmt.Errorf("render: frame %d: %w", d.frames+d.dropped, err)
	}
	d.frames++
	return nil
}

// Run calls Tick for every value received on ticks until ctx ends or
// ticks closes. Failed frames are logged and skipped.
func (d *Driver) Run(ctx context.Context, ticks <-chan time.Time) error {
	var start time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-ticks:
			if !ok {
				return nil
			}
			if start.IsZero() {
				start = t
			}
			_ = d.Tick(ctx, t.Sub(start))
		}
	}
}

// Stats reports rendered and dropped frame counts.
func (d *Driver) Stats() (frames, dropped uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames, d.dropped
}
