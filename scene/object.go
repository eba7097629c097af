package scene

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/jbarratt/duel/gpu"
	"github.com/jbarratt/duel/internal/logging"
)

// ClearColor is the background every frame starts from.
var ClearColor = gpu.Color{R: 0.2, G: 0.2, B: 0.35, A: 1}

const (
	// SpinRate is the rotation about Y while moving, in radians per second.
	SpinRate = 0.5

	// moveStep is how far the animation clock advances per frame while
	// the object is moving.
	moveStep  = 0.1
	bobHeight = 0.25
)

// Size is a preset scale for the object.
type Size int

const (
	SizeMedium Size = iota
	SizeSmall
	SizeBig
)

func (s Size) Scale() float32 {
	switch s {
	case SizeSmall:
		return 0.5
	case SizeBig:
		return 1.5
	}
	return 1
}

func (s Size) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeBig:
		return "big"
	}
	return "medium"
}

// Pose places the object in its parent's space.
type Pose struct {
	Position mgl32.Vec3
	// Rotation holds angles about x, y and z in radians
	Rotation mgl32.Vec3
	Scale    float32
}

// Model is translate * rotate * scale.
func (p Pose) Model() mgl32.Mat4 {
	t := mgl32.Translate3D(p.Position[0], p.Position[1], p.Position[2])
	r := mgl32.HomogRotate3DX(p.Rotation[0]).
		Mul4(mgl32.HomogRotate3DY(p.Rotation[1])).
		Mul4(mgl32.HomogRotate3DZ(p.Rotation[2]))
	s := mgl32.Scale3D(p.Scale, p.Scale, p.Scale)
	return t.Mul4(r).Mul4(s)
}

// Frame is what the render driver hands the object each tick.
type Frame struct {
	Target     gpu.TargetID
	Parent     mgl32.Mat4
	Projection mgl32.Mat4
}

type textureSwap struct {
	id  RangeID
	tex gpu.TextureID
}

// Object is the drawable stage. Render runs on the render goroutine;
// SwapTexture, Resize and SetMoving may be called from anywhere and take
// effect at the start of the next frame.
type Object struct {
	device   gpu.Device
	pool     *gpu.FramePool
	vertices gpu.BufferID
	layout   Layout
	light    gpu.Light
	logger   *slog.Logger

	poolSize int
	poolOpts []gpu.PoolOption

	mu       sync.Mutex
	textures TextureTable
	pending  []textureSwap
	pose     Pose
	moving   bool
	clock    float32
}

type Option func(*Object)

func WithLight(l gpu.Light) Option {
	return func(o *Object) {
		o.light = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Object) {
		o.logger = logging.OrNop(l)
	}
}

func WithPose(p Pose) Option {
	return func(o *Object) {
		o.pose = p
	}
}

// WithFrames sets the size of the frame pool and its options.
func WithFrames(n int, opts ...gpu.PoolOption) Option {
	return func(o *Object) {
		o.poolSize = n
		o.poolOpts = opts
	}
}

// NewObject uploads mesh to dev and binds textures to its ranges. The
// texture table must cover every range of the mesh exactly.
func NewObject(dev gpu.Device, mesh Mesh, textures TextureTable, opts ...Option) (*Object, error) {
	if err := mesh.Layout.Validate(uint32(len(mesh.Vertices))); err != nil {
		return nil, err
	}
	if err := textures.Validate(mesh.Layout); err != nil {
		return nil, err
	}
	o := &Object{
		device:   dev,
		layout:   append(Layout(nil), mesh.Layout...),
		light:    gpu.DefaultLight(),
		logger:   logging.Nop(),
		poolSize: gpu.FramesInFlight,
		textures: textures.clone(),
		pose:     Pose{Scale: 1},
	}
	for _, opt := range opts {
		opt(o)
	}

	vertices, err := dev.CreateVertexBuffer(mesh.Bytes())
	if err != nil {
		return nil, fmt.Errorf("scene: upload vertices: %w", err)
	}
	o.vertices = vertices

	poolOpts := append([]gpu.PoolOption{gpu.WithPoolLogger(o.logger)}, o.poolOpts...)
	o.pool, err = gpu.NewFramePool(dev, o.poolSize, poolOpts...)
	if err != nil {
		dev.DestroyBuffer(vertices)
		return nil, fmt.Errorf("scene: frame pool: %w", err)
	}
	return o, nil
}

// Render draws one frame into f.Target. Every range is drawn with its
// texture, in DrawOrder, from a single uniform slot. The slot goes back
// to the pool when the device reports the frame complete.
func (o *Object) Render(ctx context.Context, f Frame) error {
	o.mu.Lock()
	o.applySwaps()
	if o.moving {
		o.clock += moveStep
	}
	pose := o.pose
	if o.moving {
		pose.Position[1] += bobHeight * float32(math.Sin(float64(o.clock)))
	}
	textures := o.textures.clone()
	o.mu.Unlock()

	world := f.Parent.Mul4(pose.Model())
	slot, err := o.pool.Acquire(ctx, gpu.Uniforms{
		Projection: f.Projection,
		ModelView:  world,
		Light:      o.light,
	})
	if err != nil {
		return fmt.Errorf("scene: acquire frame slot: %w", err)
	}

	pass, err := o.device.BeginFrame(f.Target, ClearColor)
	if err != nil {
		o.release(slot)
		return fmt.Errorf("scene: begin frame: %w", err)
	}
	pass.SetVertexBuffer(o.vertices)
	pass.SetUniforms(slot.Buffer)
	for _, id := range DrawOrder {
		r, ok := o.layout.Range(id)
		if !ok {
			continue
		}
		pass.SetTexture(textures[id])
		pass.Draw(r.Start, r.Count)
	}

	err = o.device.Submit(pass, func(err error) {
		if err != nil {
			o.logger.Warn("frame failed on device", "slot", slot.Index, "err", err)
		}
		o.release(slot)
	})
	if err != nil {
		o.release(slot)
		return fmt.Errorf("scene: submit frame: %w", err)
	}
	if err := o.device.Present(f.Target); err != nil {
		return fmt.Errorf("scene: present: %w", err)
	}
	return nil
}

func (o *Object) release(slot *gpu.FrameSlot) {
	if err := o.pool.Release(slot); err != nil {
		o.logger.Error("frame slot release", "slot", slot.Index, "err", err)
	}
}

// applySwaps must be called with mu held.
func (o *Object) applySwaps() {
	for _, s := range o.pending {
		o.textures[s.id] = s.tex
	}
	o.pending = o.pending[:0]
}

// UpdatePose advances the spin by dt while the object is moving. Equal
// sequences of deltas always produce equal poses.
func (o *Object) UpdatePose(dt time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.moving {
		return
	}
	angle := float64(o.pose.Rotation[1]) + SpinRate*dt.Seconds()
	o.pose.Rotation[1] = float32(math.Mod(angle, 2*math.Pi))
}

// SwapTexture rebinds the texture of one range from the next frame on.
// Geometry and ranges are untouched.
func (o *Object) SwapTexture(id RangeID, tex gpu.TextureID) error {
	if _, ok := o.layout.Range(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRange, id)
	}
	if tex == gpu.InvalidID {
		return fmt.Errorf("%w: invalid texture for %s", ErrIncompleteTextures, id)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, textureSwap{id: id, tex: tex})
	return nil
}

// Resize sets the object's scale to one of the presets.
func (o *Object) Resize(s Size) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pose.Scale = s.Scale()
}

func (o *Object) SetMoving(moving bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.moving = moving
}

// ToggleMoving flips the moving state and returns the new one.
func (o *Object) ToggleMoving() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.moving = !o.moving
	return o.moving
}

func (o *Object) Pose() Pose {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pose
}

// Textures returns the bindings the last frame was drawn with.
func (o *Object) Textures() TextureTable {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.textures.clone()
}

func (o *Object) Layout() Layout {
	return append(Layout(nil), o.layout...)
}

// Close waits for in-flight frames and frees the object's buffers.
// Textures belong to the caller.
func (o *Object) Close(ctx context.Context) error {
	if err := o.pool.Close(ctx); err != nil {
		return err
	}
	o.device.DestroyBuffer(o.vertices)
	return nil
}
