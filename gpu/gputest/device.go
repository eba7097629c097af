// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"errors"
	"image"
	"sync"

	"github.com/jbarratt/duel/gpu"
)

var ErrUnsupported = errors.New("gputest: unsupported")

// Draw is one recorded draw call with the bindings active at the time.
type Draw struct {
	Vertex   gpu.BufferID
	Uniforms gpu.BufferID
	Texture  gpu.TextureID
	First    uint32
	Count    uint32
	// UniformData is a copy of the uniform buffer when the draw was issued
	UniformData []byte
}

// Frame is a recorded render pass.
type Frame struct {
	Target gpu.TargetID
	Clear  gpu.Color
	Draws  []Draw

	dev      *Device
	vertex   gpu.BufferID
	uniforms gpu.BufferID
	texture  gpu.TextureID
}

func (f *Frame) SetVertexBuffer(id gpu.BufferID) { f.vertex = id }
func (f *Frame) SetUniforms(id gpu.BufferID)     { f.uniforms = id }
func (f *Frame) SetTexture(id gpu.TextureID)     { f.texture = id }

func (f *Frame) Draw(first, count uint32) {
	f.Draws = append(f.Draws, Draw{
		Vertex:      f.vertex,
		Uniforms:    f.uniforms,
		Texture:     f.texture,
		First:       first,
		Count:       count,
		UniformData: f.dev.bufferData(f.uniforms),
	})
}

// Device records everything done to it. Submitted frames complete
// immediately unless Manual is set, in which case they wait for
// Complete.
type Device struct {
	Manual bool
	// FailSubmit, when set, is returned by Submit
	FailSubmit error

	mu        sync.Mutex
	next      uint64
	buffers   map[gpu.BufferID][]byte
	textures  map[gpu.TextureID]*image.RGBA
	targets   map[gpu.TargetID]image.Point
	frames    []*Frame
	pending   []func(error)
	presented int
	closed    bool
}

func New() *Device {
	return &Device{
		buffers:  make(map[gpu.BufferID][]byte),
		textures: make(map[gpu.TextureID]*image.RGBA),
		targets:  make(map[gpu.TargetID]image.Point),
	}
}

func (d *Device) id() uint64 {
	d.next++
	return d.next
}

func (d *Device) CreateVertexBuffer(data []byte) (gpu.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpu.BufferID(d.id())
	d.buffers[id] = append([]byte(nil), data...)
	return id, nil
}

func (d *Device) CreateUniformBuffer(size uint64) (gpu.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpu.BufferID(d.id())
	d.buffers[id] = make([]byte, size)
	return id, nil
}

func (d *Device) WriteBuffer(id gpu.BufferID, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[id]
	if !ok {
		return gpu.ErrUnknownResource
	}
	copy(buf, data)
	return nil
}

func (d *Device) DestroyBuffer(id gpu.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

func (d *Device) CreateTexture(img *image.RGBA) (gpu.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpu.TextureID(d.id())
	d.textures[id] = img
	return id, nil
}

func (d *Device) DestroyTexture(id gpu.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, id)
}

func (d *Device) CreateTarget(width, height int) (gpu.TargetID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpu.TargetID(d.id())
	d.targets[id] = image.Pt(width, height)
	return id, nil
}

func (d *Device) DestroyTarget(id gpu.TargetID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.targets, id)
}

func (d *Device) BeginFrame(target gpu.TargetID, clear gpu.Color) (gpu.Pass, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.targets[target]; !ok {
		return nil, gpu.ErrUnknownResource
	}
	return &Frame{Target: target, Clear: clear, dev: d}, nil
}

func (d *Device) Submit(p gpu.Pass, done func(error)) error {
	f, ok := p.(*Frame)
	if !ok {
		return ErrUnsupported
	}
	d.mu.Lock()
	if d.FailSubmit != nil {
		d.mu.Unlock()
		return d.FailSubmit
	}
	d.frames = append(d.frames, f)
	if d.Manual {
		d.pending = append(d.pending, done)
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()
	done(nil)
	return nil
}

func (d *Device) Present(gpu.TargetID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presented++
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Complete finishes the oldest pending frame with err. It reports
// whether there was one.
func (d *Device) Complete(err error) bool {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return false
	}
	done := d.pending[0]
	d.pending = d.pending[1:]
	d.mu.Unlock()
	done(err)
	return true
}

// Frames returns the submitted frames in order.
func (d *Device) Frames() []*Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Frame(nil), d.frames...)
}

func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Device) Presented() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presented
}

// Buffers is the number of live buffers.
func (d *Device) Buffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

func (d *Device) Texture(id gpu.TextureID) *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textures[id]
}

func (d *Device) bufferData(id gpu.BufferID) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.buffers[id]...)
}
