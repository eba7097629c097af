// Package gpu is the rendering context shared by the scene and the render
// driver. A Device owns the GPU queue and the one render pipeline; nothing
// here is global, callers construct a Device and pass it down.
package gpu

import (
	"errors"
	"image"
)

// Resource handles. The zero value is never a live resource.
type (
	BufferID  uint64
	TextureID uint64
	TargetID  uint64
)

const InvalidID = 0

// VertexStride is the size of one vertex: position xyz, color rgba,
// texcoord st, normal xyz, all float32.
const VertexStride = 12 * 4

var (
	ErrResourceExhausted = errors.New("gpu: no frame resource available")
	ErrSlotNotInFlight   = errors.New("gpu: frame slot is not in flight")
	ErrPoolClosed        = errors.New("gpu: frame pool closed")
	ErrUnknownResource   = errors.New("gpu: unknown resource")
	ErrDeviceClosed      = errors.New("gpu: device closed")
	ErrNoAdapter         = errors.New("gpu: no suitable adapter")
)

// Color is a linear RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// Device is the owned GPU context.
type Device interface {
	CreateVertexBuffer(data []byte) (BufferID, error)
	CreateUniformBuffer(size uint64) (BufferID, error)
	WriteBuffer(id BufferID, data []byte) error
	DestroyBuffer(id BufferID)

	CreateTexture(img *image.RGBA) (TextureID, error)
	DestroyTexture(id TextureID)

	// CreateTarget allocates an offscreen color target frames are drawn into.
	CreateTarget(width, height int) (TargetID, error)
	DestroyTarget(id TargetID)

	// BeginFrame opens a render pass on target cleared to clear.
	BeginFrame(target TargetID, clear Color) (Pass, error)
	// Submit ends the pass and queues it. done is called exactly once,
	// from another goroutine, after the GPU has finished with the frame.
	// When Submit returns an error done is never called.
	Submit(p Pass, done func(error)) error
	Present(target TargetID) error

	Close() error
}

// Pass records the draws of one frame.
type Pass interface {
	SetVertexBuffer(id BufferID)
	SetUniforms(id BufferID)
	SetTexture(id TextureID)
	Draw(first, count uint32)
}
