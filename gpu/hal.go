package gpu

import (
	_ "embed"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/jbarratt/duel/internal/logging"
)

//go:embed shaders/scene.wgsl
var sceneShader string

const (
	targetFormat  = gputypes.TextureFormatRGBA8Unorm
	textureFormat = gputypes.TextureFormatRGBA8Unorm

	defaultFenceTimeout = 5 * time.Second
)

var ErrFenceTimeout = errors.New("gpu: timed out waiting for frame")

type halBuffer struct {
	buf  hal.Buffer
	size uint64
}

type halTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

type bindKey struct {
	uniforms BufferID
	texture  TextureID
}

// HALDevice is a Device backed by a wgpu hal device and queue. It owns
// the single scene pipeline; textures and uniform buffers are combined
// into bind groups lazily and cached.
type HALDevice struct {
	device       hal.Device
	queue        hal.Queue
	release      func()
	logger       *slog.Logger
	fenceTimeout time.Duration

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler

	mu         sync.Mutex
	nextID     uint64
	buffers    map[BufferID]halBuffer
	textures   map[TextureID]halTexture
	targets    map[TargetID]halTexture
	bindGroups map[bindKey]hal.BindGroup
	presented  map[TargetID]uint64
	closed     bool

	inflight sync.WaitGroup
}

type HALOption func(*HALDevice)

func WithLogger(l *slog.Logger) HALOption {
	return func(d *HALDevice) {
		d.logger = logging.OrNop(l)
	}
}

// WithFenceTimeout bounds the wait for one submitted frame.
func WithFenceTimeout(t time.Duration) HALOption {
	return func(d *HALDevice) {
		d.fenceTimeout = t
	}
}

// withRelease runs fn after the device has been torn down by Close.
func withRelease(fn func()) HALOption {
	return func(d *HALDevice) {
		d.release = fn
	}
}

// NewHALDevice builds the scene pipeline on an opened hal device. The
// caller keeps ownership of device and queue unless the device was
// opened through OpenNoop or OpenVulkan.
func NewHALDevice(device hal.Device, queue hal.Queue, opts ...HALOption) (*HALDevice, error) {
	d := &HALDevice{
		device:       device,
		queue:        queue,
		logger:       logging.Nop(),
		fenceTimeout: defaultFenceTimeout,
		buffers:      make(map[BufferID]halBuffer),
		textures:     make(map[TextureID]halTexture),
		targets:      make(map[TargetID]halTexture),
		bindGroups:   make(map[bindKey]hal.BindGroup),
		presented:    make(map[TargetID]uint64),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.createPipeline(); err != nil {
		d.destroyPipeline()
		return nil, err
	}
	return d, nil
}

func (d *HALDevice) createPipeline() error {
	var err error
	d.shader, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "duel_scene_shader",
		Source: hal.ShaderSource{WGSL: sceneShader},
	})
	if err != nil {
		return fmt.Errorf("gpu: compile scene shader: %w", err)
	}

	d.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "duel_scene_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}

	d.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "duel_scene_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}

	d.pipeline, err = d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "duel_scene_pipeline",
		Layout: d.pipeLayout,
		Vertex: hal.VertexState{
			Module:     d.shader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: VertexStride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
					{Format: gputypes.VertexFormatFloat32x2, Offset: 28, ShaderLocation: 2},
					{Format: gputypes.VertexFormatFloat32x3, Offset: 36, ShaderLocation: 3},
				},
			}},
		},
		Fragment: &hal.FragmentState{
			Module:     d.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    targetFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeFront,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("gpu: create render pipeline: %w", err)
	}

	d.sampler, err = d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "duel_scene_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("gpu: create sampler: %w", err)
	}
	return nil
}

func (d *HALDevice) destroyPipeline() {
	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
	if d.pipeline != nil {
		d.device.DestroyRenderPipeline(d.pipeline)
		d.pipeline = nil
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
	if d.shader != nil {
		d.device.DestroyShaderModule(d.shader)
		d.shader = nil
	}
}

// id must be called with mu held.
func (d *HALDevice) id() uint64 {
	d.nextID++
	return d.nextID
}

func (d *HALDevice) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (BufferID, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.device.DestroyBuffer(buf)
		return InvalidID, ErrDeviceClosed
	}
	id := BufferID(d.id())
	d.buffers[id] = halBuffer{buf: buf, size: size}
	return id, nil
}

func (d *HALDevice) CreateVertexBuffer(data []byte) (BufferID, error) {
	id, err := d.createBuffer("duel_vertices", uint64(len(data)), gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return InvalidID, err
	}
	if err := d.WriteBuffer(id, data); err != nil {
		d.DestroyBuffer(id)
		return InvalidID, err
	}
	return id, nil
}

func (d *HALDevice) CreateUniformBuffer(size uint64) (BufferID, error) {
	return d.createBuffer("duel_uniforms", size, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
}

func (d *HALDevice) WriteBuffer(id BufferID, data []byte) error {
	d.mu.Lock()
	b, ok := d.buffers[id]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if uint64(len(data)) > b.size {
		return fmt.Errorf("gpu: write of %d bytes into %d byte buffer", len(data), b.size)
	}
	d.queue.WriteBuffer(b.buf, 0, data)
	return nil
}

func (d *HALDevice) DestroyBuffer(id BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	delete(d.buffers, id)
	for key, bg := range d.bindGroups {
		if key.uniforms == id {
			d.device.DestroyBindGroup(bg)
			delete(d.bindGroups, key)
		}
	}
	d.device.DestroyBuffer(b.buf)
}

func (d *HALDevice) createTexture(label string, w, h uint32, usage gputypes.TextureUsage, format gputypes.TextureFormat) (halTexture, error) {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return halTexture{}, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return halTexture{}, fmt.Errorf("gpu: create %s view: %w", label, err)
	}
	return halTexture{tex: tex, view: view}, nil
}

func (d *HALDevice) destroyTexture(t halTexture) {
	d.device.DestroyTextureView(t.view)
	d.device.DestroyTexture(t.tex)
}

// CreateTexture uploads img as a sampled RGBA texture.
func (d *HALDevice) CreateTexture(img *image.RGBA) (TextureID, error) {
	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy())
	if w == 0 || h == 0 {
		return InvalidID, fmt.Errorf("gpu: empty texture %dx%d", w, h)
	}
	t, err := d.createTexture("duel_texture", w, h, gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst, textureFormat)
	if err != nil {
		return InvalidID, err
	}

	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		tightPixels(img),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)

	d.mu.Lock()
	defer d.mu.Unlock()
	id := TextureID(d.id())
	d.textures[id] = t
	return id, nil
}

// tightPixels returns the pixels of img without row padding.
func tightPixels(img *image.RGBA) []byte {
	b := img.Bounds()
	row := b.Dx() * 4
	if img.Stride == row && b.Min == (image.Point{}) {
		return img.Pix[:row*b.Dy()]
	}
	out := make([]byte, 0, row*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[off:off+row]...)
	}
	return out
}

func (d *HALDevice) DestroyTexture(id TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	for key, bg := range d.bindGroups {
		if key.texture == id {
			d.device.DestroyBindGroup(bg)
			delete(d.bindGroups, key)
		}
	}
	d.destroyTexture(t)
}

// CreateTarget allocates an offscreen color target.
func (d *HALDevice) CreateTarget(width, height int) (TargetID, error) {
	if width <= 0 || height <= 0 {
		return InvalidID, fmt.Errorf("gpu: invalid target size %dx%d", width, height)
	}
	t, err := d.createTexture("duel_target", uint32(width), uint32(height),
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc, targetFormat)
	if err != nil {
		return InvalidID, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := TargetID(d.id())
	d.targets[id] = t
	return id, nil
}

func (d *HALDevice) DestroyTarget(id TargetID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.targets[id]
	if !ok {
		return
	}
	delete(d.targets, id)
	delete(d.presented, id)
	d.destroyTexture(t)
}

// bindGroup returns the cached bind group for key, creating it on first use.
func (d *HALDevice) bindGroup(key bindKey) (hal.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if bg, ok := d.bindGroups[key]; ok {
		return bg, nil
	}
	u, ok := d.buffers[key.uniforms]
	if !ok {
		return nil, fmt.Errorf("%w: uniform buffer %d", ErrUnknownResource, key.uniforms)
	}
	t, ok := d.textures[key.texture]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", ErrUnknownResource, key.texture)
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "duel_scene_bind_group",
		Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: u.buf.NativeHandle(), Offset: 0, Size: u.size}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: d.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create bind group: %w", err)
	}
	d.bindGroups[key] = bg
	return bg, nil
}

// BeginFrame opens a render pass on target with the scene pipeline bound.
func (d *HALDevice) BeginFrame(target TargetID, clear Color) (Pass, error) {
	d.mu.Lock()
	t, ok := d.targets[target]
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrDeviceClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: target %d", ErrUnknownResource, target)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "duel_frame_encoder"})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("duel_frame"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "duel_scene_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: clear.R, G: clear.G, B: clear.B, A: clear.A},
		}},
	})
	rp.SetPipeline(d.pipeline)
	return &halPass{device: d, encoder: encoder, rp: rp}, nil
}

// Submit ends the pass, queues it with a fence and waits for the fence
// on a separate goroutine, which then calls done.
func (d *HALDevice) Submit(p Pass, done func(error)) error {
	hp, ok := p.(*halPass)
	if !ok || hp.device != d {
		return fmt.Errorf("%w: pass from another device", ErrUnknownResource)
	}
	hp.rp.End()
	if hp.err != nil {
		hp.encoder.DiscardEncoding()
		return hp.err
	}
	cmdBuf, err := hp.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	fence, err := d.device.CreateFence()
	if err != nil {
		d.device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		d.device.FreeCommandBuffer(cmdBuf)
		d.device.DestroyFence(fence)
		return fmt.Errorf("gpu: submit: %w", err)
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ok, err := d.device.Wait(fence, 1, d.fenceTimeout)
		d.device.FreeCommandBuffer(cmdBuf)
		d.device.DestroyFence(fence)
		if err == nil && !ok {
			err = ErrFenceTimeout
		}
		if err != nil {
			d.logger.Warn("frame did not complete", "err", err)
		}
		done(err)
	}()
	return nil
}

// Present marks the frame on target as shown. Targets are offscreen, so
// this only counts frames.
func (d *HALDevice) Present(target TargetID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.targets[target]; !ok {
		return fmt.Errorf("%w: target %d", ErrUnknownResource, target)
	}
	d.presented[target]++
	return nil
}

// Presented is how many frames have been presented on target.
func (d *HALDevice) Presented(target TargetID) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presented[target]
}

// Close waits for queued frames and releases every resource.
func (d *HALDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.inflight.Wait()

	d.mu.Lock()
	for key, bg := range d.bindGroups {
		d.device.DestroyBindGroup(bg)
		delete(d.bindGroups, key)
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b.buf)
		delete(d.buffers, id)
	}
	for id, t := range d.textures {
		d.destroyTexture(t)
		delete(d.textures, id)
	}
	for id, t := range d.targets {
		d.destroyTexture(t)
		delete(d.targets, id)
	}
	d.mu.Unlock()

	d.destroyPipeline()
	if d.release != nil {
		d.release()
	}
	return nil
}

type halPass struct {
	device   *HALDevice
	encoder  hal.CommandEncoder
	rp       hal.RenderPassEncoder
	uniforms BufferID
	texture  TextureID
	bound    bindKey
	err      error
}

func (p *halPass) SetVertexBuffer(id BufferID) {
	if p.err != nil {
		return
	}
	p.device.mu.Lock()
	b, ok := p.device.buffers[id]
	p.device.mu.Unlock()
	if !ok {
		p.err = fmt.Errorf("%w: vertex buffer %d", ErrUnknownResource, id)
		return
	}
	p.rp.SetVertexBuffer(0, b.buf, 0)
}

func (p *halPass) SetUniforms(id BufferID) { p.uniforms = id }
func (p *halPass) SetTexture(id TextureID) { p.texture = id }

func (p *halPass) Draw(first, count uint32) {
	if p.err != nil {
		return
	}
	key := bindKey{uniforms: p.uniforms, texture: p.texture}
	if key != p.bound {
		bg, err := p.device.bindGroup(key)
		if err != nil {
			p.err = err
			return
		}
		p.rp.SetBindGroup(0, bg, nil)
		p.bound = key
	}
	p.rp.Draw(count, 1, first, 0)
}
