package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jbarratt/duel/internal/logging"
)

const (
	// FramesInFlight is how many frames may be queued on the GPU at once.
	FramesInFlight = 3

	DefaultAcquireTimeout = 2 * time.Second
)

// FrameSlot is one uniform buffer of the pool, lent to a single frame.
type FrameSlot struct {
	Index  int
	Buffer BufferID
}

// FramePool cycles a fixed ring of uniform buffers across frames so the
// CPU never writes a buffer the GPU is still reading. The semaphore is
// the only thing tying frame production to GPU completion.
type FramePool struct {
	device  Device
	sem     *semaphore.Weighted
	size    int
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	slots    []*FrameSlot
	inFlight []bool
	next     int
	closed   bool
}

type PoolOption func(*FramePool)

// WithAcquireTimeout bounds how long Acquire waits for a slot. Zero
// waits as long as the context allows.
func WithAcquireTimeout(d time.Duration) PoolOption {
	return func(p *FramePool) {
		p.timeout = d
	}
}

func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *FramePool) {
		p.logger = logging.OrNop(l)
	}
}

// NewFramePool allocates n uniform buffers on dev. n <= 0 means
// FramesInFlight.
func NewFramePool(dev Device, n int, opts ...PoolOption) (*FramePool, error) {
	if n <= 0 {
		n = FramesInFlight
	}
	p := &FramePool{
		device:   dev,
		sem:      semaphore.NewWeighted(int64(n)),
		size:     n,
		timeout:  DefaultAcquireTimeout,
		logger:   logging.Nop(),
		slots:    make([]*FrameSlot, 0, n),
		inFlight: make([]bool, n),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < n; i++ {
		id, err := dev.CreateUniformBuffer(UniformSize)
		if err != nil {
			p.destroyBuffers()
			return nil, fmt.Errorf("gpu: create uniform buffer %d: %w", i, err)
		}
		p.slots = append(p.slots, &FrameSlot{Index: i, Buffer: id})
	}
	return p, nil
}

// Acquire waits for a free slot, takes the next one in ring order and
// writes u into it. A wait that outlives the pool timeout or ctx returns
// ErrResourceExhausted; the caller should drop the frame.
func (p *FramePool) Acquire(ctx context.Context, u Uniforms) (*FrameSlot, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.logger.WarnContext(ctx, "frame slot wait abandoned", "in_flight", p.InFlight(), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}
	slot := p.claim()
	p.mu.Unlock()

	if err := p.device.WriteBuffer(slot.Buffer, u.Bytes()); err != nil {
		_ = p.Release(slot)
		return nil, fmt.Errorf("gpu: write uniforms: %w", err)
	}
	return slot, nil
}

// claim must be called with mu held and a semaphore unit taken, which
// guarantees a free slot exists.
func (p *FramePool) claim() *FrameSlot {
	for i := 0; i < p.size; i++ {
		idx := (p.next + i) % p.size
		if !p.inFlight[idx] {
			p.inFlight[idx] = true
			p.next = (idx + 1) % p.size
			return p.slots[idx]
		}
	}
	panic("gpu: semaphore admitted more frames than slots")
}

// Release hands slot back once the GPU is done with it.
func (p *FramePool) Release(slot *FrameSlot) error {
	if slot == nil {
		return ErrSlotNotInFlight
	}
	p.mu.Lock()
	if slot.Index < 0 || slot.Index >= p.size || p.slots[slot.Index] != slot || !p.inFlight[slot.Index] {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrSlotNotInFlight, slot.Index)
	}
	p.inFlight[slot.Index] = false
	p.mu.Unlock()

	p.sem.Release(1)
	return nil
}

// InFlight is the number of slots currently lent out.
func (p *FramePool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, busy := range p.inFlight {
		if busy {
			n++
		}
	}
	return n
}

// Size is the number of slots in the ring.
func (p *FramePool) Size() int {
	return p.size
}

// Close waits for every in-flight frame to complete, then frees the
// buffers. Later Acquire calls fail with ErrPoolClosed.
func (p *FramePool) Close(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, int64(p.size)); err != nil {
		return fmt.Errorf("gpu: drain frame pool: %w", err)
	}
	defer p.sem.Release(int64(p.size))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.destroyBuffers()
	return nil
}

func (p *FramePool) destroyBuffers() {
	for _, s := range p.slots {
		p.device.DestroyBuffer(s.Buffer)
	}
}
