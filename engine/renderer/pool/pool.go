// Package pool recycles GPU buffers by category under a global memory ceiling.
package pool

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/log"
)

var logger = log.New("pool")

type poolImpl struct {
	mu *sync.Mutex

	backend Backend
	config  Config

	// free lists are kept sorted by ascending size for best-fit lookup
	free  map[Category][]*Buffer
	owned map[uint64]*Buffer

	liveBytes uint64
	nextID    uint64
	stats     counters

	closed   bool
	inflight *sync.WaitGroup
}

// Pool allocates, recycles and evicts categorized buffers.
type Pool interface {
	// Allocate borrows a buffer of at least minSize bytes. The smallest free buffer of the category that
	// fits is reused; otherwise a new buffer of max(minSize, DefaultSize) is created if the budget allows.
	//
	// Parameters:
	//   - category: the buffer category
	//   - minSize: the minimum size in bytes
	//   - label: a debug label for newly created buffers
	//
	// Returns:
	//   - *Buffer: the borrowed buffer
	//   - error: ErrBudgetExceeded, ErrPoolClosed, ErrUnknownCategory or a backend error
	Allocate(category Category, minSize uint64, label string) (*Buffer, error)

	// Release returns a borrowed buffer. If the category free list is full the buffer is destroyed.
	// Releasing a buffer twice or a buffer the pool does not own is ignored.
	//
	// Parameters:
	//   - b: the buffer to return
	Release(b *Buffer)

	// Write uploads data into a buffer owned by the pool.
	//
	// Parameters:
	//   - b: the destination buffer
	//   - offset: byte offset into the buffer
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: ErrPoolClosed, ErrForeignBuffer, ErrOutOfRange or a backend error
	Write(b *Buffer, offset uint64, data []byte) error

	// WarmUp creates PreallocCount free buffers per category at their default size, stopping a
	// category early when the budget would be exceeded.
	//
	// Returns:
	//   - error: a backend error
	WarmUp() error

	// Cleanup shrinks every free list toward max(PreallocCount, len/2), destroying the largest buffers first.
	//
	// Returns:
	//   - int: the number of buffers evicted
	Cleanup() int

	// TotalMemoryUsage returns the bytes held by every buffer the pool owns, free or borrowed.
	TotalMemoryUsage() uint64

	// BufferCount returns the number of buffers the pool owns, free or borrowed.
	BufferCount() int

	// Stats returns a snapshot of the pool counters.
	Stats() Stats

	// StatisticsReport renders Stats as a text table.
	StatisticsReport() string

	// Config returns the normalized configuration.
	Config() Config

	// Close stops new allocations and writes, waits for those in flight, and destroys every buffer.
	// Calling Close more than once is a no-op.
	//
	// Returns:
	//   - error: always nil; present so Pool satisfies io.Closer
	Close() error
}

var _ Pool = &poolImpl{}

// NewPool creates a Pool. Without options the pool uses the host backend and DefaultConfig.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Pool: the new pool
func NewPool(options ...PoolBuilderOption) Pool {
	p := &poolImpl{
		mu:       &sync.Mutex{},
		config:   DefaultConfig(),
		free:     make(map[Category][]*Buffer),
		owned:    make(map[uint64]*Buffer),
		inflight: &sync.WaitGroup{},
	}
	for _, option := range options {
		option(p)
	}
	if p.backend == nil {
		p.backend = NewHostBackend()
	}
	p.config = p.config.normalize()
	return p
}

func (p *poolImpl) Allocate(category Category, minSize uint64, label string) (*Buffer, error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	cc, ok := p.config.Categories[category]
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, category)
	}

	p.stats.allocations++
	if b := p.takeBestFit(category, minSize); b != nil {
		b.inUse.Store(true)
		p.stats.hits++
		p.stats.category(category).hits++
		p.mu.Unlock()
		return b, nil
	}
	p.stats.misses++
	p.stats.category(category).misses++

	size := max(minSize, cc.DefaultSize)
	if size > p.config.MemoryLimit {
		p.stats.failures++
		limit := p.config.MemoryLimit
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s buffer %q needs %d bytes, limit is %d",
			ErrBudgetExceeded, category, label, size, limit)
	}
	if !p.fits(size) {
		evicted := p.cleanup()
		logger.Debugf("%s allocation of %d bytes over budget, cleanup evicted %d buffers", category, size, evicted)
		if !p.fits(size) {
			p.stats.failures++
			live, limit := p.liveBytes, p.config.MemoryLimit
			p.mu.Unlock()
			return nil, fmt.Errorf("%w: %s buffer %q needs %d bytes, %d of %d in use",
				ErrBudgetExceeded, category, label, size, live, limit)
		}
	}

	// reserve the bytes so concurrent misses cannot overshoot the limit while the backend works
	p.liveBytes += size
	p.inflight.Add(1)
	p.mu.Unlock()
	defer p.inflight.Done()

	res, err := p.backend.CreateBuffer(category, cc.Usage, size, label)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.liveBytes -= size
		p.stats.failures++
		return nil, err
	}
	if p.closed {
		p.backend.Destroy(res)
		p.liveBytes -= size
		return nil, ErrPoolClosed
	}

	b := p.adopt(category, size, label, res)
	b.inUse.Store(true)
	return b, nil
}

func (p *poolImpl) Release(b *Buffer) {
	if b == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if owned, ok := p.owned[b.id]; !ok || owned != b {
		logger.Warningf("ignoring release of buffer %q not owned by the pool", b.label)
		return
	}
	if !b.inUse.Load() {
		logger.Warningf("ignoring double release of %s buffer %q", b.category, b.label)
		return
	}
	b.inUse.Store(false)

	cc := p.config.Categories[b.category]
	if len(p.free[b.category]) >= cc.MaxPoolSize {
		p.destroy(b)
		return
	}
	p.insertFree(b)
}

func (p *poolImpl) Write(b *Buffer, offset uint64, data []byte) error {
	if b == nil {
		return ErrForeignBuffer
	}

	if !inRange(b.size, offset, len(data)) {
		return fmt.Errorf("%w: %d bytes at offset %d into %d", ErrOutOfRange, len(data), offset, b.size)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	if owned, ok := p.owned[b.id]; !ok || owned != b {
		p.mu.Unlock()
		return ErrForeignBuffer
	}
	// Close waits for uploads as well as allocations before destroying buffers
	p.inflight.Add(1)
	p.mu.Unlock()
	defer p.inflight.Done()

	return p.backend.Write(b.resource, offset, data)
}

func (p *poolImpl) WarmUp() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	for _, category := range Categories() {
		cc := p.config.Categories[category]
		target := min(cc.PreallocCount, cc.MaxPoolSize)
		for len(p.free[category]) < target {
			if !p.fits(cc.DefaultSize) {
				logger.Warningf("warm-up stopped for %s buffers: memory budget reached", category)
				break
			}
			label := fmt.Sprintf("%s warm-up %d", category, len(p.free[category]))
			res, err := p.backend.CreateBuffer(category, cc.Usage, cc.DefaultSize, label)
			if err != nil {
				return fmt.Errorf("pool: warm-up %s: %w", category, err)
			}
			p.liveBytes += cc.DefaultSize
			p.insertFree(p.adopt(category, cc.DefaultSize, label, res))
		}
	}
	logger.Debugf("warm-up complete: %d buffers, %d bytes", len(p.owned), p.liveBytes)
	return nil
}

func (p *poolImpl) Cleanup() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleanup()
}

func (p *poolImpl) TotalMemoryUsage() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liveBytes
}

func (p *poolImpl) BufferCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.owned)
}

func (p *poolImpl) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := Config{MemoryLimit: p.config.MemoryLimit, Categories: make(map[Category]CategoryConfig, len(p.config.Categories))}
	for k, v := range p.config.Categories {
		out.Categories[k] = v
	}
	return out
}

func (p *poolImpl) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.inflight.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	count := len(p.owned)
	for _, b := range p.owned {
		if b.inUse.Load() {
			logger.Debugf("destroying %s buffer %q still in use at shutdown", b.category, b.label)
		}
		p.backend.Destroy(b.resource)
		p.stats.destroyed++
	}
	p.owned = make(map[uint64]*Buffer)
	p.free = make(map[Category][]*Buffer)
	p.liveBytes = 0
	logger.Debugf("pool closed, destroyed %d buffers", count)
	return nil
}

// fits reports whether size more bytes stay within the memory limit.
// Caller must hold the mutex.
func (p *poolImpl) fits(size uint64) bool {
	return size <= p.config.MemoryLimit && p.liveBytes <= p.config.MemoryLimit-size
}

// inRange reports whether n bytes at offset lie within a buffer of size bytes.
func inRange(size, offset uint64, n int) bool {
	return offset <= size && uint64(n) <= size-offset
}

// adopt registers a freshly created resource. liveBytes must already include size.
// Caller must hold the mutex.
func (p *poolImpl) adopt(category Category, size uint64, label string, res Resource) *Buffer {
	p.nextID++
	b := &Buffer{
		id:       p.nextID,
		category: category,
		size:     size,
		label:    label,
		resource: res,
	}
	p.owned[b.id] = b
	p.stats.created++
	p.stats.category(category).created++
	return b
}

// takeBestFit removes and returns the smallest free buffer of category holding at least minSize bytes.
// Caller must hold the mutex.
func (p *poolImpl) takeBestFit(category Category, minSize uint64) *Buffer {
	list := p.free[category]
	i, _ := slices.BinarySearchFunc(list, minSize, func(b *Buffer, size uint64) int {
		if b.size < size {
			return -1
		}
		return 1
	})
	if i >= len(list) {
		return nil
	}
	b := list[i]
	p.free[category] = slices.Delete(list, i, i+1)
	return b
}

// insertFree puts b on its category free list, keeping the list sorted by size.
// Caller must hold the mutex.
func (p *poolImpl) insertFree(b *Buffer) {
	list := p.free[b.category]
	i, _ := slices.BinarySearchFunc(list, b.size, func(e *Buffer, size uint64) int {
		if e.size <= size {
			return -1
		}
		return 1
	})
	p.free[b.category] = slices.Insert(list, i, b)
}

// destroy frees b through the backend and forgets it.
// Caller must hold the mutex.
func (p *poolImpl) destroy(b *Buffer) {
	p.backend.Destroy(b.resource)
	delete(p.owned, b.id)
	p.liveBytes -= b.size
	p.stats.destroyed++
}

// cleanup evicts the largest free buffers of every category until each list is at
// max(PreallocCount, len/2).
// Caller must hold the mutex.
func (p *poolImpl) cleanup() int {
	evicted := 0
	for _, category := range Categories() {
		list := p.free[category]
		keep := max(p.config.Categories[category].PreallocCount, len(list)/2)
		for len(list) > keep {
			last := list[len(list)-1]
			list = list[:len(list)-1]
			p.destroy(last)
			evicted++
		}
		p.free[category] = list
	}
	p.stats.evictions += uint64(evicted)
	return evicted
}
