// ABOUTME: Lock-free single-producer/single-consumer sample queue
// ABOUTME: Sized from a latency target and split into producer and consumer halves
package ringbuf

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
)

const cacheLine = 64

var (
	// ErrAlreadySplit is returned when Split or Prime is called after the
	// buffer was handed out as producer and consumer halves.
	ErrAlreadySplit = errors.New("ring buffer already split")

	// ErrInsufficientSpace is returned when Prime asks for more samples
	// than the buffer has room for.
	ErrInsufficientSpace = errors.New("ring buffer has insufficient space")

	// ErrInvalidCapacity is returned by New for a non-positive capacity
	ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")
)

// Buffer is a fixed-capacity FIFO of float32 samples. After Split exactly
// one goroutine may push and exactly one may pop; neither side locks.
//
// head and tail count samples read and written since creation. They only
// grow, so tail-head is always the queued length and a full buffer is
// distinguishable from an empty one without a spare slot.
type Buffer struct {
	data []float32
	size uint64

	_    [cacheLine]byte
	head atomic.Uint64 // advanced by the consumer
	_    [cacheLine - 8]byte
	tail atomic.Uint64 // advanced by the producer
	_    [cacheLine - 8]byte

	split atomic.Bool
}

// New creates a buffer holding up to capacity samples
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Buffer{
		data: make([]float32, capacity),
		size: uint64(capacity),
	}, nil
}

// LatencySamples returns the number of interleaved samples in a latency
// window: round(latency * sample rate) * channels.
func LatencySamples(latency time.Duration, format audio.Format) int {
	return format.SamplesFor(latency)
}

// NewForLatency creates a buffer with twice the capacity of the latency
// window, leaving room for the producer to run one full window ahead of
// the consumer once the window has been primed. It returns the window
// size in samples alongside the buffer.
func NewForLatency(latency time.Duration, format audio.Format) (*Buffer, int, error) {
	if err := format.Validate(); err != nil {
		return nil, 0, err
	}
	if latency <= 0 {
		return nil, 0, fmt.Errorf("latency must be positive, got %v", latency)
	}

	latencySamples := LatencySamples(latency, format)
	if latencySamples <= 0 {
		return nil, 0, fmt.Errorf("latency %v is shorter than one frame at %s", latency, format)
	}

	buf, err := New(2 * latencySamples)
	if err != nil {
		return nil, 0, err
	}
	return buf, latencySamples, nil
}

// Prime queues n zero samples. It must run before Split.
func (b *Buffer) Prime(n int) error {
	if b.split.Load() {
		return ErrAlreadySplit
	}
	if n < 0 || n > b.Free() {
		return fmt.Errorf("%w: want %d, free %d", ErrInsufficientSpace, n, b.Free())
	}

	tail := b.tail.Load()
	for i := 0; i < n; i++ {
		b.data[(tail+uint64(i))%b.size] = 0
	}
	b.tail.Store(tail + uint64(n))
	return nil
}

// Split hands out the two halves of the buffer. It succeeds once.
func (b *Buffer) Split() (*Producer, *Consumer, error) {
	if !b.split.CompareAndSwap(false, true) {
		return nil, nil, ErrAlreadySplit
	}
	p := &Producer{buf: b, head: b.head.Load()}
	c := &Consumer{buf: b, tail: b.tail.Load()}
	return p, c, nil
}

// Cap returns the fixed capacity in samples
func (b *Buffer) Cap() int {
	return int(b.size)
}

// Len returns a snapshot of the number of queued samples
func (b *Buffer) Len() int {
	head := b.head.Load()
	tail := b.tail.Load()
	n := tail - head
	if n > b.size {
		n = b.size
	}
	return int(n)
}

// Free returns a snapshot of the number of free slots
func (b *Buffer) Free() int {
	return b.Cap() - b.Len()
}

// Producer is the write half of a Buffer
type Producer struct {
	buf  *Buffer
	head uint64 // last observed consumer position
}

// Push enqueues v. It returns false without blocking when the buffer is
// full; queued samples are left untouched.
func (p *Producer) Push(v float32) bool {
	b := p.buf
	tail := b.tail.Load()
	if tail-p.head == b.size {
		p.head = b.head.Load()
		if tail-p.head == b.size {
			return false
		}
	}
	b.data[tail%b.size] = v
	b.tail.Store(tail + 1)
	return true
}

// Buffer returns the underlying buffer for observation
func (p *Producer) Buffer() *Buffer {
	return p.buf
}

// Consumer is the read half of a Buffer
type Consumer struct {
	buf  *Buffer
	tail uint64 // last observed producer position
}

// Pop dequeues the oldest sample. It returns false without blocking when
// the buffer is empty and does not move the read position.
func (c *Consumer) Pop() (float32, bool) {
	b := c.buf
	head := b.head.Load()
	if head == c.tail {
		c.tail = b.tail.Load()
		if head == c.tail {
			return 0, false
		}
	}
	v := b.data[head%b.size]
	b.head.Store(head + 1)
	return v, true
}

// Buffer returns the underlying buffer for observation
func (c *Consumer) Buffer() *Buffer {
	return c.buf
}
