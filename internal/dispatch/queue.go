package dispatch

import (
	"context"

	"dmx2osc/internal/dmx"
)

const defaultQueueSize = 16

// Queue is the single point where all input sources meet. Producers may run
// on any goroutine; Run is the only consumer and the only caller of the
// Dispatcher.
type Queue struct {
	frames chan dmx.Frame
	done   chan struct{}
	stats  *dmx.Stats
}

// NewQueue конструктор. size <= 0 selects the default.
func NewQueue(size int, stats *dmx.Stats) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{
		frames: make(chan dmx.Frame, size),
		done:   make(chan struct{}),
		stats:  stats,
	}
}

// Produce enqueues a frame. It blocks while the queue is full, so every
// frame is dispatched and no trigger pulse is lost; once Run has returned the
// frame is discarded.
func (q *Queue) Produce(frame dmx.Frame) {
	select {
	case q.frames <- frame:
		return
	default:
		q.stats.AddQueueFull()
	}
	select {
	case q.frames <- frame:
	case <-q.done:
	}
}

// Close tells Run to return once the pending frames are dispatched. Produce
// must not be called after Close.
func (q *Queue) Close() {
	close(q.frames)
}

// Run feeds queued frames to d until ctx is done or the queue is closed and
// empty.
func (q *Queue) Run(ctx context.Context, d *Dispatcher) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-q.frames:
			if !ok {
				return
			}
			d.DispatchAndSend(ctx, f)
		}
	}
}
