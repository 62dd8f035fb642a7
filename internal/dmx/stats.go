package dmx

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"dmx2osc/internal/logger"
)

// Stats counts what happens to frames from the socket to the transports.
// All methods are safe on a nil receiver.
type Stats struct {
	Datagrams atomic.Uint64
	Frames    atomic.Uint64
	QueueFull atomic.Uint64
	Sent      atomic.Uint64
	Failed    atomic.Uint64

	mu    sync.Mutex
	drops map[string]uint64
}

// NewStats конструктор.
func NewStats() *Stats {
	return &Stats{drops: map[string]uint64{}}
}

func (s *Stats) AddDatagram() {
	if s != nil {
		s.Datagrams.Add(1)
	}
}

// AddDrop counts a datagram rejected for reason.
func (s *Stats) AddDrop(reason string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.drops[reason]++
	s.mu.Unlock()
}

func (s *Stats) AddFrame() {
	if s != nil {
		s.Frames.Add(1)
	}
}

// AddQueueFull counts producers that had to wait for the dispatcher.
func (s *Stats) AddQueueFull() {
	if s != nil {
		s.QueueFull.Add(1)
	}
}

// AddSend records the outcome of one delivery.
func (s *Stats) AddSend(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.Failed.Add(1)
		return
	}
	s.Sent.Add(1)
}

// Drops returns a copy of the drop counters.
func (s *Stats) Drops() map[string]uint64 {
	out := map[string]uint64{}
	if s == nil {
		return out
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.drops {
		out[k] = v
	}
	return out
}

// Log writes the counters every interval until ctx is done. The frame rate is
// computed over the last interval.
func (s *Stats) Log(ctx context.Context, log logger.Logger, interval time.Duration) {
	if s == nil || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	lastFrames := s.Frames.Load()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			frames := s.Frames.Load()
			fps := float64(frames-lastFrames) / now.Sub(last).Seconds()
			lastFrames, last = frames, now

			fields := logger.Fields{
				"fps":        fps,
				"datagrams":  s.Datagrams.Load(),
				"frames":     frames,
				"queue_full": s.QueueFull.Load(),
				"sent":       s.Sent.Load(),
				"failed":     s.Failed.Load(),
			}
			drops := s.Drops()
			reasons := make([]string, 0, len(drops))
			for r := range drops {
				reasons = append(reasons, r)
			}
			sort.Strings(reasons)
			for _, r := range reasons {
				fields["drop_"+r] = drops[r]
			}
			log.Module("stats").With(fields).Infof("FPS: %0.2f", fps)
		}
	}
}
