// Package device bridges local DMX capture hardware to the frame queue.
package device

import (
	"context"
	"fmt"

	"dmx2osc/internal/dmx"
	"dmx2osc/internal/logger"
)

// Capture is a callback-style capture API. The callback receives one full
// universe per invocation, in arrival order.
type Capture interface {
	Register(universe int, cb func(values []int)) error
	Run(ctx context.Context) error
	Close() error
}

// Adapter turns capture callbacks into frames.
type Adapter struct {
	log      *logger.Log
	capture  Capture
	universe int
	out      dmx.Producer
}

// NewAdapter конструктор.
func NewAdapter(log logger.Logger, capture Capture, universe int, out dmx.Producer) *Adapter {
	return &Adapter{
		log:      log.Module("dmx-device"),
		capture:  capture,
		universe: universe,
		out:      out,
	}
}

// Run registers for the universe and blocks until the capture stops.
func (a *Adapter) Run(ctx context.Context) error {
	err := a.capture.Register(a.universe, func(values []int) {
		a.out.Produce(dmx.FromValues(values))
	})
	if err != nil {
		return fmt.Errorf("failed to register universe %d: %w", a.universe, err)
	}
	defer a.capture.Close()

	a.log.Infof("Starting DMX capture on universe %d", a.universe)
	return a.capture.Run(ctx)
}
