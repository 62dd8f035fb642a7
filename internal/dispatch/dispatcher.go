// Package dispatch turns DMX frames into outbound commands. Only channels that
// changed since the previous frame produce output.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"dmx2osc/internal/dmx"
	"dmx2osc/internal/logger"
	"dmx2osc/internal/mapping"
)

const defaultSendTimeout = 250 * time.Millisecond

// SendInstruction is one message for one destination.
type SendInstruction struct {
	Address     string
	Args        []int32
	Destination *mapping.Destination

	Channel int // 1-based DMX channel
	Input   int // value as received
	Label   string
	Type    mapping.CommandType
}

func (s SendInstruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s => %d", s.Address, s.Args[0])
	if s.Label != "" {
		fmt.Fprintf(&b, " (%s)", s.Label)
	}
	fmt.Fprintf(&b, " (type: %s) (DMX input: %d on %d)", s.Type, s.Input, s.Channel)
	return b.String()
}

// Transport delivers a single instruction. Implementations must honor ctx.
type Transport interface {
	Send(ctx context.Context, in SendInstruction) error
}

// Options for NewDispatcher.
type Options struct {
	SendTimeout time.Duration
	Stats       *dmx.Stats
}

// Dispatcher owns the last dispatched frame. It is not safe for concurrent
// use; Queue serializes access.
type Dispatcher struct {
	log       *logger.Log
	channels  *mapping.ChannelMap
	transport Transport
	timeout   time.Duration
	stats     *dmx.Stats

	last dmx.Frame
}

// NewDispatcher конструктор.
func NewDispatcher(log logger.Logger, channels *mapping.ChannelMap, transport Transport, opts Options) *Dispatcher {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	return &Dispatcher{
		log:       log.Module("dispatch"),
		channels:  channels,
		transport: transport,
		timeout:   opts.SendTimeout,
		stats:     opts.Stats,
	}
}

// Last returns a copy of the last dispatched frame.
func (d *Dispatcher) Last() dmx.Frame {
	return d.last
}

// Dispatch compares frame with the previous one and returns the instructions
// for every changed, bound channel in slot order. The frame always becomes the
// new baseline.
func (d *Dispatcher) Dispatch(frame dmx.Frame) []SendInstruction {
	var out []SendInstruction

	for slot, value := range frame {
		if value == d.last[slot] {
			continue
		}
		channel := slot + 1

		b := d.channels.Lookup(slot)
		if b == nil {
			d.log.With(logger.Fields{"channel": channel}).
				Errorf("Received value '%d' for undefined DMX channel '%d'", value, channel)
			continue
		}

		clamped := value
		if clamped < 0 || clamped > 255 {
			d.log.With(logger.Fields{"channel": channel}).
				Warnf("submitted DMX value for channel '%d' out of range: %d", channel, value)
			clamped = min(max(clamped, 0), 255)
		}

		outbound, label := b.Type.Transform(clamped)
		address := b.Name
		if !strings.HasPrefix(address, "/") {
			address = "/" + address
		}

		for _, dest := range b.Destinations {
			out = append(out, SendInstruction{
				Address:     address,
				Args:        []int32{int32(outbound)},
				Destination: dest,
				Channel:     channel,
				Input:       value,
				Label:       label,
				Type:        b.Type,
			})
		}
	}

	d.last = frame
	return out
}

// DispatchAndSend runs Dispatch and delivers the result. Each destination gets
// its instructions in slot order; destinations are served concurrently and a
// failing one never holds up the others.
func (d *Dispatcher) DispatchAndSend(ctx context.Context, frame dmx.Frame) {
	d.stats.AddFrame()
	instructions := d.Dispatch(frame)
	if len(instructions) == 0 {
		return
	}

	perDest := map[*mapping.Destination][]SendInstruction{}
	var order []*mapping.Destination
	for _, in := range instructions {
		if _, ok := perDest[in.Destination]; !ok {
			order = append(order, in.Destination)
		}
		perDest[in.Destination] = append(perDest[in.Destination], in)
	}

	var wg sync.WaitGroup
	for _, dest := range order {
		wg.Add(1)
		go func(batch []SendInstruction) {
			defer wg.Done()
			for _, in := range batch {
				d.send(ctx, in)
			}
		}(perDest[dest])
	}
	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, in SendInstruction) {
	log := d.log.With(logger.Fields{"destination": in.Destination.Name, "channel": in.Channel})
	if log.IsDebug() {
		log.Debugf("Sending command: %s to %s", in, in.Destination.Name)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.transport.Send(sendCtx, in)
	d.stats.AddSend(err)
	if err != nil {
		log.Warnf("Sending command to '%s' failed: %v", in.Destination.Name, err)
	}
}
