// Package clientosc sends translated values as OSC messages over UDP.
package clientosc

import (
	"context"
	"fmt"

	"dmx2osc/internal/dispatch"
	"dmx2osc/internal/logger"
	"dmx2osc/internal/mapping"
	"github.com/hypebeast/go-osc/osc"
)

// ClientOSC holds one go-osc client per destination.
type ClientOSC struct {
	log     *logger.Log
	clients map[*mapping.Destination]*osc.Client
}

// NewClient конструктор. The client set is fixed after construction.
func NewClient(log logger.Logger, destinations []*mapping.Destination) *ClientOSC {
	c := &ClientOSC{
		log:     log.Module("osc"),
		clients: make(map[*mapping.Destination]*osc.Client, len(destinations)),
	}
	for _, d := range destinations {
		c.clients[d] = osc.NewClient(d.Host, int(d.Port))
		c.log.Debugf("OSC destination %s at %s", d.Name, d.Addr())
	}
	return c
}

// NewMessage builds the OSC message for an instruction.
func NewMessage(in dispatch.SendInstruction) *osc.Message {
	msg := osc.NewMessage(in.Address)
	for _, a := range in.Args {
		msg.Append(a)
	}
	return msg
}

// Send delivers one instruction. go-osc has no deadline support, so the
// write runs on its own goroutine and ctx bounds how long we wait for it.
func (c *ClientOSC) Send(ctx context.Context, in dispatch.SendInstruction) error {
	client, ok := c.clients[in.Destination]
	if !ok {
		return fmt.Errorf("unknown OSC destination %q", in.Destination.Name)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Send(NewMessage(in))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("osc send to %s: %w", in.Destination.Addr(), err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("osc send to %s: %w", in.Destination.Addr(), ctx.Err())
	}
}
