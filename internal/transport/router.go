// Package transport picks the client for each destination's protocol.
package transport

import (
	"context"
	"errors"
	"fmt"

	"dmx2osc/internal/clientmqtt"
	"dmx2osc/internal/clientosc"
	"dmx2osc/internal/config"
	"dmx2osc/internal/dispatch"
	"dmx2osc/internal/logger"
	"dmx2osc/internal/mapping"
)

type broker interface {
	Start(ctx context.Context) error
	Stop() error
	Send(ctx context.Context, in dispatch.SendInstruction) error
}

// Router implements dispatch.Transport.
type Router struct {
	log     *logger.Log
	osc     dispatch.Transport
	brokers map[*mapping.Destination]broker
}

// NewRouter creates the OSC client and one MQTT client per mqtt destination.
func NewRouter(log logger.Logger, destinations []*mapping.Destination) *Router {
	var oscDest []*mapping.Destination
	brokers := map[*mapping.Destination]broker{}
	for _, d := range destinations {
		switch d.Protocol {
		case config.ProtocolMQTT:
			brokers[d] = clientmqtt.NewClient(log, ConvertConfigClientMQTT(d))
		default:
			oscDest = append(oscDest, d)
		}
	}
	return &Router{
		log:     log.Module("transport"),
		osc:     clientosc.NewClient(log, oscDest),
		brokers: brokers,
	}
}

// Start starts the MQTT clients. They connect in the background, a broker
// that is down only fails the sends addressed to it.
func (r *Router) Start(ctx context.Context) error {
	for d, b := range r.brokers {
		if err := b.Start(ctx); err != nil {
			return fmt.Errorf("failed to start MQTT destination %q: %w", d.Name, err)
		}
	}
	return nil
}

// Stop disconnects the MQTT clients.
func (r *Router) Stop() error {
	var errs []error
	for _, b := range r.brokers {
		errs = append(errs, b.Stop())
	}
	return errors.Join(errs...)
}

// Send implements dispatch.Transport.
func (r *Router) Send(ctx context.Context, in dispatch.SendInstruction) error {
	if in.Destination.Protocol == config.ProtocolMQTT {
		b, ok := r.brokers[in.Destination]
		if !ok {
			return fmt.Errorf("unknown MQTT destination %q", in.Destination.Name)
		}
		return b.Send(ctx, in)
	}
	return r.osc.Send(ctx, in)
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(d *mapping.Destination) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID:    d.ClientID,
		Schema:      "tcp",
		Host:        d.Host,
		Port:        fmt.Sprint(d.Port),
		User:        d.User,
		Password:    d.Password,
		TopicPrefix: d.TopicPrefix,
		Qos:         d.Qos,
	}
}
