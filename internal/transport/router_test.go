package transport

import (
	"context"
	"errors"
	"testing"

	"dmx2osc/internal/config"
	"dmx2osc/internal/dispatch"
	"dmx2osc/internal/logger"
	"dmx2osc/internal/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	started, stopped bool
	startErr         error
	sent             []string
}

func (f *fakeSender) Start(context.Context) error { f.started = true; return f.startErr }
func (f *fakeSender) Stop() error                 { f.stopped = true; return nil }
func (f *fakeSender) Send(_ context.Context, in dispatch.SendInstruction) error {
	f.sent = append(f.sent, in.Destination.Name+in.Address)
	return nil
}

func TestRouter_RoutesByProtocol(t *testing.T) {
	oscDest := &mapping.Destination{Name: "show", Protocol: config.ProtocolOSC, Host: "127.0.0.1", Port: 9000}
	mqttDest := &mapping.Destination{Name: "status", Protocol: config.ProtocolMQTT, Host: "broker", Port: 1883}

	r := NewRouter(logger.NewNop(), []*mapping.Destination{oscDest, mqttDest})
	require.Len(t, r.brokers, 1)

	osc, broker := &fakeSender{}, &fakeSender{}
	r.osc = osc
	r.brokers[mqttDest] = broker

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, broker.started)

	ctx := context.Background()
	require.NoError(t, r.Send(ctx, dispatch.SendInstruction{Address: "/a", Destination: oscDest}))
	require.NoError(t, r.Send(ctx, dispatch.SendInstruction{Address: "/b", Destination: mqttDest}))
	assert.Equal(t, []string{"show/a"}, osc.sent)
	assert.Equal(t, []string{"status/b"}, broker.sent)

	err := r.Send(ctx, dispatch.SendInstruction{Address: "/c",
		Destination: &mapping.Destination{Name: "ghost", Protocol: config.ProtocolMQTT}})
	assert.ErrorContains(t, err, "ghost")

	require.NoError(t, r.Stop())
	assert.True(t, broker.stopped)
}

func TestRouter_StartFailure(t *testing.T) {
	mqttDest := &mapping.Destination{Name: "status", Protocol: config.ProtocolMQTT}
	r := NewRouter(logger.NewNop(), []*mapping.Destination{mqttDest})
	r.brokers[mqttDest] = &fakeSender{startErr: errors.New("refused")}

	err := r.Start(context.Background())
	assert.ErrorContains(t, err, "refused")
	assert.ErrorContains(t, err, "status")
}

func TestConvertConfigClientMQTT(t *testing.T) {
	conf := ConvertConfigClientMQTT(&mapping.Destination{
		Host: "broker", Port: 1883, User: "u", Password: "p", TopicPrefix: "lights", Qos: 1, ClientID: "id",
	})
	assert.Equal(t, "1883", conf.Port)
	assert.Equal(t, "tcp", conf.Schema)
	assert.Equal(t, "lights", conf.TopicPrefix)
	assert.Equal(t, byte(1), conf.Qos)
	assert.Equal(t, "id", conf.ClientID)
}
