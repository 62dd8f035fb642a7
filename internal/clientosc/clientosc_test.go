package clientosc

import (
	"context"
	"net"
	"testing"
	"time"

	"dmx2osc/internal/dispatch"
	"dmx2osc/internal/logger"
	"dmx2osc/internal/mapping"
	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_WireFormat(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	dest := &mapping.Destination{
		Name:     "show",
		Protocol: "osc",
		Host:     "127.0.0.1",
		Port:     uint16(conn.LocalAddr().(*net.UDPAddr).Port),
	}
	c := NewClient(logger.NewNop(), []*mapping.Destination{dest})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Send(ctx, dispatch.SendInstruction{
		Address:     "/foo",
		Args:        []int32{1},
		Destination: dest,
	}))

	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)

	packet, err := osc.ParsePacket(string(buf[:n]))
	require.NoError(t, err)
	msg, ok := packet.(*osc.Message)
	require.True(t, ok)
	assert.Equal(t, "/foo", msg.Address)
	assert.Equal(t, []interface{}{int32(1)}, msg.Arguments)
}

func TestSend_UnknownDestination(t *testing.T) {
	c := NewClient(logger.NewNop(), nil)
	err := c.Send(context.Background(), dispatch.SendInstruction{
		Address:     "/foo",
		Args:        []int32{1},
		Destination: &mapping.Destination{Name: "ghost"},
	})
	assert.ErrorContains(t, err, "ghost")
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(dispatch.SendInstruction{Address: "/bar", Args: []int32{15}})
	assert.Equal(t, "/bar", msg.Address)
	assert.Equal(t, []interface{}{int32(15)}, msg.Arguments)
}
