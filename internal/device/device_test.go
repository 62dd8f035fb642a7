package device

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"dmx2osc/internal/dmx"
	"dmx2osc/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	r       *bytes.Reader
	written bytes.Buffer
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }
func (p *fakePort) Close() error                { p.closed = true; return nil }

func message(label byte, data ...byte) []byte {
	out := []byte{startOfMessage, label, byte(len(data)), byte(len(data) >> 8)}
	out = append(out, data...)
	return append(out, endOfMessage)
}

func stream(parts ...[]byte) *fakePort {
	return &fakePort{r: bytes.NewReader(bytes.Join(parts, nil))}
}

func TestSerialWidget_ReceivesFrames(t *testing.T) {
	port := stream(
		// line noise before the first message
		[]byte{0x00, 0x13},
		message(labelReceivedDMX, 0x00, 0x00, 10, 20, 30),
		// other label
		message(3, 1, 2, 3),
		// receive error status
		message(labelReceivedDMX, 0x01, 0x00, 99),
		// RDM start code
		message(labelReceivedDMX, 0x00, 0xCC, 1, 2),
		// bad end byte
		[]byte{startOfMessage, labelReceivedDMX, 0x01, 0x00, 0x00, 0x00},
		message(labelReceivedDMX, 0x00, 0x00, 40),
	)

	w := NewSerialWidget(logger.NewNop(), port)
	var got [][]int
	require.NoError(t, w.Register(0, func(v []int) { got = append(got, v) }))
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, [][]int{{10, 20, 30}, {40}}, got)
	assert.Equal(t, receiveAlways, port.written.Bytes())
}

func TestSerialWidget_RunWithoutCallback(t *testing.T) {
	w := NewSerialWidget(logger.NewNop(), stream())
	assert.Error(t, w.Run(context.Background()))
	assert.Error(t, w.Register(0, nil))
}

type fakeCapture struct {
	universe int
	cb       func([]int)
	closed   bool
	regErr   error
	values   [][]int
}

func (c *fakeCapture) Register(universe int, cb func([]int)) error {
	c.universe, c.cb = universe, cb
	return c.regErr
}

func (c *fakeCapture) Run(context.Context) error {
	for _, v := range c.values {
		c.cb(v)
	}
	return nil
}

func (c *fakeCapture) Close() error { c.closed = true; return nil }

func TestAdapter_ProducesFrames(t *testing.T) {
	capture := &fakeCapture{values: [][]int{{1, 2}, {300}}}
	var frames []dmx.Frame
	a := NewAdapter(logger.NewNop(), capture, 3, dmx.ProducerFunc(func(f dmx.Frame) {
		frames = append(frames, f)
	}))

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 3, capture.universe)
	assert.True(t, capture.closed)
	require.Len(t, frames, 2)
	assert.Equal(t, 2, frames[0][1])
	assert.Equal(t, 300, frames[1][0])
	assert.Equal(t, 0, frames[1][1])
}

func TestAdapter_RegisterError(t *testing.T) {
	capture := &fakeCapture{regErr: errors.New("no such universe")}
	a := NewAdapter(logger.NewNop(), capture, 9, dmx.ProducerFunc(func(dmx.Frame) {}))
	assert.ErrorContains(t, a.Run(context.Background()), "universe 9")
}
