package dmx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBytes_PadsAndTruncates(t *testing.T) {
	f := FromBytes([]byte{1, 2, 3})
	assert.Equal(t, 1, f[0])
	assert.Equal(t, 3, f[2])
	assert.Equal(t, 0, f[3])
	assert.Equal(t, 0, f[511])

	long := make([]byte, 600)
	long[511] = 9
	long[512] = 7
	f = FromBytes(long)
	assert.Equal(t, 9, f[511])
}

func TestFromValues(t *testing.T) {
	f := FromValues([]int{300, -4})
	assert.Equal(t, 300, f[0])
	assert.Equal(t, -4, f[1])
	assert.Equal(t, 0, f[2])
}

func TestProducerFunc(t *testing.T) {
	var got Frame
	var p Producer = ProducerFunc(func(f Frame) { got = f })
	p.Produce(Frame{5})
	assert.Equal(t, 5, got[0])
}

func TestStats_NilSafeAndCounts(t *testing.T) {
	var nilStats *Stats
	nilStats.AddDatagram()
	nilStats.AddDrop("x")
	nilStats.AddSend(nil)
	assert.Empty(t, nilStats.Drops())

	s := NewStats()
	s.AddDatagram()
	s.AddFrame()
	s.AddQueueFull()
	s.AddDrop("sequence")
	s.AddDrop("sequence")
	s.AddSend(nil)
	s.AddSend(errors.New("boom"))

	assert.EqualValues(t, 1, s.Datagrams.Load())
	assert.EqualValues(t, 1, s.Frames.Load())
	assert.EqualValues(t, 1, s.QueueFull.Load())
	assert.EqualValues(t, 1, s.Sent.Load())
	assert.EqualValues(t, 1, s.Failed.Load())
	assert.Equal(t, map[string]uint64{"sequence": 2}, s.Drops())
}
