// Package dmx holds the frame type shared by the inputs and the dispatcher.
package dmx

// ChannelCount is the number of channels in one DMX universe.
const ChannelCount = 512

// Frame is one snapshot of a universe, indexed by slot (channel-1).
// Network input only yields 0..255; capture devices may report anything, the
// dispatcher clamps.
type Frame [ChannelCount]int

// FromBytes builds a frame from a DMX payload, zero padded or truncated to 512.
func FromBytes(b []byte) Frame {
	var f Frame
	if len(b) > ChannelCount {
		b = b[:ChannelCount]
	}
	for i, v := range b {
		f[i] = int(v)
	}
	return f
}

// FromValues is FromBytes for wider integer input.
func FromValues(v []int) Frame {
	var f Frame
	copy(f[:], v)
	return f
}

// Producer accepts frames from an input source.
type Producer interface {
	Produce(frame Frame)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(frame Frame)

// Produce calls f(frame).
func (f ProducerFunc) Produce(frame Frame) {
	f(frame)
}
