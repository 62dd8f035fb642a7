package pattern

import (
	"fmt"
	"sort"
)

type renderFunc func(step uint64, channels int) [512]byte

var patterns = map[string]renderFunc{
	// ramp raises every channel by one per frame.
	"ramp": func(step uint64, channels int) [512]byte {
		var dmx [512]byte
		for i := 0; i < channels; i++ {
			dmx[i] = byte(step % 256)
		}
		return dmx
	},
	// chase moves a single full channel along the range.
	"chase": func(step uint64, channels int) [512]byte {
		var dmx [512]byte
		dmx[step%uint64(channels)] = 255
		return dmx
	},
	// toggle flips all channels between 0 and 255.
	"toggle": func(step uint64, channels int) [512]byte {
		var dmx [512]byte
		if step%2 == 1 {
			for i := 0; i < channels; i++ {
				dmx[i] = 255
			}
		}
		return dmx
	},
}

// Names lists the available patterns.
func Names() []string {
	names := make([]string, 0, len(patterns))
	for n := range patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render returns frame number step of a pattern over the first channels
// channels.
func Render(name string, step uint64, channels int) ([512]byte, error) {
	fn, ok := patterns[name]
	if !ok {
		return [512]byte{}, fmt.Errorf("unknown pattern %q, expected one of %v", name, Names())
	}
	if channels < 1 || channels > 512 {
		return [512]byte{}, fmt.Errorf("channel count %d out of range 1..512", channels)
	}
	return fn(step, channels), nil
}
