package artnet

import (
	"errors"
	"fmt"
)

const (
	// Port is the well-known Art-Net UDP port.
	Port = 6454
	// OpDMX is the ArtDmx opcode as read big-endian from the wire (0x5000 LE).
	OpDMX uint16 = 0x0050
	// MinVersion is the lowest protocol revision accepted.
	MinVersion uint16 = 14
	// HeaderLen is the size of the ArtDmx header including the ID.
	HeaderLen = 18
)

// ID is the 8 byte magic every Art-Net packet starts with.
var ID = [8]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

var (
	ErrNotMyProtocol = errors.New("not an art-net packet")
	ErrMalformed     = errors.New("malformed art-net packet")

	ErrTruncatedHeader = fmt.Errorf("%w: truncated header", ErrMalformed)
	ErrShortPayload    = fmt.Errorf("%w: payload shorter than declared length", ErrMalformed)
)

// Packet is a decoded ArtDmx-shaped packet. Nothing is filtered by Decode.
type Packet struct {
	OpCode   uint16
	Version  uint16
	Sequence uint8
	Physical uint8
	SubUni   uint8
	Net      uint8
	Length   uint16
	Data     []byte
}

// Universe returns the 15 bit port address.
// Старший байт - Net, младший байт - SubUni.
func (p *Packet) Universe() uint16 {
	return uint16(p.Net&0x7f)<<8 | uint16(p.SubUni)
}

func (p *Packet) String() string {
	return fmt.Sprintf("ArtNet packet op=0x%04x ver=%d seq=%d phys=%d net=%d subuni=%d len=%d",
		p.OpCode, p.Version, p.Sequence, p.Physical, p.Net, p.SubUni, p.Length)
}
