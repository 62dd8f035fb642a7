package artnet

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Decode parses raw UDP payload bytes. Opcode, version and universe are
// returned as found; deciding what to accept is up to the caller.
func Decode(b []byte) (*Packet, error) {
	if len(b) < len(ID) || !bytes.Equal(b[:len(ID)], ID[:]) {
		return nil, ErrNotMyProtocol
	}
	if len(b) < HeaderLen {
		return nil, fmt.Errorf("%w (%d of %d bytes)", ErrTruncatedHeader, len(b), HeaderLen)
	}

	p := &Packet{
		OpCode:   binary.BigEndian.Uint16(b[8:10]),
		Version:  binary.BigEndian.Uint16(b[10:12]),
		Sequence: b[12],
		Physical: b[13],
		SubUni:   b[14],
		Net:      b[15],
		Length:   binary.BigEndian.Uint16(b[16:18]),
	}

	rest := b[HeaderLen:]
	if int(p.Length) > len(rest) {
		return nil, fmt.Errorf("%w (declared %d, got %d)", ErrShortPayload, p.Length, len(rest))
	}
	// the receive buffer is reused, keep our own copy
	p.Data = append([]byte(nil), rest[:p.Length]...)
	return p, nil
}

// Encode is the inverse of Decode. Length is taken from Data.
func Encode(p *Packet) []byte {
	b := make([]byte, HeaderLen+len(p.Data))
	copy(b, ID[:])
	binary.BigEndian.PutUint16(b[8:10], p.OpCode)
	binary.BigEndian.PutUint16(b[10:12], p.Version)
	b[12] = p.Sequence
	b[13] = p.Physical
	b[14] = p.SubUni
	b[15] = p.Net
	binary.BigEndian.PutUint16(b[16:18], uint16(len(p.Data)))
	copy(b[HeaderLen:], p.Data)
	return b
}

// NewDMXPacket returns an ArtDmx packet for the given universe and sequence.
func NewDMXPacket(subUni, net, sequence uint8, data []byte) *Packet {
	return &Packet{
		OpCode:   OpDMX,
		Version:  MinVersion,
		Sequence: sequence,
		SubUni:   subUni,
		Net:      net,
		Length:   uint16(len(data)),
		Data:     data,
	}
}
