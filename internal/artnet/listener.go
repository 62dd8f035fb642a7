package artnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"dmx2osc/internal/dmx"
	"dmx2osc/internal/logger"
)

// Drop reasons reported to Stats.
const (
	DropDecode   = "decode"
	DropSource   = "source"
	DropOpCode   = "opcode"
	DropSequence = "sequence"
	DropUniverse = "universe"
)

const readTimeout = 100 * time.Millisecond

// ListenerConf is the art-net input configuration.
type ListenerConf struct {
	Address       string // Address - IP to bind, or "auto".
	InterfaceCIDR string // InterfaceCIDR - range searched when Address is "auto".
	Port          int
	Universe      uint8 // Universe - sub-universe to accept.
}

// Listener receives ArtDmx packets and produces frames for one universe.
//
// The first sender seen is the only one accepted for the life of the
// listener. HandleDatagram is not safe for concurrent use.
type Listener struct {
	log   *logger.Log
	cfg   ListenerConf
	out   dmx.Producer
	stats *dmx.Stats

	lastSequence uint8
	source       net.IP
}

// NewListener конструктор.
func NewListener(log logger.Logger, cfg ListenerConf, out dmx.Producer, stats *dmx.Stats) *Listener {
	if cfg.Port == 0 {
		cfg.Port = Port
	}
	return &Listener{
		log:   log.Module("art-net"),
		cfg:   cfg,
		out:   out,
		stats: stats,
	}
}

// Run binds the configured address and serves until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	host := l.cfg.Address
	if host == "auto" {
		ip, err := FindArtNetIP(l.cfg.InterfaceCIDR)
		if err != nil {
			return fmt.Errorf("failed to find the art-net IP: %w", err)
		}
		host = ip.String()
	}

	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(l.cfg.Port)))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}

	l.log.Infof("Art-Net server listening on %s", conn.LocalAddr())
	return l.Serve(ctx, conn)
}

// Serve reads datagrams from conn until ctx is done. conn is closed on return.
func (l *Listener) Serve(ctx context.Context, conn *net.UDPConn) error {
	defer conn.Close()

	buffer := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("listener stopping due to context cancellation")
			return nil
		default:
		}

		// the deadline lets the loop observe cancellation
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("udp read: %w", err)
		}
		l.HandleDatagram(addr.IP, buffer[:n])
	}
}

// HandleDatagram applies the admission rules and produces a frame when the
// datagram is accepted. It reports whether a frame was produced.
func (l *Listener) HandleDatagram(src net.IP, b []byte) bool {
	l.stats.AddDatagram()

	p, err := Decode(b)
	if err != nil {
		l.drop(DropDecode, src, err.Error())
		return false
	}

	if len(src) == 0 {
		l.drop(DropSource, src, "unknown source address")
		return false
	}
	if l.source == nil {
		l.log.Debugf("accepting packages from: %s", src)
		l.source = append(net.IP(nil), src...)
	} else if !l.source.Equal(src) {
		l.drop(DropSource, src, "foreign source")
		return false
	}

	if p.OpCode != OpDMX || p.Version < MinVersion {
		l.drop(DropOpCode, src, p.String())
		return false
	}

	// sequence 0 means the sender does not use sequencing
	if p.Sequence != 0 {
		if p.Sequence == l.lastSequence {
			l.drop(DropSequence, src, "duplicate sequence")
			return false
		}
		l.lastSequence = p.Sequence
	}

	if p.SubUni != l.cfg.Universe {
		l.drop(DropUniverse, src, p.String())
		return false
	}

	l.out.Produce(dmx.FromBytes(p.Data))
	return true
}

func (l *Listener) drop(reason string, src net.IP, detail string) {
	l.stats.AddDrop(reason)
	if l.log.IsDebug() {
		l.log.With(logger.Fields{"reason": reason, "source": src.String()}).Debug("dropped datagram: ", detail)
	}
}
