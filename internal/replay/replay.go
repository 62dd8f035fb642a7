// Package replay feeds Art-Net traffic captured in a pcap file through the
// same admission path as the live socket.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"dmx2osc/internal/logger"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Handler receives the UDP payloads addressed to the Art-Net port.
type Handler interface {
	HandleDatagram(src net.IP, b []byte) bool
}

// Options for Read.
type Options struct {
	Port     int  // Port - UDP destination port to replay.
	Realtime bool // Realtime - keep the capture's inter-packet timing.
}

// Result summarizes a replay.
type Result struct {
	Packets   int
	Datagrams int
	Accepted  int
}

// File replays the pcap file at path.
func File(ctx context.Context, log logger.Logger, path string, opts Options, h Handler) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open PCAP file %s: %w", path, err)
	}
	defer f.Close()
	return Read(ctx, log, f, opts, h)
}

// Read replays a pcap stream.
func Read(ctx context.Context, log logger.Logger, r io.Reader, opts Options, h Handler) (Result, error) {
	var res Result
	l := log.Module("replay")

	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return res, fmt.Errorf("failed to read PCAP header: %w", err)
	}

	var last time.Time
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		data, ci, err := pr.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("PCAP packet %d: %w", res.Packets+1, err)
		}
		res.Packets++

		packet := gopacket.NewPacket(data, pr.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok || int(udp.DstPort) != opts.Port {
			continue
		}
		// Art-Net runs over IPv4 only
		ip4, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		if !ok {
			continue
		}
		src := ip4.SrcIP

		if opts.Realtime && !last.IsZero() {
			if err := sleep(ctx, ci.Timestamp.Sub(last)); err != nil {
				return res, err
			}
		}
		last = ci.Timestamp

		res.Datagrams++
		if h.HandleDatagram(src, udp.Payload) {
			res.Accepted++
		}
	}

	l.Infof("PCAP file reading complete: %d packets, %d datagrams, %d frames accepted",
		res.Packets, res.Datagrams, res.Accepted)
	return res, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
