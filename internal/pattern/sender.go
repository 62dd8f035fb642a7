// Package pattern drives a bridge with generated Art-Net test frames.
package pattern

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"time"

	anet "dmx2osc/internal/artnet"
	"dmx2osc/internal/logger"
	"github.com/Haba1234/go-artnet"
)

// Conf is the pattern sender configuration.
type Conf struct {
	Pattern       string
	Universe      uint16 // Universe: старший байт - Net, младший байт - SubUni.
	Channels      int
	FPS           int
	InterfaceCIDR string
}

// Sender is transport for the generated frames.
type Sender struct {
	logger *logger.Log
	sender *artnet.Controller
	conf   Conf
}

// NewSender returns a Sender bound to the first interface inside conf.InterfaceCIDR.
func NewSender(log logger.Logger, conf Conf) (*Sender, error) {
	if _, err := Render(conf.Pattern, 0, conf.Channels); err != nil {
		return nil, err
	}
	if conf.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", conf.FPS)
	}

	ip, err := anet.FindArtNetIP(conf.InterfaceCIDR)
	if err != nil {
		return nil, fmt.Errorf("failed to find the art-net IP: %w", err)
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}

	host = strings.ToLower(strings.Split(host, ".")[0])
	l := log.Module("pattern")
	l.Infof("Using ArtNet IP %s and hostname %s", ip.String(), host)

	senderLogger := artnet.NewDefaultLogger(log.GetLevel())

	return &Sender{
		logger: l,
		sender: artnet.NewController(host, ip, senderLogger, artnet.MaxFPS(conf.FPS)),
		conf:   conf,
	}, nil
}

// Start the controller and the frame loop.
func (s *Sender) Start(ctx context.Context) error {
	if err := s.sender.Start(); err != nil {
		return fmt.Errorf("failed to start Controller: %w", err)
	}

	go s.sendBackground(ctx)
	go s.debugDevices(ctx)
	return nil
}

// Stop the controller.
func (s *Sender) Stop() {
	s.sender.Stop()
}

func (s *Sender) sendBackground(ctx context.Context) {
	t := time.NewTicker(time.Second / time.Duration(s.conf.FPS))
	defer t.Stop()

	address := universeToAddress(s.conf.Universe)
	var step uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			dmx, err := Render(s.conf.Pattern, step, s.conf.Channels)
			if err != nil {
				s.logger.Error(err)
				return
			}
			s.sender.SendDMXToAddress(dmx, address)
			step++
		}
	}
}

// universeToAddress converts a dmx universe to art-net address.
func universeToAddress(universe uint16) artnet.Address {
	v := make([]uint8, 2)
	binary.BigEndian.PutUint16(v, universe)

	return artnet.Address{
		Net:    v[0],
		SubUni: v[1],
	}
}

// NodeToString returns a string representation of the given Node.
func NodeToString(n *artnet.ControlledNode) string {
	var inputs, outputs []string
	for _, p := range n.Node.InputPorts {
		inputs = append(inputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	for _, p := range n.Node.OutputPorts {
		outputs = append(outputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	return fmt.Sprintf(
		"IP=%s name=%q type=%q manufacturer=%q desc=%q inputs=%q outputs=%q",
		n.UDPAddress.String(), n.Node.Name, n.Node.Type,
		n.Node.Manufacturer, n.Node.Description,
		strings.Join(inputs, "; "), strings.Join(outputs, "; "),
	)
}

func (s *Sender) debugDevices(ctx context.Context) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			nodes := s.sender.Nodes // Кол-во видимых узлов.
			s.logger.Debugf("Currently %d devices are registered", len(nodes))
			for _, n := range nodes {
				s.logger.Debug(NodeToString(n))
			}
		}
	}
}
