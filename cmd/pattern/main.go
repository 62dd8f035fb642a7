package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dmx2osc/internal/config"
	"dmx2osc/internal/logger"
	"dmx2osc/internal/pattern"
)

var (
	name     string
	universe uint
	channels int
	fps      int
	cidr     string
	logLevel string
)

func init() {
	flag.StringVar(&name, "pattern", "ramp", "pattern to send: "+strings.Join(pattern.Names(), ", "))
	flag.UintVar(&universe, "universe", 0, "art-net universe, high byte is Net, low byte is SubUni")
	flag.IntVar(&channels, "channels", 16, "number of channels the pattern covers")
	flag.IntVar(&fps, "fps", 10, "frames per second")
	flag.StringVar(&cidr, "interface-cidr", "2.0.0.0/8", "network of the interface to send from")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
}

func main() {
	flag.Parse()

	log, err := logger.NewLogger(config.LogConf{Level: logLevel, Format: "text"})
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}
	if universe > 0x7fff {
		log.Errorf("universe %d out of range", universe)
		os.Exit(1)
	}

	s, err := pattern.NewSender(log, pattern.Conf{
		Pattern:       name,
		Universe:      uint16(universe),
		Channels:      channels,
		FPS:           fps,
		InterfaceCIDR: cidr,
	})
	if err != nil {
		log.Module("pattern").Errorf("error while creating the pattern sender. %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := s.Start(ctx); err != nil {
		log.Error("failed to start art-net service:", err.Error())
		os.Exit(1)
	}
	log.Infof("sending pattern %q on universe %d at %d fps", name, universe, fps)

	<-ctx.Done()
	s.Stop()

	log.Info("shutdown complete")
}
