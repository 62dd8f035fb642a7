package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dmx2osc/internal/artnet"
	"dmx2osc/internal/config"
	"dmx2osc/internal/device"
	"dmx2osc/internal/dispatch"
	"dmx2osc/internal/dmx"
	"dmx2osc/internal/logger"
	"dmx2osc/internal/mapping"
	"dmx2osc/internal/replay"
	"dmx2osc/internal/transport"
)

var (
	configFile string
	verbose    bool
	profile    bool
	check      bool
	replayFile string
	replayFast bool
)

func init() {
	flag.StringVar(&configFile, "config", "configs/dmx2osc.toml", "Path to configuration file")
	flag.BoolVar(&verbose, "verbose", false, "be verbose and print debug information")
	flag.BoolVar(&profile, "profile", false, "display current FPS of DMX frames every second")
	flag.BoolVar(&check, "check", false, "validate the configuration and exit")
	flag.StringVar(&replayFile, "replay", "", "replay Art-Net traffic from a pcap file instead of listening")
	flag.BoolVar(&replayFast, "replay-fast", false, "replay without the capture's timing")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		_ = log.SetLevel("debug")
	}
	log.Module("logger").Debug("newLogger created ok")

	channels, err := buildChannelMap(log, cfg)
	if err != nil {
		log.Module("config").Errorf("found config problems during parsing: %v", err)
		os.Exit(1)
	}
	if check {
		log.Module("config").Infof("configuration ok, %d channels bound", channels.Bound())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	stats := dmx.NewStats()
	router := transport.NewRouter(log, channels.Destinations())
	if err := router.Start(ctx); err != nil {
		log.Module("transport").Errorf("failed to start transports: %v", err)
		os.Exit(1)
	}

	dispatcher := dispatch.NewDispatcher(log, channels, router, dispatch.Options{
		SendTimeout: cfg.Dispatch.SendTimeout.Duration,
		Stats:       stats,
	})
	queue := dispatch.NewQueue(0, stats)

	interval := cfg.Dispatch.StatsInterval.Duration
	if profile {
		interval = time.Second
	}
	go stats.Log(ctx, log, interval)

	consumerDone := make(chan struct{})
	go func() {
		queue.Run(ctx, dispatcher)
		close(consumerDone)
	}()

	exitCode := 0
	if err := runInput(ctx, log, cfg, queue, stats); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("input stopped: %v", err)
		exitCode = 1
	}

	queue.Close()
	<-consumerDone

	if err := router.Stop(); err != nil {
		log.Error("failed to stop transports:", err.Error())
	}

	log.Info("shutdown complete")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// buildChannelMap logs every warning and returns the joined fatal errors.
func buildChannelMap(log *logger.Log, cfg *config.Config) (*mapping.ChannelMap, error) {
	l := log.Module("config")
	for _, w := range cfg.Warnings {
		l.Warn(w)
	}

	vocab, vocabReport := mapping.NewVocabulary(cfg.Vocabulary)
	channels, report := mapping.Build(cfg.Outputs, vocab)
	for _, n := range report.Notices {
		l.Info(n)
	}
	for _, w := range report.Warnings {
		l.Warn(w.String())
	}

	if err := errors.Join(vocabReport.Err(), report.Err()); err != nil {
		return nil, err
	}
	if channels.Bound() == 0 {
		l.Warn("no DMX channel is bound to any destination")
	}

	for slot := 0; slot < mapping.ChannelCount; slot++ {
		if b := channels.Lookup(slot); b != nil && l.IsDebug() {
			names := make([]string, len(b.Destinations))
			for i, d := range b.Destinations {
				names[i] = d.Name
			}
			l.Debugf("channel %d, command: %s, destinations: %v", slot+1, b.Command, names)
		}
	}
	return channels, nil
}

func runInput(ctx context.Context, log *logger.Log, cfg *config.Config, queue *dispatch.Queue, stats *dmx.Stats) error {
	switch {
	case replayFile != "":
		l := artnet.NewListener(log, ConvertConfigListener(cfg.ArtNet), queue, stats)
		_, err := replay.File(ctx, log, replayFile, replay.Options{
			Port:     cfg.ArtNet.Port,
			Realtime: !replayFast,
		}, l)
		return err

	case cfg.UsesDevice():
		log.Info("Starting DMX to OSC with DMX device")
		widget, err := device.OpenSerialWidget(log, cfg.Device.Port, cfg.Device.BaudRate)
		if err != nil {
			return err
		}
		return device.NewAdapter(log, widget, cfg.Device.Universe, queue).Run(ctx)

	default:
		return artnet.NewListener(log, ConvertConfigListener(cfg.ArtNet), queue, stats).Run(ctx)
	}
}

// ConvertConfigListener преобразует структуры.
func ConvertConfigListener(cfg config.ArtNetConf) artnet.ListenerConf {
	return artnet.ListenerConf{
		Address:       cfg.ListenAddress,
		InterfaceCIDR: cfg.InterfaceCIDR,
		Port:          cfg.Port,
		Universe:      uint8(cfg.Universe),
	}
}
