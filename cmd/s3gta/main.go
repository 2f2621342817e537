// Command s3gta runs the effects engine on a desktop host: a test signal
// or noise goes through the selected algorithm to the sound card, the
// keyboard stands in for the pots and touch screen, and an optional HTTP
// endpoint streams the display state.
//
// Usage:
//
//	s3gta [flags]
//
// Examples:
//
//	s3gta -algo 4
//	s3gta -source noise -algo 1 -http :8080
//	s3gta -preset delay.lua -no-console
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/sirupsen/logrus"

	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/engine"
	"github.com/emeb/S3GTA/internal/console"
	"github.com/emeb/S3GTA/internal/hostaudio"
	"github.com/emeb/S3GTA/internal/preset"
	"github.com/emeb/S3GTA/internal/telemetry"
	"github.com/emeb/S3GTA/param"
)

type config struct {
	sampleRate float64
	frameSize  int
	algo       int
	mix        int
	source     string
	tone       float64
	level      float64
	presetIn   string
	presetOut  string
	httpAddr   string
	poll       time.Duration
	acqPeriod  time.Duration
	logLevel   string
	logFile    string
	noConsole  bool
}

func main() {
	var cfg config

	flag.Float64Var(&cfg.sampleRate, "rate", core.DefaultSampleRate, "sample rate in Hz")
	flag.IntVar(&cfg.frameSize, "frame", core.DefaultFrameSize, "frames per audio callback")
	flag.IntVar(&cfg.algo, "algo", 0, "algorithm index selected at start")
	flag.IntVar(&cfg.mix, "mix", core.ParamMax, "initial mix pot position, 0 (dry) to 4095 (wet)")
	flag.StringVar(&cfg.source, "source", "sine", "input signal: sine, noise or silence")
	flag.Float64Var(&cfg.tone, "tone", 500, "sine frequency in Hz")
	flag.Float64Var(&cfg.level, "level", 0.5, "input level relative to full scale")
	flag.StringVar(&cfg.presetIn, "preset", "", "Lua preset replayed after start")
	flag.StringVar(&cfg.presetOut, "save", "s3gta-preset.lua", "file written by the p key")
	flag.StringVar(&cfg.httpAddr, "http", "", "telemetry listen address, empty to disable")
	flag.DurationVar(&cfg.poll, "poll", 20*time.Millisecond, "display refresh interval")
	flag.DurationVar(&cfg.acqPeriod, "acq", param.DefaultTickPeriod, "pot acquisition tick period")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "log level")
	flag.StringVar(&cfg.logFile, "log", "", "log file, default stderr")
	flag.BoolVar(&cfg.noConsole, "no-console", false, "disable the keyboard console")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: s3gta [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the S3GTA effects engine against the host sound card.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  1-9      select algorithm\n")
		fmt.Fprintf(os.Stderr, "  q/a w/s e/d r/f  pots 0-3 up/down, shift for coarse\n")
		fmt.Fprintf(os.Stderr, "  m        toggle mute\n")
		fmt.Fprintf(os.Stderr, "  p        save preset\n")
		fmt.Fprintf(os.Stderr, "  x        quit\n")
	}
	flag.Parse()

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("s3gta stopped")
		closeLog()
		os.Exit(1)
	}
}

func newLogger(cfg config) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, nil, err
	}

	logger.SetLevel(level)

	if cfg.logFile == "" {
		return logger, func() {}, nil
	}

	f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}

	logger.SetOutput(f)

	return logger, func() { _ = f.Close() }, nil
}

func newSource(cfg config) (hostaudio.Source, error) {
	switch strings.ToLower(cfg.source) {
	case "sine":
		return hostaudio.NewSine(cfg.tone, cfg.sampleRate, cfg.level), nil
	case "noise":
		shift := uint(0)
		for l := 1.0; l > cfg.level && shift < 15; l /= 2 {
			shift++
		}

		return hostaudio.NewNoise(uint32(time.Now().UnixNano()), shift), nil
	case "silence":
		return hostaudio.Silence{}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.source)
	}
}

func run(cfg config, logger *logrus.Logger) error {
	features := cpu.DetectFeatures()
	logger.WithFields(logrus.Fields{
		"arch": features.Architecture,
		"sse2": features.HasSSE2,
		"avx2": features.HasAVX2,
		"neon": features.HasNEON,
	}).Info("cpu features")

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	pots := param.NewVirtualPots(int16(cfg.mix), core.ParamMax/2, core.ParamMax/2, core.ParamMax/2)

	eng, err := engine.New(
		engine.WithConfig(core.WithSampleRate(cfg.sampleRate), core.WithFrameSize(cfg.frameSize)),
		engine.WithLogger(logger),
		engine.WithConverter(pots),
	)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go eng.Acquirer().Run(ctx, cfg.acqPeriod)

	stream := hostaudio.NewStream(eng, src, eng.Config().FrameSize)

	sink, err := hostaudio.NewSink(int(eng.Config().SampleRate), 0, stream)
	if err != nil {
		return err
	}
	defer sink.Close()

	sink.Start()

	err = eng.Start(ctx, cfg.algo)
	if err != nil {
		return err
	}

	if cfg.presetIn != "" {
		err = preset.New(eng, logger).RunFile(ctx, cfg.presetIn)
		if err != nil {
			return err
		}
	}

	var srv *telemetry.Server

	if cfg.httpAddr != "" {
		srv, err = telemetry.New(eng,
			telemetry.WithLogger(logger),
			telemetry.WithTap(eng.Pipeline().Tap, eng.Config().SampleRate))
		if err != nil {
			return err
		}

		go func() {
			if err := srv.ListenAndServe(cfg.httpAddr); err != nil {
				logger.WithError(err).Error("telemetry stopped")
			}
		}()

		defer func() { _ = srv.Shutdown() }()
	}

	var (
		con  *console.Console
		term *console.Terminal
		quit <-chan struct{}
	)

	if !cfg.noConsole && console.IsTerminal() {
		con = console.New(eng, pots, logger, func() error { return savePreset(cfg.presetOut, eng, logger) })
		term = console.NewTerminal(con.HandleKey)

		err = term.Start()
		if err != nil {
			return err
		}
		defer term.Stop()

		quit = term.Done()
	}

	return pollLoop(ctx, cfg.poll, eng, con, srv, quit, logger)
}

// pollLoop is the single foreground reader of the meters.
func pollLoop(ctx context.Context, every time.Duration, eng *engine.Engine,
	con *console.Console, srv *telemetry.Server, quit <-chan struct{}, logger logrus.FieldLogger,
) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-quit:
			return nil
		case <-ticker.C:
		}

		eng.Poll()
		snap := eng.Snapshot()

		if con != nil {
			err := console.Render(os.Stdout, snap, con.Pots())
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
		}

		if srv != nil {
			err := srv.Publish(snap)
			if err != nil {
				logger.WithError(err).Warn("publish failed")
			}
		}
	}
}

func savePreset(path string, eng *engine.Engine, logger logrus.FieldLogger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save preset: %w", err)
	}

	err = preset.Save(f, eng)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err == nil {
		logger.WithField("path", path).Info("preset saved")
	}

	return err
}
