package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"codeberg.org/mutker/fwectl/internal/backend"
	"codeberg.org/mutker/fwectl/internal/cli"
	"codeberg.org/mutker/fwectl/internal/config"
	"codeberg.org/mutker/fwectl/internal/control"
	"codeberg.org/mutker/fwectl/internal/ec"
	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/logger"
	"codeberg.org/mutker/fwectl/internal/pid"
	"codeberg.org/mutker/fwectl/internal/telemetry"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		var e errors.Error
		if errors.As(err, &e) {
			logger.FatalWithCode(e).Msg("failed to write PID file")
		}
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := run(ctx); err != nil {
		var e errors.Error
		if errors.As(err, &e) {
			logger.FatalWithCode(e).Msg("daemon failed")
		}
		logger.Fatal().Err(err).Msg("daemon failed")
	}
}

func run(ctx context.Context) error {
	interval := time.Duration(cfg.Interval) * time.Second

	deviceSlot := backend.NewSlot[*ec.Transport]()
	toolSlot := backend.NewSlot[*cli.FrameworkTool]()
	adjSlot := backend.NewSlot[*cli.RyzenAdj]()

	manager := backend.NewManager(config.Backend(cfg.Backend), deviceSlot, toolSlot, adjSlot)

	supervisors := []func(context.Context){
		backend.NewSupervisor("ec-device", interval, deviceSlot,
			func(context.Context) (*ec.Transport, error) {
				t := ec.NewTransport()
				if err := t.Ping(); err != nil {
					if ec.IsAccessDenied(err) {
						logger.Warn().Msg("EC device access denied; fwectl needs root privileges")
					}

					return nil, err
				}

				return t, nil
			},
			func(_ context.Context, t *ec.Transport) error {
				return t.Ping()
			},
		).Run,
		backend.NewSupervisor("framework-tool", interval, toolSlot,
			cli.NewFrameworkTool,
			func(ctx context.Context, t *cli.FrameworkTool) error {
				_, err := t.Versions(ctx)
				return err
			},
		).Run,
		backend.NewSupervisor("ryzenadj", interval, adjSlot,
			cli.NewRyzenAdj,
			func(ctx context.Context, a *cli.RyzenAdj) error {
				return a.Probe(ctx)
			},
		).Run,
	}

	fan, err := control.NewFanController(manager, cfg.Fan)
	if err != nil {
		return err
	}
	power := control.NewPowerController(manager, cfg.Power, interval)
	battery := control.NewBatteryController(manager, cfg.Battery, interval)

	collector, err := telemetry.NewService(cfg.TelemetryWindow)
	if err != nil {
		return err
	}
	defer collector.Close()

	var wg sync.WaitGroup
	start := func(f func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(ctx)
		}()
	}

	for _, s := range supervisors {
		start(s)
	}
	start(fan.Run)
	start(power.Run)
	start(battery.Run)
	start(func(ctx context.Context) {
		telemetry.Collect(ctx, collector, manager, interval)
	})

	logger.Info().
		Str("backend", cfg.Backend).
		Str("fan_mode", cfg.Fan.Mode).
		Msg("fwectl started")

	wg.Wait()
	logger.Info().Msg("Exiting...")

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
