package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/config"
	coresys "github.com/l1jgo/simsync/internal/core/system"
	"github.com/l1jgo/simsync/internal/demo"
	gonet "github.com/l1jgo/simsync/internal/net"
	"github.com/l1jgo/simsync/internal/persist"
	"github.com/l1jgo/simsync/internal/sim"
	"github.com/l1jgo/simsync/internal/system"
	"github.com/l1jgo/simsync/internal/viewer"
)

func run(cfg *config.Config) error {
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Demo and scenes
	d, err := demo.New(log, sim.NewWorld(), cfg.Demo)
	if err != nil {
		return fmt.Errorf("demo: %w", err)
	}
	scenes, closeScenes, err := loadScenes(cfg.Scenes, log)
	if err != nil {
		return err
	}
	defer closeScenes()
	for _, sc := range scenes {
		d.AddScene(sc.Title, sc.Build)
	}
	if len(scenes) == 0 {
		return fmt.Errorf("no scenes found")
	}
	// A broken scene stays on screen; it is not a startup failure.
	if err := d.Start(); err != nil {
		log.Warn("initial scene failed", zap.Error(err))
	}
	if n := cfg.Scenes.Initial; n != 0 {
		if err := d.ChangeScene(n); err != nil {
			log.Warn("initial scene change failed", zap.Int("scene", n), zap.Error(err))
		}
	}

	// 2. Systems
	runner := coresys.NewRunner()
	// a broken scene keeps taking commands and publishing its error
	runner.Hold(func(coresys.Phase) bool { return d.Broken() != nil })
	store := gonet.NewSessionStore()
	if cfg.Bridge.Enabled {
		srv, err := gonet.NewServer(cfg.Bridge.BindAddress, cfg.Bridge.InQueueSize, cfg.Bridge.OutQueueSize, log)
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		go srv.AcceptLoop()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		runner.Register(system.NewInputSystem(srv, store, d, cfg.Bridge.MaxCmdsPerTick, log))
		runner.Register(system.NewPublishSystem(d, store, cfg.Bridge.PublishEvery, log))
		log.Info("bridge listening", zap.String("addr", srv.Addr().String()+gonet.Path))
	}
	runner.Register(system.NewPhysicsSystem(d))
	runner.Register(system.NewSyncSystem(d))

	if cfg.Profiling.Driver != "" {
		openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		sink, err := persist.OpenSink(openCtx, cfg.Profiling.Driver, cfg.Profiling.DSN, cfg.Profiling.MaxConns, log)
		cancel()
		if err != nil {
			return fmt.Errorf("profiling: %w", err)
		}
		defer sink.Close()
		prof := system.NewProfileSystem(d, sink, cfg.Profiling.FlushEvery, cfg.Profiling.BatchSize, log)
		runner.Register(prof)
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := prof.Flush(flushCtx); err != nil {
				log.Error("final profile flush failed", zap.Error(err))
			}
		}()
	}

	log.Info("simview ready",
		zap.Int("scenes", len(scenes)),
		zap.Int("step_frequency", cfg.Demo.StepFrequency),
		zap.Bool("viewer", cfg.Viewer.Enabled),
		zap.Bool("bridge", cfg.Bridge.Enabled),
	)

	// 3. Frame loop
	if cfg.Viewer.Enabled {
		return windowLoop(ctx, cfg.Viewer, d, runner, log)
	}
	return headlessLoop(ctx, cfg.Frame.Rate, runner, log)
}

// windowLoop is paced by the viewer's target FPS.
func windowLoop(ctx context.Context, cfg config.ViewerConfig, d *demo.Demo, runner *coresys.Runner, log *zap.Logger) error {
	v := viewer.New(cfg, d, log)
	defer v.Close()
	last := time.Now()
	for !v.ShouldClose() {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return nil
		default:
		}
		now := time.Now()
		v.HandleInput()
		runner.Tick(now.Sub(last))
		last = now
		v.Draw()
	}
	return nil
}

func headlessLoop(ctx context.Context, rate time.Duration, runner *coresys.Runner, log *zap.Logger) error {
	if rate <= 0 {
		rate = 16 * time.Millisecond
	}
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runner.Tick(rate)
		case <-ctx.Done():
			log.Info("shutdown signal received", zap.Uint64("frames", runner.Frames()))
			return nil
		}
	}
}
