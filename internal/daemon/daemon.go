// Package daemon assembles the running system: configuration, the
// main-thread queue, the placement stack, the world actor and the IPC
// server, plus signal handling and config reload. Run drains window
// mutations on the calling goroutine, so it must be invoked from the
// process main goroutine.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/mactile/internal/config"
	"github.com/1broseidon/mactile/internal/ipc"
	"github.com/1broseidon/mactile/internal/mainthread"
	"github.com/1broseidon/mactile/internal/place"
	"github.com/1broseidon/mactile/internal/world"
)

// Run starts the daemon and blocks until SIGINT or SIGTERM. The world
// actor and IPC server run on background goroutines; the calling
// goroutine locks itself to the OS main thread and executes window
// mutations, which is what AppKit and the Accessibility API require.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// LevelVar so a config reload can retune verbosity without
	// rebuilding the handler.
	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	log.Info("mactile daemon starting",
		"log_level", cfg.LogLevel,
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Cols, cfg.Grid.Rows),
		"hide_corner", cfg.Hide.Corner)

	queue := mainthread.New()

	ops := place.NewOps(log)
	ops.Opts = cfg.EngineOptions()

	winops := world.NewRealWinOps(queue, ops, log)
	winops.SetHideCorner(cfg.HideCorner())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wcfg := cfg.WorldConfig()
	wcfg.PlaceCounters = ops.Counters
	wcfg.Log = log
	w := world.Start(ctx, winops, wcfg)

	reloadChan := make(chan struct{}, 1)
	srv, err := ipc.NewServer(cfg, w, reloadChan, log)
	if err != nil {
		cancel()
		<-w.Done()
		return fmt.Errorf("create ipc server: %w", err)
	}
	if err := srv.Start(); err != nil {
		cancel()
		<-w.Done()
		return fmt.Errorf("start ipc server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go supervise(ctx, cancel, superviseDeps{
		sigCh:      sigCh,
		reloadChan: reloadChan,
		srv:        srv,
		world:      w,
		winops:     winops,
		level:      level,
		log:        log,
	})

	log.Info("mactile daemon ready")
	queue.Run(ctx)

	srv.Stop()
	<-w.Done()
	log.Info("mactile daemon stopped")
	return nil
}
