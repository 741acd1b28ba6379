package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/1broseidon/mactile/internal/config"
	"github.com/1broseidon/mactile/internal/ipc"
	"github.com/1broseidon/mactile/internal/world"
)

type superviseDeps struct {
	sigCh      chan os.Signal
	reloadChan chan struct{}
	srv        *ipc.Server
	world      *world.World
	winops     *world.RealWinOps
	level      *slog.LevelVar
	log        *slog.Logger
}

// supervise handles signals and config reloads until the daemon stops.
// SIGHUP and the IPC RELOAD command both end up here; the only
// difference is who loads the file.
func supervise(ctx context.Context, cancel context.CancelFunc, d superviseDeps) {
	for {
		select {
		case sig := <-d.sigCh:
			switch sig {
			case syscall.SIGHUP:
				d.log.Info("received SIGHUP, reloading config")
				newCfg, err := config.Load()
				if err != nil {
					d.log.Error("config reload failed", "error", err)
					continue
				}
				d.srv.UpdateConfig(newCfg)
				applyConfig(newCfg, d)
			default:
				d.log.Info("shutting down", "signal", sig.String())
				cancel()
				return
			}

		case <-d.reloadChan:
			// The IPC server already validated and swapped its config.
			applyConfig(d.srv.GetConfig(), d)

		case <-ctx.Done():
			return
		}
	}
}

// applyConfig pushes the hot-appliable sections into running
// components: log level, engine tuning, hide corner. The world
// section is read once at startup; changing it takes a restart.
func applyConfig(cfg *config.Config, d superviseDeps) {
	d.level.Set(cfg.SlogLevel())
	d.winops.UpdateOptions(cfg.EngineOptions())
	d.winops.SetHideCorner(cfg.HideCorner())
	d.world.HintRefresh()
	d.log.Info("config reloaded",
		"log_level", cfg.LogLevel,
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Cols, cfg.Grid.Rows),
		"hide_corner", cfg.Hide.Corner)
}
