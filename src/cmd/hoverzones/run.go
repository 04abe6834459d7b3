package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hover-confirm/src/config"
	"hover-confirm/src/eventloop"
	"hover-confirm/src/hotkey"
	"hover-confirm/src/hover"
	"hover-confirm/src/logutil"
	"hover-confirm/src/pointer"
	"hover-confirm/src/scale"
	"hover-confirm/src/singleinstance"
	"hover-confirm/src/trace"
	"hover-confirm/src/tray"
	"hover-confirm/src/zones"
)

const shutdownTimeout = 3 * time.Second

func newRunCmd(opts *rootOptions) *cobra.Command {
	var noTray bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hover resident until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runResident(cmd.Context(), cfg, noTray)
		},
	}
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "Do not show the system tray icon")
	return cmd
}

// unclosable shares the click hook with the sampler without letting a
// disable tear it down.
type unclosable struct{ pointer.Source }

func (unclosable) Close() error { return nil }

func usesHook(kind string) bool {
	return kind == pointer.KindHook || (kind == pointer.KindAuto && runtime.GOOS != "windows")
}

func runResident(parent context.Context, cfg *config.Config, noTray bool) error {
	closeLog := logutil.Setup(logutil.Options{EnableFile: cfg.EnableFileLogging, Level: cfg.LogLevel})
	defer closeLog()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var control singleinstance.Server
	if cfg.ControlServer {
		control = singleinstance.NewServer()
		if err := control.Start(ctx); errors.Is(err, singleinstance.ErrAlreadyRunning) {
			return err
		} else if err != nil {
			slog.Warn("control server unavailable", "err", err)
			control = nil
		}
	}

	ref := cfg.Reference
	var defs []zones.Definition
	if zf, err := config.LoadZones(cfg.ZonesFile); err != nil {
		slog.Warn("zones file not loaded, starting with no zones", "path", cfg.ZonesFile, "err", err)
	} else {
		ref = zf.ReferenceOr(ref)
		defs = zf.Definitions()
	}

	recorders := trace.Multi{trace.NewSlogRecorder(nil)}
	if cfg.TraceFile != "" {
		fr, err := trace.NewFileRecorder(cfg.TraceFile)
		if err != nil {
			return err
		}
		defer fr.Close()
		recorders = append(recorders, fr)
	}

	hook := pointer.NewHookSource()
	if err := hook.Open(); err != nil {
		slog.Warn("global hook unavailable, clicks will not be detected", "err", err)
	}
	defer hook.Close()

	scaler := scale.NewCached(scale.DisplayFunc(ref), cfg.ScaleTTL, nil)
	renderer := newHeadlessRenderer(os.Stdout)
	var trayUI *tray.Tray
	refresh := func() {
		if trayUI != nil {
			trayUI.Refresh()
		}
	}

	loop := eventloop.New(eventloop.Options{
		Hover:          hoverConfig(cfg),
		SampleInterval: cfg.SampleInterval,
		Cooldown:       cfg.Cooldown,
		ActionWorkers:  cfg.ActionWorkers,
		Enabled:        cfg.Enabled,
		NewSource: func() (pointer.Source, error) {
			if usesHook(cfg.PointerSource) {
				return unclosable{hook}, nil
			}
			return pointer.NewSource(cfg.PointerSource)
		},
		Zones: defs,
		Scale: scaler,
		Trace: recorders,
		OnAction: func(ctx context.Context, actionID string) {
			slog.Info("action", "action", actionID)
			fmt.Fprintf(os.Stdout, "action %s\n", actionID)
		},
		OnAffordance: renderer.OnAffordance,
		OnError: func(err error) {
			var ce *zones.ConfigError
			if !errors.As(err, &ce) {
				fmt.Fprintf(os.Stderr, "hover: %v\n", err)
			}
			refresh()
		},
	})

	reload := func() error {
		zf, err := config.LoadZones(cfg.ZonesFile)
		if err != nil {
			slog.Warn("zones reload failed, keeping previous zones", "err", err)
			return err
		}
		applyZones(loop, scaler, zf)
		return nil
	}
	if !noTray {
		trayUI = tray.New(tray.Options{Loop: loop, OnReload: func() { _ = reload() }, OnQuit: stop})
	}
	if control != nil {
		control.SetHandler(controlHandler(loop, reload, refresh))
	}
	if cfg.ToggleHotkey != "" {
		combo, err := hotkey.Parse(cfg.ToggleHotkey)
		if err != nil {
			return err
		}
		m := hotkey.NewMatcher(combo)
		hook.SetKeyHandler(func(down bool, rawcode uint16) {
			if m.Feed(down, rawcode) {
				go func() {
					on := loop.Toggle()
					slog.Info("toggle hotkey", "hotkey", combo.String(), "enabled", on)
					refresh()
				}()
			}
		})
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()
	go renderer.watchClicks(ctx, hook.Clicks(), loop.Click)

	if cfg.WatchZones {
		if w, err := config.NewZonesWatcher(cfg.ZonesFile, config.DefaultWatchDebounce, func(zf *config.ZonesFile) {
			applyZones(loop, scaler, zf)
		}); err != nil {
			slog.Warn("zones hot reload disabled", "err", err)
		} else {
			go w.Run(ctx)
		}
	}

	if trayUI != nil {
		go func() {
			<-ctx.Done()
			trayUI.Quit()
		}()
		trayUI.Run()
	} else {
		<-ctx.Done()
	}

	slog.Info("shutting down")
	if err := loop.Shutdown(shutdownTimeout); err != nil {
		return err
	}
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func hoverConfig(cfg *config.Config) hover.Config {
	return hover.Config{
		EnterDelay:   cfg.EnterDelay,
		AutoHide:     cfg.AutoHide,
		Continuation: cfg.Continuation,
	}
}

func applyZones(loop *eventloop.Loop, scaler *scale.Cached, zf *config.ZonesFile) {
	if zf.Reference != nil {
		scaler.Reset(scale.DisplayFunc(image.Pt(zf.Reference.Width, zf.Reference.Height)))
	}
	epoch, skipped := loop.Reload(zf.Definitions())
	slog.Info("zones applied", "epoch", epoch, "zones", len(zf.Zones)-len(skipped), "skipped", len(skipped))
}
