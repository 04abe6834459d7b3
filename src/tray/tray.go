// Package tray shows the resident's system tray menu: an Enabled toggle,
// a zones reload and Quit.
package tray

import (
	"log/slog"

	"github.com/getlantern/systray"
)

// Controller is the part of the event loop the tray drives.
type Controller interface {
	Enabled() bool
	Toggle() bool
}

// Options configures the tray.
type Options struct {
	Title    string
	Loop     Controller
	OnReload func()
	OnQuit   func()
}

// Tray owns the menu items once Run has called onReady.
type Tray struct {
	opts    Options
	refresh chan struct{}
}

// New creates a tray; call Run to show it.
func New(opts Options) *Tray {
	if opts.Title == "" {
		opts.Title = "Hover Confirm"
	}
	return &Tray{opts: opts, refresh: make(chan struct{}, 1)}
}

// Run blocks on the systray message loop until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, which makes Run return.
func (t *Tray) Quit() { systray.Quit() }

// Refresh re-reads the loop state, e.g. after the sampler disabled itself.
func (t *Tray) Refresh() {
	select {
	case t.refresh <- struct{}{}:
	default:
	}
}

func (t *Tray) onReady() {
	systray.SetTitle(t.opts.Title)

	mEnabled := systray.AddMenuItemCheckbox("Hover enabled", "Toggle hover confirmation", t.opts.Loop.Enabled())
	mReload := systray.AddMenuItem("Reload zones", "Re-read the zones file")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	update := func() {
		on := t.opts.Loop.Enabled()
		if on {
			mEnabled.Check()
		} else {
			mEnabled.Uncheck()
		}
		systray.SetIcon(iconBytes(on))
		systray.SetTooltip(tooltip(t.opts.Title, on))
	}
	update()

	go func() {
		for {
			select {
			case <-mEnabled.ClickedCh:
				on := t.opts.Loop.Toggle()
				slog.Info("tray toggle", "enabled", on)
				update()
			case <-mReload.ClickedCh:
				if t.opts.OnReload != nil {
					t.opts.OnReload()
				}
			case <-t.refresh:
				update()
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	if t.opts.OnQuit != nil {
		t.opts.OnQuit()
	}
}

func tooltip(title string, enabled bool) string {
	if enabled {
		return title + ": on"
	}
	return title + ": off"
}
