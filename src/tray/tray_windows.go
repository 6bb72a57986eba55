//go:build windows

package tray

import (
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"
)

// ready gates UpdateTooltip: systray calls crash before onReady has run.
var ready atomic.Bool

type winIcon struct {
	cfg  Config
	once sync.Once
}

func newIcon(cfg Config) (Icon, error) {
	return &winIcon{cfg: cfg}, nil
}

func (i *winIcon) Run() {
	systray.Run(i.onReady, i.onExit)
}

func (i *winIcon) onReady() {
	systray.SetTitle(i.cfg.Title)
	systray.SetTooltip(i.cfg.Tooltip)

	mSample := systray.AddMenuItem("Sample Now", "Run one sampling pass")
	mQuit := systray.AddMenuItem("Quit", "Stop tracking and exit")
	ready.Store(true)

	go func() {
		for {
			select {
			case <-mSample.ClickedCh:
				if i.cfg.OnSample != nil {
					i.cfg.OnSample()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
			}
		}
	}()
}

func (i *winIcon) onExit() {
	ready.Store(false)
	if i.cfg.OnExit != nil {
		i.cfg.OnExit()
	}
}

func (i *winIcon) Destroy() {
	i.once.Do(systray.Quit)
}

func updateTooltip(text string) {
	if !ready.Load() {
		return
	}
	systray.SetTooltip(text)
}
