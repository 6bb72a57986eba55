//go:build !windows

package tray

import (
	"log"
	"sync"
)

type stubIcon struct {
	cfg  Config
	done chan struct{}
	once sync.Once
}

func newIcon(cfg Config) (Icon, error) {
	log.Printf("tray: notification area not supported on this platform")
	return &stubIcon{cfg: cfg, done: make(chan struct{})}, nil
}

func (i *stubIcon) Run() { <-i.done }

func (i *stubIcon) Destroy() {
	i.once.Do(func() {
		close(i.done)
		if i.cfg.OnExit != nil {
			i.cfg.OnExit()
		}
	})
}

func updateTooltip(string) {}
