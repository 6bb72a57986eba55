//go:build windows

package main

import (
	"log"
	"syscall"

	"github.com/lxn/win"
)

// enableDPIAwareness opts into per-monitor DPI awareness before any
// coordinate query so the caret position comes back in physical pixels on
// scaled displays.
func enableDPIAwareness() {
	shcore := syscall.NewLazyDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret == 0 {
			log.Printf("DPI: per-monitor awareness enabled")
		} else {
			log.Printf("DPI: SetProcessDpiAwareness returned %d", ret)
		}
		return
	}

	// Pre-8.1 fallback.
	user32 := syscall.NewLazyDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		if ret, _, _ := setProcessDPIAware.Call(); ret != 0 {
			log.Printf("DPI: system awareness enabled (fallback)")
		} else {
			log.Printf("DPI: SetProcessDPIAware failed")
		}
	}
}

// logMonitorConfiguration records the monitor topology. Multi-monitor
// setups make negative caret coordinates legitimate.
func logMonitorConfiguration() {
	monitors := win.GetSystemMetrics(win.SM_CMONITORS)
	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("Monitors: %d, virtual screen x:%d y:%d w:%d h:%d", monitors, vx, vy, vw, vh)
}
