//go:build windows

package caret

import (
	"log"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetGUIThreadInfo         = user32.NewProc("GetGUIThreadInfo")
	procClientToScreen           = user32.NewProc("ClientToScreen")
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type point struct {
	X, Y int32
}

// guiThreadInfo mirrors the Win32 GUITHREADINFO structure.
type guiThreadInfo struct {
	CbSize        uint32
	Flags         uint32
	HwndActive    uintptr
	HwndFocus     uintptr
	HwndCapture   uintptr
	HwndMenuOwner uintptr
	HwndMoveSize  uintptr
	HwndCaret     uintptr
	RcCaret       rect
}

type platformLocator struct{}

// Locate resolves the caret of the foreground window to screen coordinates.
// Each of the four empty returns is a distinct, expected desktop state and
// is logged by name; none of them is an error.
func (platformLocator) Locate() (Location, bool) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		log.Printf("Locator: no active window")
		return Location{}, false
	}

	var pid uint32
	tid, _, _ := procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if tid == 0 {
		log.Printf("Locator: no thread info for window %#x", hwnd)
		return Location{}, false
	}

	var gti guiThreadInfo
	gti.CbSize = uint32(unsafe.Sizeof(gti))
	if ok, _, _ := procGetGUIThreadInfo.Call(tid, uintptr(unsafe.Pointer(&gti))); ok == 0 {
		log.Printf("Locator: no thread info for thread %d", tid)
		return Location{}, false
	}
	if gti.HwndCaret == 0 {
		log.Printf("Locator: no caret in foreground thread %d", tid)
		return Location{}, false
	}

	// rcCaret is in the caret window's client coordinates.
	pt := point{X: gti.RcCaret.Left, Y: gti.RcCaret.Top}
	if ok, _, _ := procClientToScreen.Call(gti.HwndCaret, uintptr(unsafe.Pointer(&pt))); ok == 0 {
		log.Printf("Locator: conversion failure for caret window %#x", gti.HwndCaret)
		return Location{}, false
	}

	return Location{X: int(pt.X), Y: int(pt.Y), Window: hwnd}, true
}
