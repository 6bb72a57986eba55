//go:build windows

package winevent

import (
	"log"
	"runtime"
	"sync"
	"syscall"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSetWinEventHook    = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent     = user32.NewProc("UnhookWinEvent")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
)

const (
	winEventOutOfContext   = 0x0000
	winEventSkipOwnProcess = 0x0002

	eventObjectLocationChange = 0x800B
	objidCursor               = -9
)

// windowsSource registers WinEvent hooks on a dedicated OS thread and pumps
// its message queue, because out-of-context WinEvent callbacks are delivered
// only to the registering thread and only while it processes messages.
type windowsSource struct {
	mu       sync.Mutex
	running  bool
	threadID uint32
	done     chan struct{}
}

// NewSource returns the live WinEvent source.
func NewSource() Source { return &windowsSource{} }

type registration struct {
	active   int
	threadID uint32
}

func (s *windowsSource) Subscribe(cb func()) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return 0, nil
	}

	ready := make(chan registration, 1)
	s.done = make(chan struct{})
	go s.pump(cb, ready, s.done)

	reg := <-ready
	s.threadID = reg.threadID
	s.running = true
	return reg.active, nil
}

// pump installs one hook per event class, reports the outcome, then runs a
// message loop until Unsubscribe posts WM_QUIT. The hooks are released on
// this same thread before it exits.
func (s *windowsSource) pump(cb func(), ready chan<- registration, done chan<- struct{}) {
	defer close(done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Touch the message queue so it exists before Unsubscribe can post to it.
	var msg win.MSG
	win.PeekMessage(&msg, 0, win.WM_USER, win.WM_USER, win.PM_NOREMOVE)

	callback := syscall.NewCallback(func(hook, event, hwnd, idObject, idChild, idEventThread, eventTime uintptr) uintptr {
		// The mouse cursor reports a location change on every pixel of
		// travel and can never own a caret.
		if uint32(event) == eventObjectLocationChange && int32(uint32(idObject)) == objidCursor {
			return 0
		}
		cb()
		return 0
	})

	handles := make([]uintptr, len(Classes))
	active := 0
	for i, c := range Classes {
		h, _, _ := procSetWinEventHook.Call(
			uintptr(c.Min), uintptr(c.Max),
			0, callback, 0, 0,
			winEventOutOfContext|winEventSkipOwnProcess,
		)
		if h == 0 {
			// Invalid handle: this class of events is not being observed.
			log.Printf("WinEvent: registration failed for %s events", c.Name)
			continue
		}
		handles[i] = h
		active++
	}

	ready <- registration{active: active, threadID: windows.GetCurrentThreadId()}

	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}

	for i, h := range handles {
		if h == 0 {
			continue
		}
		if ok, _, _ := procUnhookWinEvent.Call(h); ok == 0 {
			log.Printf("WinEvent: unhook failed for %s events", Classes[i].Name)
		}
		handles[i] = 0
	}
}

func (s *windowsSource) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	ok, _, err := procPostThreadMessageW.Call(uintptr(s.threadID), win.WM_QUIT, 0, 0)
	if ok == 0 {
		log.Printf("WinEvent: failed to signal pump thread: %v", err)
		return
	}
	<-s.done
	log.Printf("WinEvent: subscriptions released")
}
