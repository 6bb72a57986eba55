//go:build windows

package wininfo

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
)

type platformResolver struct{}

func (platformResolver) Resolve(window uintptr) (string, string) {
	if window == 0 {
		return "", ""
	}

	var pid uint32
	_, _, _ = procGetWindowThreadProcessId.Call(window, uintptr(unsafe.Pointer(&pid)))

	return windowTitle(window), processName(pid)
}

// windowTitle reads the window text length first, then the text, truncating
// to whatever the window actually reported.
func windowTitle(window uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(window)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	copied, _, _ := procGetWindowTextW.Call(window, uintptr(unsafe.Pointer(&buf[0])), n+1)
	if copied == 0 {
		return ""
	}
	if copied > n {
		copied = n
	}
	return syscall.UTF16ToString(buf[:copied])
}
