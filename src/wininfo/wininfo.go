// Package wininfo resolves a window handle to the context a caret sample
// carries: the window title and the owning process's image name.
package wininfo

import (
	"log"

	"github.com/shirou/gopsutil/v3/process"
)

// Resolver maps a window handle to human-readable context. Lookups never
// fail hard: a window or process that vanished mid-query yields empty
// strings, which is routine under fast window churn.
type Resolver interface {
	Resolve(window uintptr) (title, processName string)
}

// NewResolver returns the resolver for the current platform.
func NewResolver() Resolver { return platformResolver{} }

// processName resolves a PID to its image name. The process exiting between
// window lookup and name resolution is an expected race, not an error.
func processName(pid uint32) string {
	if pid == 0 {
		return ""
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		log.Printf("Resolver: process %d exited before name lookup: %v", pid, err)
		return ""
	}
	name, err := p.Name()
	if err != nil {
		log.Printf("Resolver: name lookup for process %d failed: %v", pid, err)
		return ""
	}
	return name
}
