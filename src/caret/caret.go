package caret

import (
	"fmt"
	"time"
)

// Sample is one observation of the caret: screen coordinates plus the owning
// window's title and process name. Field names are stable; external tools
// poll the serialized form.
type Sample struct {
	X           int       `json:"caret_x"`
	Y           int       `json:"caret_y"`
	Timestamp   time.Time `json:"caret_timestamp"`
	WindowTitle string    `json:"caret_window_title"`
	ProcessName string    `json:"caret_process_name"`
}

// Matches reports whether two samples observe the same caret state.
// Timestamp is excluded: every sample carries a fresh one.
func (s Sample) Matches(other Sample) bool {
	return s.X == other.X && s.Y == other.Y &&
		s.WindowTitle == other.WindowTitle && s.ProcessName == other.ProcessName
}

func (s Sample) String() string {
	return fmt.Sprintf("(%d,%d) in %q [%s]", s.X, s.Y, s.WindowTitle, s.ProcessName)
}

// ShouldEmit decides whether candidate must be persisted given the last
// emitted sample (nil when nothing has been emitted yet). Pure; the caller
// owns the last-sample slot.
func ShouldEmit(candidate Sample, last *Sample) bool {
	return last == nil || !candidate.Matches(*last)
}

// Location is a successful locator result: the caret's top-left corner in
// screen pixels and the foreground window it was found under.
type Location struct {
	X      int
	Y      int
	Window uintptr
}

// Locator performs one caret query against the live desktop. A false return
// means "no caret to report right now" and is a normal, frequent state.
type Locator interface {
	Locate() (Location, bool)
}

// NewLocator returns the locator for the current platform.
func NewLocator() Locator { return platformLocator{} }
