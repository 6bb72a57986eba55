// Package winevent exposes the OS UI-change notification stream as an
// abstract event source. The engine subscribes once at startup; every
// delivered notification is a hint that the caret may have moved.
package winevent

// Class is one registrable family of UI events, expressed as an inclusive
// range of OS event codes. Each class is registered independently, so a
// failed registration disables only that class.
type Class struct {
	Name string
	Min  uint32
	Max  uint32
}

const (
	eventSystemForeground      = 0x0003
	eventSystemMoveSizeStart   = 0x000A
	eventSystemMinimizeEnd     = 0x0017
	eventObjectCreate          = 0x8000
	eventObjectContentScrolled = 0x8015
)

// Classes are the three event families the engine observes: foreground
// switches, window state changes (move/resize boundaries, switch start/end,
// minimize/restore), and object state changes (create/destroy, show/hide,
// focus, value change, location change, scrolling).
var Classes = []Class{
	{Name: "foreground", Min: eventSystemForeground, Max: eventSystemForeground},
	{Name: "window-state", Min: eventSystemMoveSizeStart, Max: eventSystemMinimizeEnd},
	{Name: "object-state", Min: eventObjectCreate, Max: eventObjectContentScrolled},
}

// Source delivers UI-change notifications to a callback.
type Source interface {
	// Subscribe registers every event class and begins invoking cb for each
	// delivered notification. It returns the number of classes that
	// registered successfully; zero means no notifications will ever arrive
	// and the caller must rely on timer-driven sampling alone.
	Subscribe(cb func()) (int, error)

	// Unsubscribe releases every live registration and stops delivery.
	// Safe to call more than once.
	Unsubscribe()
}
