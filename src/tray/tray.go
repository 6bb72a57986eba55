// Package tray shows the resident tracker in the notification area.
package tray

// Config describes the tray icon contents and menu actions.
type Config struct {
	Title   string
	Tooltip string

	// OnSample runs when the user picks "Sample Now".
	OnSample func()
	// OnExit runs after the icon is gone, once per icon.
	OnExit func()
}

// Icon is a running tray icon instance.
type Icon interface {
	// Run serves the icon until Destroy is called. Blocks.
	Run()
	// Destroy removes the icon and unblocks Run. Safe to call twice.
	Destroy()
}

// New returns the platform tray implementation.
func New(cfg Config) (Icon, error) { return newIcon(cfg) }

// UpdateTooltip replaces the icon hover text. A no-op until the icon is
// ready, and after it is destroyed.
func UpdateTooltip(text string) { updateTooltip(text) }
