// Package notification surfaces fatal startup problems to the user.
package notification

// ShowBlockingError displays a modal error dialog and returns after the
// user dismisses it. Used for failures that happen before the tray or the
// log file is reachable.
func ShowBlockingError(title, message string) {
	showBlockingError(title, message)
}
