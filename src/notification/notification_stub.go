//go:build !windows

package notification

import "log"

// No dialog machinery off Windows; the message still reaches the log.
func showBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
}
