//go:build !windows

package caret

import (
	"log"
	"sync"
)

var stubNotice sync.Once

type platformLocator struct{}

// Locate reports no caret on platforms without caret introspection.
func (platformLocator) Locate() (Location, bool) {
	stubNotice.Do(func() {
		log.Printf("Locator: caret introspection not supported on this platform")
	})
	return Location{}, false
}
