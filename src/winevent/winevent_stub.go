//go:build !windows

package winevent

import "log"

type stubSource struct{}

// NewSource returns a source that registers nothing: UI event notifications
// are unavailable off Windows, which pushes the engine into timer-only
// sampling.
func NewSource() Source { return stubSource{} }

func (stubSource) Subscribe(func()) (int, error) {
	log.Printf("WinEvent: UI event notifications not supported on this platform")
	return 0, nil
}

func (stubSource) Unsubscribe() {}
