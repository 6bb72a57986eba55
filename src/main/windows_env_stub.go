//go:build !windows

package main

// DPI awareness and monitor metrics are Windows concerns.
func enableDPIAwareness() {}

func logMonitorConfiguration() {}
