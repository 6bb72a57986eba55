//go:build windows

package control

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"
)

func TestPipeRoundTrip(t *testing.T) {
	t.Setenv("CARET_TRACKER_PIPE", `\\.\pipe\caret-tracker-test-`+strconv.Itoa(os.Getpid()))

	stopped := make(chan struct{})
	srv := NewServer(func() { close(stopped) })
	if err := srv.Start(); err != nil {
		t.Skipf("named pipe unavailable in this environment: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if !Detect(ctx) {
		t.Fatal("Expected Detect to reach the resident pipe")
	}

	if err := RequestStop(ctx); err != nil {
		t.Fatalf("RequestStop failed: %v", err)
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the stop callback to fire")
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if Detect(ctx) {
		t.Error("Expected Detect to report no resident after Close")
	}
}

func TestDetectWithoutResident(t *testing.T) {
	t.Setenv("CARET_TRACKER_PIPE", `\\.\pipe\caret-tracker-test-none-`+strconv.Itoa(os.Getpid()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if Detect(ctx) {
		t.Error("Expected Detect to find nothing on an unbound pipe")
	}
}
