//go:build !windows

package control

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestServerMarksAndReleasesResidency(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")
	t.Setenv("CARET_TRACKER_PID_FILE", pidFile)

	srv := NewServer(nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("Expected a pid file: %v", err)
	}
	if got := string(data); got != strconv.Itoa(os.Getpid()) {
		t.Errorf("Expected our pid in the file, got %q", got)
	}
	if !Detect(context.Background()) {
		t.Error("Expected Detect to see the resident instance")
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("Expected the pid file to be removed on Close")
	}
	if Detect(context.Background()) {
		t.Error("Expected Detect to report no resident after Close")
	}
}

func TestDetectCleansStalePidFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")
	t.Setenv("CARET_TRACKER_PID_FILE", pidFile)

	// A pid far beyond any live process.
	if err := os.WriteFile(pidFile, []byte("1073741824"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if Detect(context.Background()) {
		t.Error("Expected Detect to reject a dead pid")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("Expected the stale pid file to be cleaned up")
	}
}

func TestDetectRejectsGarbagePidFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tracker.pid")
	t.Setenv("CARET_TRACKER_PID_FILE", pidFile)

	if err := os.WriteFile(pidFile, []byte("not-a-pid"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if Detect(context.Background()) {
		t.Error("Expected Detect to reject unparseable pid contents")
	}
}

func TestRequestStopWithoutResident(t *testing.T) {
	t.Setenv("CARET_TRACKER_PID_FILE", filepath.Join(t.TempDir(), "tracker.pid"))

	if err := RequestStop(context.Background()); err == nil {
		t.Error("Expected an error when no resident instance exists")
	}
}

func TestEndpointOverride(t *testing.T) {
	t.Setenv("CARET_TRACKER_PID_FILE", "/tmp/custom.pid")
	if got := Endpoint(); got != "/tmp/custom.pid" {
		t.Errorf("Expected the override path, got %q", got)
	}
}
