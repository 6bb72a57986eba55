package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"caret-tracker", "-stop", "-status"},
			out:  []string{"caret-tracker", "--stop", "--status"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"caret-tracker", "-status=true"},
			out:  []string{"caret-tracker", "--status=true"},
		},
		{
			name: "Leaves double dash flags and values unchanged",
			in:   []string{"caret-tracker", "--stop", "extra"},
			out:  []string{"caret-tracker", "--stop", "extra"},
		},
		{
			name: "Leaves short flags unchanged",
			in:   []string{"caret-tracker", "-s"},
			out:  []string{"caret-tracker", "-s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--stop", "--status"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !opts.stop {
		t.Fatal("Expected stop=true")
	}
	if !opts.status {
		t.Fatal("Expected status=true")
	}
}

type fakeControl struct {
	running bool
	stopErr error

	detects int
	stops   int
}

func (f *fakeControl) Detect(ctx context.Context) bool { f.detects++; return f.running }

func (f *fakeControl) RequestStop(ctx context.Context) error { f.stops++; return f.stopErr }

func (f *fakeControl) Endpoint() string { return "test-endpoint" }

func TestHandleStopRequest_Acknowledged(t *testing.T) {
	ops := &fakeControl{}
	var out bytes.Buffer

	if code := handleStopRequest(ops, &out); code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if ops.stops != 1 {
		t.Fatal("Expected exactly one stop request")
	}
	if !strings.Contains(out.String(), "stop requested") {
		t.Fatalf("Expected acknowledgement message, got %q", out.String())
	}
}

func TestHandleStopRequest_NoResident(t *testing.T) {
	ops := &fakeControl{stopErr: errors.New("no resident instance reachable")}
	var out bytes.Buffer

	if code := handleStopRequest(ops, &out); code != 1 {
		t.Fatalf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(out.String(), "stop failed") {
		t.Fatalf("Expected failure message, got %q", out.String())
	}
}

func TestHandleStatusRequest_Running(t *testing.T) {
	ops := &fakeControl{running: true}
	var out bytes.Buffer

	if code := handleStatusRequest(ops, &out); code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if ops.detects != 1 {
		t.Fatal("Expected exactly one detect probe")
	}
	if !strings.Contains(out.String(), "running (test-endpoint)") {
		t.Fatalf("Expected running report with endpoint, got %q", out.String())
	}
}

func TestHandleStatusRequest_NotRunning(t *testing.T) {
	ops := &fakeControl{running: false}
	var out bytes.Buffer

	if code := handleStatusRequest(ops, &out); code != 1 {
		t.Fatalf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(out.String(), "not running") {
		t.Fatalf("Expected not-running report, got %q", out.String())
	}
}
