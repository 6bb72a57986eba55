//go:build !windows

package control

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

func endpoint() string {
	if v := os.Getenv("CARET_TRACKER_PID_FILE"); v != "" {
		return v
	}
	return filepath.Join(os.TempDir(), "caret-tracker.pid")
}

// pidServer marks residency with a PID file. Stop requests arrive as
// SIGTERM and are handled by the process signal path, so onStop is not
// wired on this platform.
type pidServer struct {
	path string
}

func newServer(onStop func()) Server {
	_ = onStop
	return &pidServer{path: endpoint()}
}

func (s *pidServer) Start() error {
	pid := os.Getpid()
	if err := os.WriteFile(s.path, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return errors.Wrapf(err, "writing pid file %s", s.path)
	}
	log.Printf("control: pid file %s (pid %d)", s.path, pid)
	return nil
}

func (s *pidServer) Close() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing pid file %s", s.path)
	}
	return nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "reading pid file")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid pid file contents")
	}
	return pid, nil
}

func detect(ctx context.Context) bool {
	pid, err := readPID(endpoint())
	if err != nil || pid == 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if proc.Signal(syscall.Signal(0)) != nil {
		// Stale PID file from an unclean shutdown.
		_ = os.Remove(endpoint())
		return false
	}
	return true
}

func requestStop(ctx context.Context) error {
	pid, err := readPID(endpoint())
	if err != nil {
		return err
	}
	if pid == 0 {
		return errors.New("no resident instance reachable")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrap(err, "finding resident process")
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return errors.Wrap(err, "signalling resident process")
	}
	return nil
}
