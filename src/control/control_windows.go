//go:build windows

package control

import (
	"bufio"
	"context"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	winio "github.com/Microsoft/go-winio"
	"github.com/pkg/errors"
)

const defaultPipeName = `\\.\pipe\caret-tracker-control`

func endpoint() string {
	if v := os.Getenv("CARET_TRACKER_PIPE"); v != "" {
		return v
	}
	return defaultPipeName
}

// pipeServer answers control requests on the named pipe.
type pipeServer struct {
	onStop func()

	mu  sync.Mutex
	lis net.Listener
}

func newServer(onStop func()) Server { return &pipeServer{onStop: onStop} }

func (s *pipeServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	lis, err := winio.ListenPipe(endpoint(), nil)
	if err != nil {
		return errors.Wrapf(err, "binding control pipe %s", endpoint())
	}
	s.lis = lis
	log.Printf("control: listening on %s", endpoint())
	go s.serve(lis)
	return nil
}

func (s *pipeServer) serve(lis net.Listener) {
	for {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *pipeServer) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	w := bufio.NewWriter(conn)
	switch line {
	case pingRequest:
		log.Printf("control: PING -> PONG")
		_, _ = w.WriteString(pongResponse)
		_ = w.Flush()
	case stopRequest:
		log.Printf("control: STOP request received")
		_, _ = w.WriteString(okResponse)
		_ = w.Flush()
		if s.onStop != nil {
			s.onStop()
		}
	default:
		log.Printf("control: unrecognized request %q", strings.TrimSpace(line))
	}
}

func (s *pipeServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	err := s.lis.Close()
	s.lis = nil
	return err
}

// dialTimeout derives a dial deadline from ctx, with a floor default.
func dialTimeout(ctx context.Context, fallback time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return fallback
}

func detect(ctx context.Context) bool {
	timeout := dialTimeout(ctx, 300*time.Millisecond)
	conn, err := winio.DialPipe(endpoint(), &timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(pingRequest); err != nil {
		return false
	}
	if err := w.Flush(); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}

func requestStop(ctx context.Context) error {
	timeout := dialTimeout(ctx, 2*time.Second)
	conn, err := winio.DialPipe(endpoint(), &timeout)
	if err != nil {
		return errors.Wrap(err, "no resident instance reachable")
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(stopRequest); err != nil {
		return errors.Wrap(err, "sending stop request")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "sending stop request")
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return errors.Wrap(err, "reading stop acknowledgement")
	}
	if resp != okResponse {
		return errors.Errorf("unexpected stop response %q", strings.TrimSpace(resp))
	}
	return nil
}
