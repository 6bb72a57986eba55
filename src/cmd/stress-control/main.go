// Command stress-control hammers the resident's control endpoint with
// concurrent probes, to verify liveness answers and stop idempotence under
// bursts.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"caret-tracker/src/control"
)

type stressOptions struct {
	n        int
	mode     string
	deadline time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-control",
		Short:         "Stress test the tracker control endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of concurrent probes")
	cmd.Flags().StringVar(&opts.mode, "mode", "ping", "ping|stop: liveness probes or stop requests")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-probe timeout")

	return cmd
}

func runWithOptions(opts stressOptions) error {
	if opts.mode != "ping" && opts.mode != "stop" {
		return fmt.Errorf("unknown mode %q (want ping or stop)", opts.mode)
	}

	var wg sync.WaitGroup
	var okCount int32
	var missCount int32
	var errCount int32

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			switch opts.mode {
			case "ping":
				if control.Detect(ctx) {
					atomic.AddInt32(&okCount, 1)
				} else {
					atomic.AddInt32(&missCount, 1)
				}
			case "stop":
				if err := control.RequestStop(ctx); err != nil {
					atomic.AddInt32(&errCount, 1)
				} else {
					atomic.AddInt32(&okCount, 1)
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	fmt.Fprintf(os.Stdout, "launched=%d ok=%d miss=%d err=%d elapsed=%s\n", opts.n, okCount, missCount, errCount, elapsed)
	return nil
}
