// Command caret-tracker runs the resident caret position tracker: it samples
// the text caret's screen position on window-event notifications (with a
// timer as safety net) and persists every change to a single state file.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"caret-tracker/src/caret"
	"caret-tracker/src/config"
	"caret-tracker/src/control"
	"caret-tracker/src/hotkey"
	"caret-tracker/src/lifecycle"
	"caret-tracker/src/logutil"
	"caret-tracker/src/notification"
	"caret-tracker/src/scheduler"
	"caret-tracker/src/statefile"
	"caret-tracker/src/tray"
	"caret-tracker/src/winevent"
	"caret-tracker/src/wininfo"
)

type mainOptions struct {
	stop   bool
	status bool
}

// controlOps is the control-endpoint surface used by the flag handlers,
// abstracted for testing.
type controlOps interface {
	Detect(ctx context.Context) bool
	RequestStop(ctx context.Context) error
	Endpoint() string
}

type liveControl struct{}

func (liveControl) Detect(ctx context.Context) bool       { return control.Detect(ctx) }
func (liveControl) RequestStop(ctx context.Context) error { return control.RequestStop(ctx) }
func (liveControl) Endpoint() string                      { return control.Endpoint() }

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "caret-tracker",
		Short:         "Track the text caret position into a state file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.stop:
				os.Exit(handleStopRequest(liveControl{}, cmd.OutOrStdout()))
			case opts.status:
				os.Exit(handleStatusRequest(liveControl{}, cmd.OutOrStdout()))
			}
			return runResident()
		},
	}
	cmd.Flags().BoolVar(&opts.stop, "stop", false, "Ask a running instance to shut down")
	cmd.Flags().BoolVar(&opts.status, "status", false, "Report whether an instance is running")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-stop) to the
// double-dash form cobra expects. Short flags and values pass through
// unchanged.
func normalizeLegacyArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		arg := out[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name := arg[1:]
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name = name[:eq]
		}
		if len(name) > 1 {
			out[i] = "-" + arg
		}
	}
	return out
}

// handleStopRequest asks a resident instance to shut down and returns the
// process exit code.
func handleStopRequest(ops controlOps, out io.Writer) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ops.RequestStop(ctx); err != nil {
		fmt.Fprintf(out, "stop failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "stop requested")
	return 0
}

// handleStatusRequest reports residency; exit code 0 means an instance is
// running.
func handleStatusRequest(ops controlOps, out io.Writer) int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if ops.Detect(ctx) {
		fmt.Fprintf(out, "caret-tracker is running (%s)\n", ops.Endpoint())
		return 0
	}
	fmt.Fprintln(out, "caret-tracker is not running")
	return 1
}

func runResident() error {
	enableDPIAwareness()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logutil.Setup(cfg.EnableFileLogging, cfg.DebugMode)
	defer logutil.Close()

	// Pre-flight: refuse to run next to an existing resident.
	preflight, cancelPreflight := context.WithTimeout(context.Background(), time.Second)
	running := control.Detect(preflight)
	cancelPreflight()
	if running {
		log.Printf("Pre-flight: resident already answering on %s", control.Endpoint())
		fmt.Printf("caret-tracker is already running (%s)\n", control.Endpoint())
		os.Exit(1)
	}
	log.Printf("Pre-flight: no resident detected, claiming %s", control.Endpoint())

	logMonitorConfiguration()

	store := statefile.New(cfg.StateFile)
	sched, err := scheduler.New(scheduler.Options{
		Interval: cfg.SamplingInterval,
		Locator:  caret.NewLocator(),
		Resolver: wininfo.NewResolver(),
		Sink:     store,
	})
	if err != nil {
		return err
	}
	mgr, err := lifecycle.New(lifecycle.Options{
		Sampler:   sched,
		Source:    winevent.NewSource(),
		OnStopped: []func(){logutil.Close},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Claim the control endpoint before the engine starts so a racing
	// second instance sees us immediately.
	ctrl := control.NewServer(cancel)
	if err := ctrl.Start(); err != nil {
		notification.ShowBlockingError("Caret Tracker unavailable",
			fmt.Sprintf("Could not claim the control endpoint: %v", err))
		return err
	}
	defer ctrl.Close()

	log.Printf("Caret Tracker starting")
	log.Printf("State file: %s", cfg.StateFile)
	log.Printf("Sampling interval: %v", cfg.SamplingInterval)

	if err := mgr.Start(); err != nil {
		notification.ShowBlockingError("Caret Tracker unavailable",
			fmt.Sprintf("Could not start tracking: %v", err))
		return err
	}

	if cfg.EnableTray {
		icon, trayErr := tray.New(tray.Config{
			Title:    "Caret Tracker",
			Tooltip:  trayTooltip(sched),
			OnSample: func() { sched.Trigger("manual") },
			OnExit:   cancel,
		})
		if trayErr != nil {
			log.Printf("Tray unavailable: %v", trayErr)
		} else {
			go icon.Run()
			defer icon.Destroy()
			tray.UpdateTooltip(trayTooltip(sched))
		}
	}

	if cfg.Hotkey != "" {
		hotkey.Listen(cfg.Hotkey, func() { sched.Trigger("manual") })
	}

	// SIGINT/SIGTERM request the same graceful stop as the control channel
	// and the tray Quit item.
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	<-ctx.Done()
	log.Printf("Shutdown requested")
	mgr.Stop()
	return nil
}

func trayTooltip(sched *scheduler.Scheduler) string {
	return fmt.Sprintf("Caret Tracker - %s, %v fallback", sched.Mode(), sched.Period())
}

func main() {
	// The main goroutine keeps its own OS thread so window-message work
	// never shares a queue with it.
	runtime.LockOSThread()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
