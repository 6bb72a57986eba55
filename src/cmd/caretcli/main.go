// Command caretcli runs one caret query and prints the result, for
// diagnosing tracker behavior without the resident process. With --state it
// prints the persisted state file instead, which works on any platform.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"caret-tracker/src/caret"
	"caret-tracker/src/config"
	"caret-tracker/src/statefile"
	"caret-tracker/src/wininfo"
)

type cliOptions struct {
	jsonOutput bool
	verbose    bool
	fromState  bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"caretcli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "caretcli",
		Short:         "Query the text caret position once",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.fromState {
				return runStateQuery(*opts, cmd.OutOrStdout())
			}
			return runLiveQuery(*opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the sample as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().BoolVar(&opts.fromState, "state", false, "Print the persisted state file instead of sampling")

	return cmd
}

// normalizeLegacyArgs maps legacy single-dash long flags to the double-dash
// forms cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		switch {
		case arg == "-json":
			normalized[i] = "--json"
		case strings.HasPrefix(arg, "-json="):
			normalized[i] = "--json=" + arg[len("-json="):]
		case arg == "-state":
			normalized[i] = "--state"
		case strings.HasPrefix(arg, "-state="):
			normalized[i] = "--state=" + arg[len("-state="):]
		case arg == "-verbose":
			normalized[i] = "--verbose"
		case strings.HasPrefix(arg, "-verbose="):
			normalized[i] = "--verbose=" + arg[len("-verbose="):]
		}
	}

	return normalized
}

// setupLogging keeps stdout clean: package logs go to stderr in verbose
// mode and are discarded otherwise.
func setupLogging(verbose bool) {
	if verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
}

// runLiveQuery performs one locate and resolve pass against the desktop.
func runLiveQuery(opts cliOptions, out io.Writer) error {
	setupLogging(opts.verbose)

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Querying the caret\n")
	}

	loc, ok := caret.NewLocator().Locate()
	if !ok {
		return fmt.Errorf("no caret found (the foreground window is not showing one)")
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Caret at (%d,%d), resolving window %#x\n", loc.X, loc.Y, loc.Window)
	}

	title, proc := wininfo.NewResolver().Resolve(loc.Window)
	sample := caret.Sample{
		X:           loc.X,
		Y:           loc.Y,
		Timestamp:   time.Now().UTC(),
		WindowTitle: title,
		ProcessName: proc,
	}
	return printSample(sample, opts.jsonOutput, out)
}

// runStateQuery prints the sample last persisted by the resident tracker.
func runStateQuery(opts cliOptions, out io.Writer) error {
	setupLogging(opts.verbose)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Reading state file %s\n", cfg.StateFile)
	}

	sample, err := statefile.New(cfg.StateFile).Load()
	if err != nil {
		return err
	}
	return printSample(sample, opts.jsonOutput, out)
}

func printSample(sample caret.Sample, jsonOutput bool, out io.Writer) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sample)
	}
	_, err := fmt.Fprintln(out, sample.String())
	return err
}
