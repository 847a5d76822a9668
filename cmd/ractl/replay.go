package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/rangekit/internal/trace"
	"github.com/joshuapare/rangekit/ra"
	"github.com/joshuapare/rangekit/ra/printer"
	"github.com/joshuapare/rangekit/ra/spansource"
)

// replayOptions holds the replay command flags.
type replayOptions struct {
	name        string
	quantumLog2 uint
	base        uint64
	size        uint64
	source      string
	bumpBase    uint64
	bumpLimit   uint64
	granularity uint64
	liveOnly    bool
	noMarkers   bool
}

var replayOpts replayOptions

func init() {
	cmd := newReplayCmd()
	f := cmd.Flags()
	f.StringVar(&replayOpts.name, "name", "trace", "Arena name")
	f.UintVar(&replayOpts.quantumLog2, "quantum", 0, "Allocation quantum as a power of two")
	f.Uint64Var(&replayOpts.base, "base", 0, "Base of the initial native span")
	f.Uint64Var(&replayOpts.size, "size", 0, "Size of the initial native span (0 = none)")
	f.StringVar(&replayOpts.source, "source", "none", "Span source: none, bump or reserve")
	f.Uint64Var(&replayOpts.bumpBase, "bump-base", 1<<32, "First integer handed out by the bump source")
	f.Uint64Var(&replayOpts.bumpLimit, "bump-limit", 1<<40, "Limit of the bump source")
	f.Uint64Var(&replayOpts.granularity, "granularity", 4096, "Import granularity of the bump source")
	f.BoolVar(&replayOpts.liveOnly, "live-only", false, "Only print live segments")
	f.BoolVar(&replayOpts.noMarkers, "no-markers", false, "Hide span markers")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay an allocation trace and print the arena map",
		Long: `The replay command parses an allocation trace, runs it against a fresh
arena and prints the final segment map.

Trace format (one operation per line, '#' starts a comment):
  add <base> <size> [flags]
  [label =] alloc <size> [flags [align]]
  free <label|base>
  check
A leading '!' marks a step expected to fail.

Example:
  ractl replay heap.trace --size 0x100000 --quantum 12
  ractl replay heap.trace --source bump --granularity 65536 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(os.Stdout, args[0], replayOpts)
		},
	}
	return cmd
}

func newSource(opts replayOptions) (ra.SpanSource, error) {
	switch opts.source {
	case "none", "":
		return nil, nil
	case "bump":
		return spansource.NewBump(opts.bumpBase, opts.bumpLimit, opts.granularity)
	case "reserve":
		return spansource.NewAddressSpace(), nil
	default:
		return nil, fmt.Errorf("unknown source %q (must be none, bump or reserve)", opts.source)
	}
}

func runReplay(w io.Writer, path string, opts replayOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	steps, err := trace.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse trace: %w", err)
	}
	printVerbose("Parsed %d steps from %s\n", len(steps), path)

	src, err := newSource(opts)
	if err != nil {
		return err
	}

	cfg := ra.Config{
		Name:        opts.name,
		Base:        opts.base,
		Size:        opts.size,
		QuantumLog2: opts.quantumLog2,
		Source:      src,
	}
	arena, err := ra.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create arena: %w", err)
	}

	results, runErr := trace.Run(arena, steps)
	for _, r := range results {
		switch {
		case r.Err != nil:
			printVerbose("%4d %-5s -> %v\n", r.Step.Line, r.Step.Op, r.Err)
		case r.Step.Op == trace.OpAlloc:
			printVerbose("%4d alloc -> [%#x,%#x)\n", r.Step.Line, r.Alloc.Base, r.Alloc.End())
		default:
			printVerbose("%4d %-5s ok\n", r.Step.Line, r.Step.Op)
		}
	}

	if !quiet {
		popts := printer.DefaultOptions()
		if jsonOut {
			popts.Format = printer.FormatJSON
		}
		popts.LiveOnly = opts.liveOnly
		popts.ShowMarkers = !opts.noMarkers
		if err := printer.New(w, popts).PrintArena(arena); err != nil {
			return fmt.Errorf("failed to print arena: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("replay stopped: %w", runErr)
	}
	printInfo("%d steps replayed\n", len(results))
	return nil
}
