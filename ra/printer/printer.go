package printer

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/rangekit/ra"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs a human-readable segment table.
	FormatText Format = "text"

	// FormatJSON outputs a JSON document.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// ShowMarkers includes zero-length span markers in the segment list.
	// Default: true
	ShowMarkers bool

	// LiveOnly restricts the segment list to live segments.
	// Default: false
	LiveOnly bool

	// ShowStats appends the arena counters.
	// Default: true
	ShowStats bool

	// Language selects digit grouping for sizes and counters in text output.
	// Default: language.English
	Language language.Tag
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:      FormatText,
		ShowMarkers: true,
		LiveOnly:    false,
		ShowStats:   true,
		Language:    language.English,
	}
}

// Printer renders arena snapshots.
type Printer struct {
	opts   Options
	writer io.Writer
	num    *message.Printer
}

// New creates a new Printer writing to w.
//
// Example:
//
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	p.PrintArena(a)
func New(w io.Writer, opts Options) *Printer {
	return &Printer{
		opts:   opts,
		writer: w,
		num:    message.NewPrinter(opts.Language),
	}
}

// Print writes snap to w using opts.
func Print(w io.Writer, snap ra.Snapshot, opts Options) error {
	return New(w, opts).PrintSnapshot(snap)
}

// PrintArena snapshots a and prints it.
func (p *Printer) PrintArena(a *ra.Arena) error {
	snap, err := a.Snapshot()
	if err != nil {
		return err
	}
	return p.PrintSnapshot(snap)
}

// PrintSnapshot prints a previously captured snapshot.
func (p *Printer) PrintSnapshot(snap ra.Snapshot) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printJSON(snap)
	case FormatText:
		return p.printText(snap)
	default:
		return p.printText(snap)
	}
}

// include reports whether s passes the segment filters.
func (p *Printer) include(s ra.Segment) bool {
	if p.opts.LiveOnly {
		return s.Kind == ra.KindLive
	}
	return p.opts.ShowMarkers || !s.Kind.IsSpan()
}
