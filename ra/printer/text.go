package printer

import (
	"fmt"

	"github.com/joshuapare/rangekit/ra"
)

// printText prints the snapshot as an aligned table.
func (p *Printer) printText(snap ra.Snapshot) error {
	w := p.writer

	if _, err := p.num.Fprintf(w, "arena %q quantum %d\n", snap.Name, snap.Quantum); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  %-18s %-18s %16s  %-10s %s\n", "BASE", "END", "SIZE", "KIND", "FLAGS"); err != nil {
		return err
	}

	for _, s := range snap.Segments {
		if !p.include(s) {
			continue
		}
		base := fmt.Sprintf("%#x", s.Base)
		end := fmt.Sprintf("%#x", s.End())
		flags := fmt.Sprintf("%#x", uint32(s.Flags))
		if _, err := p.num.Fprintf(w, "  %-18s %-18s %16d  %-10s %s\n",
			base, end, s.Size, s.Kind.String(), flags); err != nil {
			return err
		}
	}

	if !p.opts.ShowStats {
		return nil
	}

	st := snap.Stats
	_, err := p.num.Fprintf(w,
		"live %d segments (%d), free %d segments (%d), total %d, spans %d\n"+
			"allocs %d (failed %d), frees %d, imports %d (failed %d), exports %d, splits %d, coalesces %d\n",
		st.LiveSegments, st.LiveResource(), st.FreeSegments, st.FreeResource, st.TotalResource, st.Spans,
		st.Allocs, st.FailedAllocs, st.Frees, st.Imports, st.ImportFailures, st.Exports, st.Splits, st.Coalesces)
	return err
}
