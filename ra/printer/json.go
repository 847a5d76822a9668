package printer

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/joshuapare/rangekit/ra"
)

// printJSON streams the snapshot as one JSON object. Bases and sizes are hex
// strings so that 64-bit values survive JSON number parsing.
func (p *Printer) printJSON(snap ra.Snapshot) error {
	w := jwriter.NewStreamingWriter(p.writer, 4096)

	obj := w.Object()
	obj.Name("name").String(snap.Name)
	obj.Name("quantum").String(hex(snap.Quantum))

	if p.opts.ShowStats {
		writeStats(obj.Name("stats").Object(), snap.Stats)
	}

	arr := obj.Name("segments").Array()
	for _, s := range snap.Segments {
		if !p.include(s) {
			continue
		}
		seg := arr.Object()
		seg.Name("base").String(hex(s.Base))
		seg.Name("size").String(hex(s.Size))
		seg.Name("kind").String(s.Kind.String())
		seg.Name("flags").Int(int(s.Flags))
		seg.End()
	}
	arr.End()
	obj.End()

	if err := w.Error(); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(p.writer)
	return err
}

func writeStats(obj jwriter.ObjectState, st ra.Stats) {
	obj.Name("spans").Int(st.Spans)
	obj.Name("live_segments").Int(st.LiveSegments)
	obj.Name("free_segments").Int(st.FreeSegments)
	obj.Name("total_resource").String(hex(st.TotalResource))
	obj.Name("free_resource").String(hex(st.FreeResource))
	obj.Name("allocs").Int(int(st.Allocs))
	obj.Name("failed_allocs").Int(int(st.FailedAllocs))
	obj.Name("frees").Int(int(st.Frees))
	obj.Name("imports").Int(int(st.Imports))
	obj.Name("exports").Int(int(st.Exports))
	obj.Name("import_failures").Int(int(st.ImportFailures))
	obj.Name("splits").Int(int(st.Splits))
	obj.Name("coalesces").Int(int(st.Coalesces))
	obj.End()
}

func hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}
