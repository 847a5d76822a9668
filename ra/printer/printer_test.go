package printer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/joshuapare/rangekit/ra"
)

// testSnapshot builds a small arena with a native range and one imported span.
func testSnapshot(t *testing.T) ra.Snapshot {
	t.Helper()

	src := ra.SourceFuncs{
		ImportFunc: func(_ ra.Handle, size uint64, _ ra.Flags) (ra.Span, error) {
			return ra.Span{Base: 0x100000, Size: 0x2000}, nil
		},
	}
	a, err := ra.New(ra.Config{Name: "dump", Base: 0x1000, Size: 0x1000, QuantumLog2: 4, Source: src})
	require.NoError(t, err)

	_, err = a.Alloc(0x1000, 0, 0)
	require.NoError(t, err)
	_, err = a.Alloc(0x100, 2, 0)
	require.NoError(t, err)

	snap, err := a.Snapshot()
	require.NoError(t, err)
	return snap
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, DefaultOptions())
	require.NoError(t, p.PrintSnapshot(testSnapshot(t)))

	out := buf.String()
	assert.Contains(t, out, `arena "dump" quantum 16`)
	assert.Contains(t, out, "BASE")
	assert.Contains(t, out, "0x1000")
	assert.Contains(t, out, "4,096", "sizes are digit-grouped")
	assert.Contains(t, out, "span-start")
	assert.Contains(t, out, "span-end")
	assert.Contains(t, out, "live 2 segments (4,352)")
	assert.Contains(t, out, "imports 1 (failed 0)")
	assert.NotContains(t, out, "0x100,000", "hex columns are not grouped")
}

func TestPrintText_Filters(t *testing.T) {
	snap := testSnapshot(t)

	t.Run("no markers", func(t *testing.T) {
		var buf bytes.Buffer
		opts := DefaultOptions()
		opts.ShowMarkers = false
		require.NoError(t, New(&buf, opts).PrintSnapshot(snap))
		assert.NotContains(t, buf.String(), "span-")
		assert.Contains(t, buf.String(), "free")
	})

	t.Run("live only", func(t *testing.T) {
		var buf bytes.Buffer
		opts := DefaultOptions()
		opts.LiveOnly = true
		opts.ShowStats = false
		require.NoError(t, New(&buf, opts).PrintSnapshot(snap))

		out := buf.String()
		assert.Equal(t, 2, strings.Count(out, "live"))
		assert.NotContains(t, out, "free")
		assert.NotContains(t, out, "allocs")
	})
}

func TestPrintText_Language(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Language = language.German
	require.NoError(t, New(&buf, opts).PrintSnapshot(testSnapshot(t)))
	assert.Contains(t, buf.String(), "4.096")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Format = FormatJSON
	require.NoError(t, New(&buf, opts).PrintSnapshot(testSnapshot(t)))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	var doc struct {
		Name     string `json:"name"`
		Quantum  string `json:"quantum"`
		Stats    struct {
			Spans         int    `json:"spans"`
			LiveSegments  int    `json:"live_segments"`
			TotalResource string `json:"total_resource"`
			Allocs        int    `json:"allocs"`
			Imports       int    `json:"imports"`
		} `json:"stats"`
		Segments []struct {
			Base  string `json:"base"`
			Size  string `json:"size"`
			Kind  string `json:"kind"`
			Flags int    `json:"flags"`
		} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "dump", doc.Name)
	assert.Equal(t, "0x10", doc.Quantum)
	assert.Equal(t, 1, doc.Stats.Spans)
	assert.Equal(t, 2, doc.Stats.LiveSegments)
	assert.Equal(t, "0x3000", doc.Stats.TotalResource)
	assert.Equal(t, 2, doc.Stats.Allocs)
	assert.Equal(t, 1, doc.Stats.Imports)

	require.Len(t, doc.Segments, 5)
	assert.Equal(t, "0x1000", doc.Segments[0].Base)
	assert.Equal(t, "live", doc.Segments[0].Kind)
	assert.Equal(t, "span-start", doc.Segments[1].Kind)
	assert.Equal(t, "0x100000", doc.Segments[2].Base)
	assert.Equal(t, "0x100", doc.Segments[2].Size)
	assert.Equal(t, 2, doc.Segments[2].Flags)
	assert.Equal(t, "free", doc.Segments[3].Kind)
	assert.Equal(t, "span-end", doc.Segments[4].Kind)
}

func TestPrintJSON_NoStats(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Format = FormatJSON
	opts.ShowStats = false
	require.NoError(t, New(&buf, opts).PrintSnapshot(testSnapshot(t)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.NotContains(t, doc, "stats")
	assert.Contains(t, doc, "segments")
}

func TestPrintArena_Deleted(t *testing.T) {
	a, err := ra.New(ra.Config{Name: "gone"})
	require.NoError(t, err)
	require.NoError(t, a.Delete())

	err = New(&bytes.Buffer{}, DefaultOptions()).PrintArena(a)
	require.ErrorIs(t, err, ra.ErrClosed)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, testSnapshot(t), DefaultOptions()))
	assert.Contains(t, buf.String(), `arena "dump"`)
}
