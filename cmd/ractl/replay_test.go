package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joshuapare/rangekit/internal/trace"
)

const heapTrace = `# two objects, one freed
add 0x1000 0x1000
a = alloc 0x100
b = alloc 0x40 0 0x100
free a
check
`

func defaultReplayOptions() replayOptions {
	return replayOptions{
		name:        "trace",
		source:      "none",
		bumpBase:    1 << 32,
		bumpLimit:   1 << 40,
		granularity: 4096,
	}
}

func TestReplayCommand(t *testing.T) {
	tests := []struct {
		name           string
		trace          string
		opts           func(*replayOptions)
		json           bool
		wantErr        bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "text map",
			trace:       heapTrace,
			wantContain: []string{`arena "trace"`, "0x1100", "live", "free", "allocs 2"},
		},
		{
			name:        "json map",
			trace:       heapTrace,
			json:        true,
			wantContain: []string{`"name":"trace"`, `"kind":"live"`},
		},
		{
			name:           "live only",
			trace:          heapTrace,
			opts:           func(o *replayOptions) { o.liveOnly = true },
			wantContain:    []string{"0x1100"},
			wantNotContain: []string{"free  "},
		},
		{
			name:  "bump source",
			trace: "x = alloc 100\ny = alloc 100\nfree x\n",
			opts: func(o *replayOptions) {
				o.source = "bump"
				o.bumpBase = 0x10000
			},
			wantContain: []string{"0x10064", "span-start", "imports 1"},
		},
		{
			name:           "bump source without markers",
			trace:          "x = alloc 100\n",
			opts:           func(o *replayOptions) { o.source = "bump"; o.noMarkers = true },
			wantNotContain: []string{"span-start"},
		},
		{
			name:        "native span from flags",
			trace:       "x = alloc 16\n",
			opts:        func(o *replayOptions) { o.base = 0x4000; o.size = 0x100; o.quantumLog2 = 4 },
			wantContain: []string{"0x4000", "quantum 16"},
		},
		{
			name:        "unexpected failure still prints the map",
			trace:       "add 0 16\nalloc 32\n",
			wantErr:     true,
			wantContain: []string{`arena "trace"`},
		},
		{
			name:    "unknown source",
			trace:   heapTrace,
			opts:    func(o *replayOptions) { o.source = "disk" },
			wantErr: true,
		},
		{
			name:    "syntax error",
			trace:   "allocate 1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setGlobals(t, tt.json, false)
			opts := defaultReplayOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}

			var buf bytes.Buffer
			err := runReplay(&buf, writeTrace(t, tt.trace), opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("runReplay() error = %v, wantErr %v", err, tt.wantErr)
			}

			output := buf.String()
			if tt.json && !tt.wantErr {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestReplayCommand_UnexpectedResult(t *testing.T) {
	setGlobals(t, false, true)

	err := runReplay(&bytes.Buffer{}, writeTrace(t, "add 0 16\n! alloc 8\n"), defaultReplayOptions())
	if !errors.Is(err, trace.ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected, got %v", err)
	}
}

func TestReplayCommand_Quiet(t *testing.T) {
	setGlobals(t, false, true)

	var buf bytes.Buffer
	if err := runReplay(&buf, writeTrace(t, heapTrace), defaultReplayOptions()); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("quiet replay wrote output: %s", buf.String())
	}
}

func TestReplayCommand_MissingFile(t *testing.T) {
	setGlobals(t, false, true)

	if err := runReplay(&bytes.Buffer{}, "does-not-exist.trace", defaultReplayOptions()); err == nil {
		t.Fatal("expected error for missing trace file")
	}
}
