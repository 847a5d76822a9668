package ra

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Arena Creation Utilities
// ============================================================================

// newTestArena creates an arena and deletes it when the test ends. Tests that
// delete the arena themselves are fine; the cleanup ignores ErrClosed.
func newTestArena(t testing.TB, cfg Config) *Arena {
	t.Helper()

	if cfg.Name == "" {
		cfg.Name = t.Name()
	}
	a, err := New(cfg)
	require.NoError(t, err, "failed to create test arena")

	t.Cleanup(func() {
		if err := a.Delete(); err != nil && !errors.Is(err, ErrClosed) && !t.Failed() {
			t.Logf("arena cleanup: %v", err)
		}
	})
	return a
}

// newCaptureLogger returns a debug-level logger writing text into a buffer.
func newCaptureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// requireInvariants fails the test if the arena structure is inconsistent.
func requireInvariants(t testing.TB, a *Arena) {
	t.Helper()
	require.NoError(t, a.CheckInvariants())
}

// mustAlloc allocates and fails the test on error.
func mustAlloc(t testing.TB, a *Arena, size uint64, flags Flags, align uint64) Allocation {
	t.Helper()
	res, err := a.Alloc(size, flags, align)
	require.NoError(t, err, "Alloc(%#x, %#x, %#x)", size, flags, align)
	return res
}

// segmentsOf returns the arena segments, failing the test on error.
func segmentsOf(t testing.TB, a *Arena) []Segment {
	t.Helper()
	segs, err := a.Segments()
	require.NoError(t, err)
	return segs
}

// freeByFlags sums free capacity per flag class.
func freeByFlags(t testing.TB, a *Arena) map[Flags]uint64 {
	t.Helper()
	out := make(map[Flags]uint64)
	for _, s := range segmentsOf(t, a) {
		if s.Kind == KindFree {
			out[s.Flags] += s.Size
		}
	}
	return out
}

// ============================================================================
// Span Source Fakes
// ============================================================================

// importCall records one Import invocation.
type importCall struct {
	size  uint64
	flags Flags
}

// scriptedSource returns queued spans in order and records every call.
// With an empty queue it fails the import.
type scriptedSource struct {
	mu      sync.Mutex
	queue   []Span
	err     error
	imports []importCall
	exports []Span
}

func (s *scriptedSource) Import(size uint64, flags Flags) (Span, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.imports = append(s.imports, importCall{size: size, flags: flags})
	if s.err != nil {
		return Span{}, s.err
	}
	if len(s.queue) == 0 {
		return Span{}, errors.New("scripted source: queue empty")
	}
	span := s.queue[0]
	s.queue = s.queue[1:]
	return span, nil
}

func (s *scriptedSource) Export(span Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, span)
}

// infiniteSource hands out exactly the requested size at increasing,
// widely spaced bases. Handles are sequence numbers.
type infiniteSource struct {
	mu      sync.Mutex
	next    uint64
	stride  uint64
	seq     int
	live    map[uint64]Span
	exports []Span
}

func newInfiniteSource(base, stride uint64) *infiniteSource {
	return &infiniteSource{next: base, stride: stride, live: make(map[uint64]Span)}
}

func (s *infiniteSource) Import(size uint64, _ Flags) (Span, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	span := Span{Base: s.next, Size: size, Handle: s.seq}
	step := s.stride
	for step < size {
		step += s.stride
	}
	s.next += step
	s.live[span.Base] = span
	return span, nil
}

func (s *infiniteSource) Export(span Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, span.Base)
	s.exports = append(s.exports, span)
}

func (s *infiniteSource) outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
