package ra

import (
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/rangekit/internal/logger"
)

// maxQuantumLog2 bounds Config.QuantumLog2 so the quantum fits in a uint64.
const maxQuantumLog2 = 63

// Config describes a new arena.
type Config struct {
	// Name identifies the arena in logs, errors and dumps.
	Name string

	// Base and Size describe an optional initial native span. Size 0 means the
	// arena starts empty. The span is never returned through Source.Export.
	Base uint64
	Size uint64

	// Flags and Handle are attached to the initial span.
	Flags  Flags
	Handle Handle

	// QuantumLog2 sets the allocation granularity to 1<<QuantumLog2. Every
	// allocated size is rounded up to a multiple of it.
	QuantumLog2 uint

	// Source provides more resource when the arena is exhausted. nil makes the
	// arena a fixed-capacity pool.
	Source SpanSource

	// Logger receives diagnostics. nil uses the process-wide logger, looked up
	// on every log call so that a later logger.Init takes effect.
	Logger *slog.Logger

	// MaxTags bounds the number of boundary tags the arena may hold.
	// 0 or a negative value means unlimited.
	MaxTags int
}

// Arena manages allocation of integer ranges using boundary tags, power-of-two
// free buckets and on-demand span import.
//
// All methods are safe for concurrent use; each one holds the arena lock for
// its whole duration, including calls into the SpanSource.
type Arena struct {
	mu sync.Mutex

	name    string
	quantum uint64
	source  SpanSource
	cfgLog  *slog.Logger // Config.Logger with the arena attribute, or nil
	closed  bool

	tags       tagTable
	head, tail tagIndex
	buckets    [numBuckets]tagIndex

	// live maps the base of every live segment to its tag.
	live map[uint64]tagIndex

	stats Stats
}

// New creates an arena, optionally seeded with one native free span.
func New(cfg Config) (*Arena, error) {
	if cfg.QuantumLog2 > maxQuantumLog2 {
		return nil, errors.Wrapf(ErrInvalidParams, "quantum log2 %d exceeds %d", cfg.QuantumLog2, maxQuantumLog2)
	}

	a := &Arena{
		name:    cfg.Name,
		quantum: uint64(1) << cfg.QuantumLog2,
		source:  cfg.Source,
		tags:    newTagTable(cfg.MaxTags),
		head:    nilTag,
		tail:    nilTag,
		live:    make(map[uint64]tagIndex),
	}
	for i := range a.buckets {
		a.buckets[i] = nilTag
	}
	if cfg.Logger != nil {
		a.cfgLog = cfg.Logger.With("arena", cfg.Name)
	}

	if cfg.Size > 0 {
		if err := a.addNative(cfg.Base, cfg.Size, cfg.Flags, cfg.Handle); err != nil {
			return nil, err
		}
	}

	a.log().Debug("arena created",
		"quantum", a.quantum,
		"base", cfg.Base,
		"size", cfg.Size,
		"import", a.source != nil)
	return a, nil
}

// log returns the arena logger.
func (a *Arena) log() *slog.Logger {
	if a.cfgLog != nil {
		return a.cfgLog
	}
	return logger.L.With("arena", a.name)
}

// Name returns the arena name.
func (a *Arena) Name() string {
	if a == nil {
		return ""
	}
	return a.name
}

// Quantum returns the allocation granularity.
func (a *Arena) Quantum() uint64 {
	if a == nil {
		return 0
	}
	return a.quantum
}

// Add seeds the arena with a native free span [base, base+size). The size is
// rounded up to the quantum. The range must not overlap any existing segment;
// an overlap with the neighbours found by the ordered insert is reported as
// ErrOverlap.
func (a *Arena) Add(base, size uint64, flags Flags) error {
	if err := a.lock(); err != nil {
		return err
	}
	defer a.mu.Unlock()

	return a.addNative(base, size, flags, nil)
}

func (a *Arena) addNative(base, size uint64, flags Flags, h Handle) error {
	rounded, ok := alignUp(size, a.quantum)
	if size == 0 || !ok || base+rounded < base {
		return errors.Wrapf(ErrInvalidParams, "arena %q: add [%#x,+%#x)", a.name, base, size)
	}
	size = rounded

	prev := a.findInsertPoint(base)
	next := a.head
	if prev != nilTag {
		p := a.tags.get(prev)
		if p.end() > base {
			return errors.Wrapf(errOverlap(), "arena %q: add [%#x,%#x) overlaps [%#x,%#x)",
				a.name, base, base+size, p.base, p.end())
		}
		next = p.next
	}
	if next != nilTag {
		n := a.tags.get(next)
		if n.base < base+size {
			return errors.Wrapf(errOverlap(), "arena %q: add [%#x,%#x) overlaps segment at %#x",
				a.name, base, base+size, n.base)
		}
	}

	if !a.tags.canAlloc(1) {
		return errors.Wrapf(ErrOutOfMemory, "arena %q: add", a.name)
	}

	i := a.newTag(base, size, KindFree, flags, h)
	a.insertAfter(prev, i)
	a.freeListInsert(i)

	a.stats.TotalResource += size
	a.stats.FreeResource += size
	a.stats.FreeSegments++
	return nil
}

// Delete tears the arena down. Every segment should be free by now; live
// segments are a caller bug. They are logged at error level, leaked (never
// exported) and reported through an error matching ErrResourceStillLive.
// The arena is unusable afterwards either way.
func (a *Arena) Delete() error {
	if err := a.lock(); err != nil {
		return err
	}
	defer a.mu.Unlock()

	var leaked int
	var leakedBytes uint64
	for i := a.head; i != nilTag; {
		t := a.tags.get(i)
		if t.kind == KindLive {
			leaked++
			leakedBytes += t.size
			a.log().Error("arena deleted with live allocation",
				"base", t.base,
				"size", t.size,
				"flags", t.flags)
		}
		i = t.next
	}

	a.closed = true
	a.tags.reset()
	a.head, a.tail = nilTag, nilTag
	for b := range a.buckets {
		a.buckets[b] = nilTag
	}
	a.live = nil

	if leaked > 0 {
		return errors.Wrapf(ErrResourceStillLive, "arena %q: %d live segments (%d integers) leaked",
			a.name, leaked, leakedBytes)
	}
	a.log().Debug("arena deleted")
	return nil
}

// lock acquires the arena lock, refusing nil and deleted arenas. On error the
// lock is not held.
func (a *Arena) lock() error {
	if a == nil {
		return errors.Wrap(ErrInvalidParams, "nil arena")
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errors.Wrapf(ErrClosed, "arena %q", a.name)
	}
	return nil
}
