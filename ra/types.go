package ra

// Flags is a caller-defined bitmask partitioning the arena into classes.
// A free segment only satisfies requests whose flags are exactly equal.
type Flags uint32

// Handle is opaque owner data attached to an imported span. It is nil for
// native resource added through Config or Add.
type Handle = any

// Kind is the state of a boundary tag.
type Kind uint8

const (
	// KindFree marks a segment available for allocation.
	KindFree Kind = iota
	// KindLive marks a segment handed out by Alloc.
	KindLive
	// KindSpanStart is the zero-length marker opening an imported span.
	KindSpanStart
	// KindSpanEnd is the zero-length marker closing an imported span.
	KindSpanEnd
)

// IsSpan reports whether k is one of the span marker kinds.
func (k Kind) IsSpan() bool {
	return k == KindSpanStart || k == KindSpanEnd
}

func (k Kind) String() string {
	switch k {
	case KindFree:
		return "free"
	case KindLive:
		return "live"
	case KindSpanStart:
		return "span-start"
	case KindSpanEnd:
		return "span-end"
	default:
		return "unknown"
	}
}

// Allocation is the result of a successful Alloc.
type Allocation struct {
	Base   uint64 // first integer of the allocated range
	Size   uint64 // length, rounded up to the arena quantum
	Handle Handle // owner handle of the span the range came from
}

// End returns the first integer past the allocation.
func (a Allocation) End() uint64 { return a.Base + a.Size }

// Segment is a read-only view of one boundary tag, as returned by Walk and Segments.
type Segment struct {
	Base   uint64
	Size   uint64
	Kind   Kind
	Flags  Flags
	Handle Handle
}

// End returns the first integer past the segment.
func (s Segment) End() uint64 { return s.Base + s.Size }
