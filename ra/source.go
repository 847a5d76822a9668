package ra

// Span is a contiguous range handed to an arena by its SpanSource.
type Span struct {
	Base   uint64
	Size   uint64
	Handle Handle
}

// SpanSource supplies backing resource to an arena on exhaustion and takes it
// back once every segment of an imported span is free again.
//
// Both methods are called while the arena lock is held. Implementations must
// not call back into the arena that invoked them; doing so deadlocks. Using a
// different arena (a parent address space, for example) is fine.
type SpanSource interface {
	// Import returns a span of at least size integers for the given flags.
	// A returned span smaller than size is treated as a failed import.
	Import(size uint64, flags Flags) (Span, error)

	// Export releases a span previously returned by Import. The arena cannot
	// recover from a failed export, so implementations should not fail.
	Export(span Span)
}

// SourceFuncs adapts a pair of plain functions sharing an import handle into a
// SpanSource. A nil ImportFunc makes every import fail, which turns the arena
// into a fixed-capacity pool.
type SourceFuncs struct {
	Handle     Handle
	ImportFunc func(h Handle, size uint64, flags Flags) (Span, error)
	ExportFunc func(h Handle, base uint64, owner Handle)
}

// Import calls ImportFunc with the adapter's handle.
func (s SourceFuncs) Import(size uint64, flags Flags) (Span, error) {
	if s.ImportFunc == nil {
		return Span{}, ErrImportFailed
	}
	return s.ImportFunc(s.Handle, size, flags)
}

// Export calls ExportFunc with the adapter's handle, if set.
func (s SourceFuncs) Export(span Span) {
	if s.ExportFunc != nil {
		s.ExportFunc(s.Handle, span.Base, span.Handle)
	}
}
