package ra

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfMemory indicates the arena could not obtain a bookkeeping record
	// (boundary tag) within its MaxTags budget. State is left unchanged.
	ErrOutOfMemory = errors.New("ra: out of bookkeeping records")

	// ErrInvalidParams indicates a nil arena, a zero-size request, a non power of
	// two alignment or a range that overflows the integer space.
	ErrInvalidParams = errors.New("ra: invalid parameters")

	// ErrImportFailed indicates the span source declined or failed to provide a span.
	ErrImportFailed = errors.New("ra: import failed")

	// ErrNoSpace indicates no free segment fits and no span could be imported.
	ErrNoSpace = errors.New("ra: no free segment large enough")

	// ErrNotFound indicates Free was called with a base that is not a live
	// allocation (double free or unknown base).
	ErrNotFound = errors.New("ra: base is not a live allocation")

	// ErrResourceStillLive indicates Delete found allocations that were never freed.
	ErrResourceStillLive = errors.New("ra: arena deleted with live allocations")

	// ErrClosed indicates the arena has already been deleted.
	ErrClosed = errors.New("ra: arena deleted")

	// ErrOverlap indicates Add was given a range overlapping an existing segment.
	// Errors carrying it also match ErrInvalidParams.
	ErrOverlap = errors.New("ra: range overlaps existing segment")
)

// errOverlap returns an error matching both ErrOverlap and ErrInvalidParams.
func errOverlap() error {
	return errors.Join(ErrOverlap, ErrInvalidParams)
}
