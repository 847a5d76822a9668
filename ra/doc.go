// Package ra provides a generic resource allocator for spans of integers.
//
// # Overview
//
// An Arena hands out ranges of an abstract integer space: device virtual
// addresses, ID pools, anything that is "a span of integers". It never touches
// the memory or objects those integers name; it only does the accounting.
//
// The design is the classic boundary-tag allocator:
//
//   - Every segment (free, live, or a span marker) is a boundary tag in a
//     base-ordered, doubly linked segment list
//   - Free segments are also linked into one of 40 power-of-two buckets
//   - Live segments are indexed by base, so Free is O(1) to locate
//   - Freed segments are coalesced with free neighbours of the same flags
//
// # Allocator Interface
//
//   - New(cfg): create an arena, optionally seeded with a native span
//   - Add(base, size, flags): seed more native resource
//   - Alloc(size, flags, alignment): allocate a range
//   - Free(base): release a range
//   - Delete(): tear the arena down
//
// # Usage Example
//
//	a, err := ra.New(ra.Config{Name: "vram", Base: 0x1000_0000, Size: 256 << 20, QuantumLog2: 12})
//	if err != nil {
//	    return err
//	}
//	defer a.Delete()
//
//	// 64KB, 64KB aligned
//	r, err := a.Alloc(64<<10, 0, 64<<10)
//	if err != nil {
//	    return err
//	}
//
//	// Later
//	err = a.Free(r.Base)
//
// # Size Classes
//
// Bucket i holds free segments whose size lies in [2^i, 2^(i+1)); the last
// bucket is open-ended. A request of size S starts its search in bucket
// floor(log2(S)) and scans upward, taking the first segment (in bucket order)
// that fits with the requested flags and alignment. This is "almost best
// fit": the chosen segment is never more than twice the smallest fitting one.
//
// # Import and Export
//
// An arena configured with a SpanSource asks it for a new span when nothing
// fits. The span is wrapped in zero-length start/end markers so that, once
// every segment inside it is free again, Free can recognise the whole span and
// Export it. Native resource (Config.Base/Size, Add) is never exported.
//
//	parent, _ := ra.New(ra.Config{Name: "va", Base: 0, Size: 1 << 40, QuantumLog2: 16})
//	heap, _ := ra.New(ra.Config{
//	    Name:        "heap",
//	    QuantumLog2: 12,
//	    Source:      spansource.NewParent(parent, 0, 0),
//	})
//
// Import and Export run under the arena lock and must not call back into the
// same arena.
//
// # Errors
//
// Errors wrap the sentinels in errors.go and match them with errors.Is, from
// either the standard library or github.com/cockroachdb/errors. Where an error
// has both a class and a cause (an import failure and the source's own error,
// an overlap that is also invalid input) both are reachable through Unwrap.
// Contract violations are never silent: freeing an unknown base returns
// ErrNotFound, and deleting an arena with live allocations leaks them, logs
// each one and returns ErrResourceStillLive.
//
// # Thread Safety
//
// Every method takes the arena's own mutex for its whole duration. Different
// arenas never contend.
package ra
