//go:build unix

package spansource

import (
	"math"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"

	"github.com/joshuapare/rangekit/internal/logger"
	"github.com/joshuapare/rangekit/ra"
)

// Reservation is the owner handle of a span imported from Reserve.
type Reservation struct {
	mem []byte
}

// Bytes returns the mapping backing the span. Touching it faults unless the
// source was created with readable/writable protection.
func (r *Reservation) Bytes() []byte { return r.mem }

// Reserve imports spans of real virtual address space using anonymous
// private mappings and unmaps them on export. The integers handed out by an
// arena on top of it are therefore genuine, non-overlapping process addresses.
type Reserve struct {
	prot int

	mu   sync.Mutex
	live int
}

// NewReserve returns a source mapping with the given protection, e.g.
// unix.PROT_NONE for a pure address-space reservation or
// unix.PROT_READ|unix.PROT_WRITE for usable memory.
func NewReserve(prot int) *Reserve {
	return &Reserve{prot: prot}
}

// NewAddressSpace returns a source reserving inaccessible address space only.
func NewAddressSpace() *Reserve {
	return NewReserve(unix.PROT_NONE)
}

// Import maps at least size bytes, rounded up to the page size.
func (r *Reserve) Import(size uint64, _ ra.Flags) (ra.Span, error) {
	page := uint64(unix.Getpagesize())
	n := (size + page - 1) &^ (page - 1)
	if n < size || n > math.MaxInt {
		return ra.Span{}, errors.Newf("spansource: reservation of %#x bytes too large", size)
	}

	mem, err := unix.Mmap(-1, 0, int(n), r.prot, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return ra.Span{}, errors.Wrapf(err, "spansource: mmap %#x bytes", n)
	}

	r.mu.Lock()
	r.live++
	r.mu.Unlock()

	base := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(mem))))
	return ra.Span{Base: base, Size: n, Handle: &Reservation{mem: mem}}, nil
}

// Export unmaps the span. Failures go to the process-wide logger.
func (r *Reserve) Export(span ra.Span) {
	res, ok := span.Handle.(*Reservation)
	if !ok || res.mem == nil {
		return
	}
	if err := unix.Munmap(res.mem); err != nil {
		logger.Warn("munmap of exported span failed", "base", span.Base, "size", span.Size, "err", err)
		return
	}
	res.mem = nil

	r.mu.Lock()
	r.live--
	r.mu.Unlock()
}

// Live returns the number of mappings currently held.
func (r *Reserve) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
