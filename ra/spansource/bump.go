package spansource

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/rangekit/ra"
)

// ErrExhausted indicates a Bump source has reached its limit.
var ErrExhausted = errors.New("spansource: bump source exhausted")

// Bump is an append-only span source. Each import takes the next
// granularity-aligned range after the previous one; exported ranges are
// recorded but never reused. It is the simplest possible backing store and
// is mostly useful for tests and trace replay.
type Bump struct {
	mu sync.Mutex

	next        uint64 // bump pointer
	limit       uint64 // first integer past the source
	granularity uint64 // import sizes are rounded up to this

	imported []ra.Span
	exported []ra.Span
}

// NewBump returns a source covering [base, limit). granularity must be 0 or a
// power of two; 0 means 1.
func NewBump(base, limit, granularity uint64) (*Bump, error) {
	if granularity == 0 {
		granularity = 1
	}
	if granularity&(granularity-1) != 0 {
		return nil, errors.Newf("spansource: granularity %#x is not a power of two", granularity)
	}
	if limit < base {
		return nil, errors.Newf("spansource: limit %#x below base %#x", limit, base)
	}
	return &Bump{next: base, limit: limit, granularity: granularity}, nil
}

// Import returns the next span of at least size integers.
func (b *Bump) Import(size uint64, _ ra.Flags) (ra.Span, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := (size + b.granularity - 1) &^ (b.granularity - 1)
	if n < size || n > b.limit-b.next {
		return ra.Span{}, errors.Wrapf(ErrExhausted, "need %#x, %#x left", size, b.limit-b.next)
	}

	span := ra.Span{Base: b.next, Size: n, Handle: len(b.imported)}
	b.next += n
	b.imported = append(b.imported, span)
	return span, nil
}

// Export records the returned span.
func (b *Bump) Export(span ra.Span) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exported = append(b.exported, span)
}

// Imported returns every span handed out so far, in order.
func (b *Bump) Imported() []ra.Span {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ra.Span(nil), b.imported...)
}

// Exported returns every span handed back so far, in order.
func (b *Bump) Exported() []ra.Span {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ra.Span(nil), b.exported...)
}

// Outstanding returns the number of imported spans not yet exported.
func (b *Bump) Outstanding() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.imported) - len(b.exported)
}
