package spansource

import (
	"github.com/joshuapare/rangekit/internal/logger"
	"github.com/joshuapare/rangekit/ra"
)

// Parent imports spans from another arena, typically a larger address space
// that several child heaps carve up. Exported spans are freed back to it.
//
// The parent must be a different arena from the one using this source.
type Parent struct {
	arena *ra.Arena
	flags ra.Flags
	align uint64
}

// NewParent returns a source allocating from parent with the given flags and
// alignment (0 for none).
func NewParent(parent *ra.Arena, flags ra.Flags, align uint64) *Parent {
	return &Parent{arena: parent, flags: flags, align: align}
}

// Import allocates size integers from the parent. The child's flags are not
// forwarded; the parent class is fixed at construction.
func (p *Parent) Import(size uint64, _ ra.Flags) (ra.Span, error) {
	res, err := p.arena.Alloc(size, p.flags, p.align)
	if err != nil {
		return ra.Span{}, err
	}
	return ra.Span{Base: res.Base, Size: res.Size, Handle: res.Handle}, nil
}

// Export frees the span back to the parent. A rejection is logged by the
// parent arena itself and again through the process-wide logger, since a
// source has no arena logger of its own.
func (p *Parent) Export(span ra.Span) {
	if err := p.arena.Free(span.Base); err != nil {
		logger.Error("parent arena rejected exported span",
			"parent", p.arena.Name(),
			"base", span.Base,
			"err", err)
	}
}
