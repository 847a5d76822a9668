package ra

import (
	"github.com/cockroachdb/errors"
)

// tagsPerCarve is the worst-case number of new tags a single carve needs:
// one leading and one trailing fragment.
const tagsPerCarve = 2

// tagsPerImport covers the two span markers, the interior and a carve of it.
const tagsPerImport = 3 + tagsPerCarve

// Alloc allocates size integers whose base is a multiple of alignment and
// whose flags equal flags exactly. size is rounded up to the quantum; the
// rounded size is returned in Allocation.Size.
//
// alignment must be 0 or a power of two; 0 and 1 mean no alignment
// constraint. A zero size is rejected with ErrInvalidParams.
//
// The free buckets are searched from floor(log2(size)) upward, so the segment
// chosen is at most twice the smallest one that fits. On exhaustion the span
// source is asked once for a new span, and the search is retried once.
func (a *Arena) Alloc(size uint64, flags Flags, alignment uint64) (Allocation, error) {
	if err := a.lock(); err != nil {
		return Allocation{}, err
	}
	defer a.mu.Unlock()

	if size == 0 {
		return Allocation{}, errors.Wrapf(ErrInvalidParams, "arena %q: zero-size alloc", a.name)
	}
	if alignment&(alignment-1) != 0 {
		return Allocation{}, errors.Wrapf(ErrInvalidParams, "arena %q: alignment %#x is not a power of two",
			a.name, alignment)
	}
	rounded, ok := alignUp(size, a.quantum)
	if !ok {
		return Allocation{}, errors.Wrapf(ErrInvalidParams, "arena %q: size %#x overflows", a.name, size)
	}
	size = rounded

	res, err := a.attemptAlloc(size, flags, alignment)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, ErrNoSpace) || a.source == nil {
		a.stats.FailedAllocs++
		return Allocation{}, err
	}

	res, err = a.importAndAlloc(size, flags, alignment)
	if err != nil {
		a.stats.FailedAllocs++
		return Allocation{}, err
	}
	return res, nil
}

// attemptAlloc searches the free buckets and carves the first fit.
func (a *Arena) attemptAlloc(size uint64, flags Flags, align uint64) (Allocation, error) {
	i, aligned := a.findFit(size, flags, align)
	if i == nilTag {
		return Allocation{}, errors.Wrapf(ErrNoSpace, "arena %q: %#x integers, flags %#x, align %#x",
			a.name, size, flags, align)
	}
	t := a.tags.get(i)
	need := 0
	if aligned > t.base {
		need++
	}
	if aligned+size < t.end() {
		need++
	}
	if !a.tags.canAlloc(need) {
		// The tag is still in its bucket, untouched.
		return Allocation{}, errors.Wrapf(ErrOutOfMemory, "arena %q: split for alloc", a.name)
	}
	return a.carve(i, aligned, size), nil
}

// carve turns free tag i into a live tag covering exactly [aligned, aligned+size),
// returning any leading and trailing leftovers to the free buckets.
// The caller guarantees room for the fragment tags.
func (a *Arena) carve(i tagIndex, aligned, size uint64) Allocation {
	a.freeListRemove(i)
	a.stats.FreeSegments--

	if lead := aligned - a.tags.get(i).base; lead > 0 {
		front := a.splitFront(i, lead)
		a.freeListInsert(front)
		a.stats.FreeSegments++
	}
	if a.tags.get(i).size > size {
		back := a.splitBack(i, size)
		a.freeListInsert(back)
		a.stats.FreeSegments++
	}

	t := a.tags.get(i)
	t.kind = KindLive
	a.live[t.base] = i

	a.stats.LiveSegments++
	a.stats.FreeResource -= size
	a.stats.Allocs++

	return Allocation{Base: t.base, Size: t.size, Handle: t.handle}
}

// importSize pads a request so that an import of that size always satisfies
// it whatever base the source returns. Sources need not return quantum-aligned
// bases, so any alignment above 1 is padded.
func (a *Arena) importSize(size, align uint64) (uint64, bool) {
	n := size
	if align > 1 {
		n += align - 1
		if n < size {
			return 0, false
		}
	}
	return alignUp(n, a.quantum)
}

// importAndAlloc imports a fresh span from the source, inserts it and retries
// the allocation once. A span that ends up unused is exported again.
func (a *Arena) importAndAlloc(size uint64, flags Flags, align uint64) (Allocation, error) {
	want, ok := a.importSize(size, align)
	if !ok {
		return Allocation{}, errors.Wrapf(ErrInvalidParams, "arena %q: import size for %#x overflows", a.name, size)
	}
	if !a.tags.canAlloc(tagsPerImport) {
		return Allocation{}, errors.Wrapf(ErrOutOfMemory, "arena %q: span import", a.name)
	}

	span, err := a.source.Import(want, flags)
	if err != nil {
		a.stats.ImportFailures++
		a.log().Warn("span import failed", "size", want, "flags", flags, "err", err)
		return Allocation{}, errors.Wrapf(errors.Join(ErrImportFailed, err),
			"arena %q: import of %#x integers", a.name, want)
	}
	if span.Size < want || span.Base+span.Size < span.Base {
		a.stats.ImportFailures++
		a.source.Export(span)
		a.log().Warn("span import returned a short span",
			"want", want, "base", span.Base, "size", span.Size)
		return Allocation{}, errors.Wrapf(ErrImportFailed, "arena %q: import returned %#x integers, want %#x",
			a.name, span.Size, want)
	}

	start := a.insertSpan(span, flags)
	a.stats.Imports++
	a.log().Debug("span imported", "base", span.Base, "size", span.Size, "flags", flags)

	res, err := a.attemptAlloc(size, flags, align)
	if err != nil {
		a.unwindSpan(start)
		return Allocation{}, err
	}
	if res.Base < span.Base || res.End() > span.Base+span.Size {
		// The retry was served from elsewhere; the fresh span is still untouched.
		a.log().Warn("allocation after import landed outside the imported span",
			"base", res.Base, "span", span.Base)
		a.unwindSpan(start)
	}
	return res, nil
}

// insertSpan links span markers and a free interior for span into the
// segment list and returns the start marker.
func (a *Arena) insertSpan(span Span, flags Flags) tagIndex {
	start := a.newTag(span.Base, 0, KindSpanStart, flags, span.Handle)
	a.insertOrdered(start)

	interior := a.newTag(span.Base, span.Size, KindFree, flags, span.Handle)
	a.insertAfter(start, interior)
	a.freeListInsert(interior)

	end := a.newTag(span.Base+span.Size, 0, KindSpanEnd, flags, span.Handle)
	a.insertAfter(interior, end)

	a.stats.Spans++
	a.stats.TotalResource += span.Size
	a.stats.FreeResource += span.Size
	a.stats.FreeSegments++
	return start
}

// unwindSpan exports the span opened by start if its interior is a single
// free segment. Otherwise the span stays in the arena as free resource.
func (a *Arena) unwindSpan(start tagIndex) {
	interior := a.tags.get(start).next
	if interior == nilTag {
		return
	}
	t := a.tags.get(interior)
	if t.kind != KindFree || t.next == nilTag || a.tags.get(t.next).kind != KindSpanEnd {
		return
	}
	a.freeListRemove(interior)
	a.stats.FreeSegments--
	a.releaseSpan(start, interior, t.next)
}

// releaseSpan removes a span whose interior is entirely free and hands it back
// to the source. The interior tag is already out of its free bucket.
func (a *Arena) releaseSpan(start, interior, end tagIndex) {
	s := a.tags.get(start)
	span := Span{
		Base:   s.base,
		Size:   a.tags.get(end).base - s.base,
		Handle: s.handle,
	}

	for _, i := range []tagIndex{start, interior, end} {
		a.unlink(i)
		a.tags.release(i)
	}

	a.stats.Spans--
	a.stats.TotalResource -= span.Size
	a.stats.FreeResource -= span.Size
	a.stats.Exports++

	a.log().Debug("span exported", "base", span.Base, "size", span.Size)
	a.source.Export(span)
}
