package ra

// ============================================================================
// Segment list: every tag of the arena, ordered by base
// ============================================================================

// newTag allocates a tag and returns its index. The caller has already checked
// the tag budget.
func (a *Arena) newTag(base, size uint64, kind Kind, flags Flags, h Handle) tagIndex {
	return a.tags.alloc(boundaryTag{
		base:   base,
		size:   size,
		kind:   kind,
		flags:  flags,
		handle: h,
	})
}

// findInsertPoint returns the last tag whose base is <= base, or nilTag when
// the new tag belongs at the head. Equal bases keep insertion order, so a span
// start placed at the end of an adjacent span lands after that span's end marker.
func (a *Arena) findInsertPoint(base uint64) tagIndex {
	prev := nilTag
	for cur := a.head; cur != nilTag; {
		t := a.tags.get(cur)
		if t.base > base {
			break
		}
		prev = cur
		cur = t.next
	}
	return prev
}

// insertAfter links i into the segment list right after prev. A nilTag prev
// inserts at the head.
func (a *Arena) insertAfter(prev, i tagIndex) {
	t := a.tags.get(i)
	t.prev = prev
	if prev == nilTag {
		t.next = a.head
		a.head = i
	} else {
		p := a.tags.get(prev)
		t.next = p.next
		p.next = i
	}
	if t.next == nilTag {
		a.tail = i
	} else {
		a.tags.get(t.next).prev = i
	}
}

// insertBefore links i into the segment list right before next.
func (a *Arena) insertBefore(next, i tagIndex) {
	a.insertAfter(a.tags.get(next).prev, i)
}

// insertOrdered links i at its base-ordered position.
func (a *Arena) insertOrdered(i tagIndex) {
	a.insertAfter(a.findInsertPoint(a.tags.get(i).base), i)
}

// unlink removes i from the segment list without releasing its slot.
func (a *Arena) unlink(i tagIndex) {
	t := a.tags.get(i)
	if t.prev == nilTag {
		a.head = t.next
	} else {
		a.tags.get(t.prev).next = t.next
	}
	if t.next == nilTag {
		a.tail = t.prev
	} else {
		a.tags.get(t.next).prev = t.prev
	}
	t.prev, t.next = nilTag, nilTag
}

// splitFront carves the first n integers of i into a new tag placed before i,
// which keeps describing the back portion. The new tag inherits kind, flags and
// handle. Requires 0 < n < size and one free tag slot.
func (a *Arena) splitFront(i tagIndex, n uint64) tagIndex {
	t := a.tags.get(i)
	front := a.newTag(t.base, n, t.kind, t.flags, t.handle)

	t = a.tags.get(i)
	t.base += n
	t.size -= n
	a.insertBefore(i, front)
	a.stats.Splits++
	return front
}

// splitBack carves everything past the first n integers of i into a new tag
// placed after i, which keeps describing the front portion. Requires
// 0 < n < size and one free tag slot.
func (a *Arena) splitBack(i tagIndex, n uint64) tagIndex {
	t := a.tags.get(i)
	back := a.newTag(t.base+n, t.size-n, t.kind, t.flags, t.handle)

	t = a.tags.get(i)
	t.size = n
	a.insertAfter(i, back)
	a.stats.Splits++
	return back
}
