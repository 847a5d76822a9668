package ra

import (
	"github.com/cockroachdb/errors"
)

// Free releases the live segment starting at base. Adjacent free segments
// with the same flags are merged into it. When the merged segment fills an
// imported span completely, the span is exported back to the source instead
// of being kept in a free bucket.
//
// Freeing a base that is not live (double free, unknown base) is a caller bug:
// it is logged at error level and returned as ErrNotFound, and the arena is
// left untouched.
func (a *Arena) Free(base uint64) error {
	if err := a.lock(); err != nil {
		return err
	}
	defer a.mu.Unlock()

	i, ok := a.live[base]
	if !ok {
		a.log().Error("free of unknown base", "base", base)
		return errors.Wrapf(ErrNotFound, "arena %q: free %#x", a.name, base)
	}
	delete(a.live, base)

	t := a.tags.get(i)
	t.kind = KindFree
	a.stats.LiveSegments--
	a.stats.FreeSegments++
	a.stats.FreeResource += t.size
	a.stats.Frees++

	// Merge the left neighbour into i.
	if prev := t.prev; prev != nilTag {
		p := a.tags.get(prev)
		if p.kind == KindFree && p.end() == t.base && p.flags == t.flags {
			a.freeListRemove(prev)
			t.base = p.base
			t.size += p.size
			a.unlink(prev)
			a.tags.release(prev)
			a.stats.FreeSegments--
			a.stats.Coalesces++
		}
	}

	// Merge the right neighbour into i.
	if next := t.next; next != nilTag {
		n := a.tags.get(next)
		if n.kind == KindFree && t.end() == n.base && n.flags == t.flags {
			a.freeListRemove(next)
			t.size += n.size
			a.unlink(next)
			a.tags.release(next)
			a.stats.FreeSegments--
			a.stats.Coalesces++
		}
	}

	if a.source != nil && t.prev != nilTag && t.next != nilTag &&
		a.tags.get(t.prev).kind == KindSpanStart && a.tags.get(t.next).kind == KindSpanEnd {
		a.stats.FreeSegments--
		a.releaseSpan(t.prev, i, t.next)
		return nil
	}

	a.freeListInsert(i)
	return nil
}
