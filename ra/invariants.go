package ra

import "github.com/cockroachdb/errors"

// CheckInvariants validates the arena's internal structure and returns the
// first violation found. It is always compiled in; tests call it after every
// mutation, and it is cheap enough to call from debugging sessions on
// arenas with a few thousand segments.
func (a *Arena) CheckInvariants() error {
	if err := a.lock(); err != nil {
		return err
	}
	defer a.mu.Unlock()
	return a.checkInvariants()
}

func (a *Arena) checkInvariants() error {
	var (
		count, live, free, spans int
		freeRes, totalRes        uint64
		cursor                   uint64 // end of the last sized segment
		prev                     = nilTag
		inSpan                   bool
		spanBase, spanNext       uint64
	)

	for i := a.head; i != nilTag; i = a.tags.get(i).next {
		t := a.tags.get(i)
		count++
		if count > a.tags.inUse {
			return errors.Newf("segment list is longer than the %d tags in use (cycle?)", a.tags.inUse)
		}
		if t.prev != prev {
			return errors.Newf("segment at %#x has prev %d, expected %d", t.base, t.prev, prev)
		}
		if prev != nilTag && a.tags.get(prev).base > t.base {
			return errors.Newf("segment at %#x follows segment at %#x", t.base, a.tags.get(prev).base)
		}

		switch t.kind {
		case KindSpanStart, KindSpanEnd:
			if t.size != 0 {
				return errors.Newf("span marker at %#x has size %#x", t.base, t.size)
			}
			if t.base < cursor {
				return errors.Newf("span marker at %#x lies inside a segment ending at %#x", t.base, cursor)
			}
			if t.kind == KindSpanStart {
				if inSpan {
					return errors.Newf("span starting at %#x is nested in span starting at %#x", t.base, spanBase)
				}
				inSpan, spanBase, spanNext = true, t.base, t.base
				spans++
				break
			}
			if !inSpan {
				return errors.Newf("span end at %#x has no matching start", t.base)
			}
			if t.base != spanNext {
				return errors.Newf("span [%#x,%#x) interior ends at %#x", spanBase, t.base, spanNext)
			}
			inSpan = false
			totalRes += t.base - spanBase

		case KindFree, KindLive:
			if t.size == 0 {
				return errors.Newf("%s segment at %#x has zero size", t.kind, t.base)
			}
			if t.end() < t.base {
				return errors.Newf("%s segment at %#x overflows", t.kind, t.base)
			}
			if t.base < cursor {
				return errors.Newf("%s segment [%#x,%#x) overlaps segment ending at %#x", t.kind, t.base, t.end(), cursor)
			}
			if inSpan {
				if t.base != spanNext {
					return errors.Newf("gap in span %#x at %#x", spanBase, spanNext)
				}
				spanNext = t.end()
			} else {
				totalRes += t.size
			}
			cursor = t.end()

			if t.kind == KindFree {
				free++
				freeRes += t.size
				if int(t.bucket) != bucketFor(t.size) {
					return errors.Newf("free segment [%#x,%#x) is in bucket %d, want %d",
						t.base, t.end(), t.bucket, bucketFor(t.size))
				}
				break
			}
			live++
			if t.size%a.quantum != 0 {
				return errors.Newf("live segment at %#x has size %#x, not a multiple of quantum %#x",
					t.base, t.size, a.quantum)
			}
			if j, ok := a.live[t.base]; !ok || j != i {
				return errors.Newf("live segment at %#x is missing from the address index", t.base)
			}

		default:
			return errors.Newf("segment at %#x has unknown kind %d", t.base, t.kind)
		}
		prev = i
	}

	if inSpan {
		return errors.Newf("span starting at %#x is not closed", spanBase)
	}
	if prev != a.tail {
		return errors.Newf("tail is %d, last segment is %d", a.tail, prev)
	}
	if count != a.tags.inUse {
		return errors.Newf("segment list holds %d tags, table has %d in use", count, a.tags.inUse)
	}
	if live != len(a.live) {
		return errors.Newf("%d live segments, address index holds %d", live, len(a.live))
	}

	bucketed := 0
	for b, head := range a.buckets {
		prevFree := nilTag
		for i := head; i != nilTag; i = a.tags.get(i).nextFree {
			t := a.tags.get(i)
			bucketed++
			if bucketed > free {
				return errors.Newf("free buckets hold more than the %d free segments", free)
			}
			if t.kind != KindFree {
				return errors.Newf("%s segment at %#x is in free bucket %d", t.kind, t.base, b)
			}
			if int(t.bucket) != b {
				return errors.Newf("segment at %#x records bucket %d but is linked in %d", t.base, t.bucket, b)
			}
			if t.prevFree != prevFree {
				return errors.Newf("free segment at %#x has prevFree %d, expected %d", t.base, t.prevFree, prevFree)
			}
			prevFree = i
		}
	}
	if bucketed != free {
		return errors.Newf("%d free segments, buckets hold %d", free, bucketed)
	}

	s := a.stats
	switch {
	case s.LiveSegments != live:
		return errors.Newf("stats report %d live segments, found %d", s.LiveSegments, live)
	case s.FreeSegments != free:
		return errors.Newf("stats report %d free segments, found %d", s.FreeSegments, free)
	case s.Spans != spans:
		return errors.Newf("stats report %d spans, found %d", s.Spans, spans)
	case s.FreeResource != freeRes:
		return errors.Newf("stats report %#x free integers, found %#x", s.FreeResource, freeRes)
	case s.TotalResource != totalRes:
		return errors.Newf("stats report %#x total integers, found %#x", s.TotalResource, totalRes)
	}
	return nil
}
