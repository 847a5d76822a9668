package ra

// tagIndex is a stable reference to a boundary tag slot in a tagTable.
type tagIndex int32

// nilTag terminates segment and free lists.
const nilTag tagIndex = -1

// boundaryTag describes one contiguous segment of the managed range.
// Links are slot indices rather than pointers, so a recycled slot can never be
// reached through a stale reference held by another tag.
type boundaryTag struct {
	base   uint64
	size   uint64
	kind   Kind
	flags  Flags
	handle Handle

	// Segment list, ordered by base.
	prev, next tagIndex

	// Free bucket list, valid only while kind == KindFree.
	prevFree, nextFree tagIndex
	bucket             int8
}

func (t *boundaryTag) end() uint64 { return t.base + t.size }

// tagTable is a slot map of boundary tags. Released slots are recycled in LIFO
// order. limit bounds the number of tags in use (0 or less = unlimited).
type tagTable struct {
	slots []boundaryTag
	free  []tagIndex
	inUse int
	limit int
}

func newTagTable(limit int) tagTable {
	return tagTable{
		slots: make([]boundaryTag, 0, 64),
		limit: limit,
	}
}

// get returns the tag stored at i. The pointer is invalidated by the next
// alloc, which may grow the backing slice.
func (tt *tagTable) get(i tagIndex) *boundaryTag {
	return &tt.slots[i]
}

// canAlloc reports whether n more tags fit in the budget.
func (tt *tagTable) canAlloc(n int) bool {
	return tt.limit <= 0 || tt.inUse+n <= tt.limit
}

// alloc stores t in a slot and returns its index. The links of t are reset.
// Callers check canAlloc first; alloc itself never fails.
func (tt *tagTable) alloc(t boundaryTag) tagIndex {
	t.prev, t.next = nilTag, nilTag
	t.prevFree, t.nextFree = nilTag, nilTag
	t.bucket = -1
	tt.inUse++

	if n := len(tt.free); n > 0 {
		i := tt.free[n-1]
		tt.free = tt.free[:n-1]
		tt.slots[i] = t
		return i
	}
	tt.slots = append(tt.slots, t)
	return tagIndex(len(tt.slots) - 1)
}

// release returns slot i to the table. The slot is zeroed so a dropped owner
// handle can be collected.
func (tt *tagTable) release(i tagIndex) {
	tt.slots[i] = boundaryTag{prev: nilTag, next: nilTag, prevFree: nilTag, nextFree: nilTag, bucket: -1}
	tt.free = append(tt.free, i)
	tt.inUse--
}

// reset drops every tag.
func (tt *tagTable) reset() {
	tt.slots = nil
	tt.free = nil
	tt.inUse = 0
}
