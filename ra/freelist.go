package ra

import "math/bits"

// numBuckets is the number of power-of-two free lists. Bucket i holds free
// tags whose size lies in [2^i, 2^(i+1)); the last bucket is open-ended.
const numBuckets = 40

// bucketFor returns floor(log2(size)) clamped to the bucket table.
// size must be non-zero.
func bucketFor(size uint64) int {
	b := bits.Len64(size) - 1
	if b >= numBuckets {
		return numBuckets - 1
	}
	return b
}

// freeListInsert pushes free tag i onto the head of its bucket.
func (a *Arena) freeListInsert(i tagIndex) {
	t := a.tags.get(i)
	b := bucketFor(t.size)
	t.bucket = int8(b)
	t.prevFree = nilTag
	t.nextFree = a.buckets[b]
	if t.nextFree != nilTag {
		a.tags.get(t.nextFree).prevFree = i
	}
	a.buckets[b] = i
}

// freeListRemove unlinks free tag i from its bucket.
func (a *Arena) freeListRemove(i tagIndex) {
	t := a.tags.get(i)
	if t.prevFree == nilTag {
		a.buckets[t.bucket] = t.nextFree
	} else {
		a.tags.get(t.prevFree).nextFree = t.nextFree
	}
	if t.nextFree != nilTag {
		a.tags.get(t.nextFree).prevFree = t.prevFree
	}
	t.prevFree, t.nextFree = nilTag, nilTag
	t.bucket = -1
}

// alignUp rounds v up to a multiple of align, a power of two. ok is false if
// the result would overflow.
func alignUp(v, align uint64) (uint64, bool) {
	if align <= 1 {
		return v, true
	}
	r := (v + align - 1) &^ (align - 1)
	return r, r >= v
}

// findFit scans the buckets from bucketFor(size) upward and returns the first
// free tag with matching flags that can hold size integers at the given
// alignment, plus the aligned base. Tags within a bucket are tried in list order.
func (a *Arena) findFit(size uint64, flags Flags, align uint64) (tagIndex, uint64) {
	for b := bucketFor(size); b < numBuckets; b++ {
		for i := a.buckets[b]; i != nilTag; {
			t := a.tags.get(i)
			if t.flags == flags {
				if aligned, ok := alignUp(t.base, align); ok &&
					aligned >= t.base && aligned-t.base <= t.size &&
					t.size-(aligned-t.base) >= size {
					return i, aligned
				}
			}
			i = t.nextFree
		}
	}
	return nilTag, 0
}
