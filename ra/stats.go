package ra

// Stats holds arena counters. Gauges describe the current state; the
// remaining fields are cumulative since New.
type Stats struct {
	Spans         int    // imported spans currently held
	LiveSegments  int    // segments handed out and not yet freed
	FreeSegments  int    // free segments, native and imported
	TotalResource uint64 // integers managed, native plus imported
	FreeResource  uint64 // integers available for allocation

	Allocs         uint64 // successful Alloc calls
	FailedAllocs   uint64 // Alloc calls that returned an error after validation
	Frees          uint64 // successful Free calls
	Imports        uint64 // spans obtained from the source
	Exports        uint64 // spans handed back to the source
	ImportFailures uint64 // imports that failed or returned a short span
	Splits         uint64 // segments split while carving
	Coalesces      uint64 // neighbour merges while freeing
}

// LiveResource returns the number of integers currently allocated.
func (s Stats) LiveResource() uint64 { return s.TotalResource - s.FreeResource }

// Snapshot is a consistent copy of an arena's state for dumps and tests.
type Snapshot struct {
	Name     string
	Quantum  uint64
	Stats    Stats
	Segments []Segment
}

// Stats returns a copy of the arena counters.
func (a *Arena) Stats() (Stats, error) {
	if err := a.lock(); err != nil {
		return Stats{}, err
	}
	defer a.mu.Unlock()
	return a.stats, nil
}

// Walk calls fn for every segment in base order, span markers included, until
// fn returns false. fn runs under the arena lock and must not call back into
// the arena.
func (a *Arena) Walk(fn func(Segment) bool) error {
	if err := a.lock(); err != nil {
		return err
	}
	defer a.mu.Unlock()

	a.walk(fn)
	return nil
}

func (a *Arena) walk(fn func(Segment) bool) {
	for i := a.head; i != nilTag; {
		t := a.tags.get(i)
		if !fn(Segment{Base: t.base, Size: t.size, Kind: t.kind, Flags: t.flags, Handle: t.handle}) {
			return
		}
		i = t.next
	}
}

// Segments returns every segment in base order.
func (a *Arena) Segments() ([]Segment, error) {
	var segs []Segment
	err := a.Walk(func(s Segment) bool {
		segs = append(segs, s)
		return true
	})
	return segs, err
}

// LiveSegments returns the live segments in base order.
func (a *Arena) LiveSegments() ([]Segment, error) {
	var segs []Segment
	err := a.Walk(func(s Segment) bool {
		if s.Kind == KindLive {
			segs = append(segs, s)
		}
		return true
	})
	return segs, err
}

// Snapshot captures name, quantum, counters and segments under one lock.
func (a *Arena) Snapshot() (Snapshot, error) {
	if err := a.lock(); err != nil {
		return Snapshot{}, err
	}
	defer a.mu.Unlock()

	snap := Snapshot{
		Name:     a.name,
		Quantum:  a.quantum,
		Stats:    a.stats,
		Segments: make([]Segment, 0, a.tags.inUse),
	}
	a.walk(func(s Segment) bool {
		snap.Segments = append(snap.Segments, s)
		return true
	})
	return snap, nil
}
