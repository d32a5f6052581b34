// Package proposal implements the proposal-list sampler (C3): a
// dynamically sized multiset of node IDs, replicated roughly in
// proportion to weight, supporting uniform sampling in expected O(1).
//
// The list is multi-producer, multi-reader and lock-free: writers each
// hold a private reserved slice (a "block") and never contend with each
// other on individual cell writes; readers tolerate in-flight writers by
// rejecting the sentinel Uninitialized value.
package proposal

import (
	"sort"
	"sync/atomic"

	"github.com/nlpa-go/nlpa/internal/nlpaerr"
)

// Uninitialized is the sentinel value written into every reserved cell
// before a writer has stored a real node ID into it.
const Uninitialized int64 = -1

// BlockSize is the fixed block size writers reserve at a time.
const BlockSize = 128

// List is the proposal-list buffer plus its writer bookkeeping.
type List struct {
	buf      []atomic.Int64
	nextFree atomic.Int64

	unfinished []blockInfo
	nextWriter atomic.Int64
}

type blockInfo struct {
	begin atomic.Int64
	end   atomic.Int64
}

// Capacity computes the buffer capacity the design requires:
// ceil((7/3)*n + 2*T*B), with a fixed safety margin.
func Capacity(n, numWriters int) int {
	base := (7*n + 2) / 3
	return base + 2*numWriters*BlockSize + 10000
}

// NewList allocates a list sized for n logical entries and numWriters
// concurrent producers. Every cell starts as Uninitialized.
func NewList(n, numWriters int) *List {
	cap := Capacity(n, numWriters)
	l := &List{
		buf:        make([]atomic.Int64, cap),
		unfinished: make([]blockInfo, numWriters),
	}
	for i := range l.buf {
		l.buf[i].Store(Uninitialized)
	}
	return l
}

// at returns the raw value stored in cell i.
func (l *List) at(i int64) int64 { return l.buf[i].Load() }

// store writes v into cell i.
func (l *List) store(i int64, v int64) { l.buf[i].Store(v) }

// NextFree returns the current end-of-initialised cursor.
func (l *List) NextFree() int64 { return l.nextFree.Load() }

// ReserveBlock atomically advances next_free by BlockSize and returns the
// reserved [begin, end) range. It is a fatal capacity violation — not a
// recoverable error — if the reservation would exceed the buffer: the
// sizing rule in Capacity is meant to make this impossible for valid
// inputs, so overflow here means a programming error upstream.
func (l *List) ReserveBlock() (begin, end int64) {
	begin = l.nextFree.Add(BlockSize) - BlockSize
	end = begin + BlockSize
	if end > int64(len(l.buf)) {
		panic(nlpaerr.New(nlpaerr.CodeCapacityError, "proposal list capacity exceeded"))
	}
	return begin, end
}

// UnbufferedPush writes count copies of node directly, advancing
// next_free by count. It is intended for single-threaded contexts only
// (seeding the list from the initial degree sequence, or the phase-3 seam
// draw performed by the leader thread) where reservation contention does
// not exist.
func (l *List) UnbufferedPush(node int64, count int64) {
	for ; count > 0; count-- {
		i := l.nextFree.Add(1) - 1
		if i >= int64(len(l.buf)) {
			panic(nlpaerr.New(nlpaerr.CodeCapacityError, "proposal list capacity exceeded"))
		}
		l.store(i, node)
	}
}

// Writer is a per-producer cursor over a reserved slice of the list.
type Writer struct {
	list       *List
	id         int
	begin, end int64
}

// NewWriter registers a new producer and returns its cursor. The number
// of writers created must not exceed numWriters passed to NewList.
func (l *List) NewWriter() *Writer {
	id := int(l.nextWriter.Add(1) - 1)
	if id >= len(l.unfinished) {
		panic(nlpaerr.New(nlpaerr.CodeCapacityError, "more proposal-list writers created than reserved"))
	}
	return &Writer{list: l, id: id}
}

// Push writes count copies of node, reserving new blocks as needed.
func (w *Writer) Push(node int64, count int64) {
	for count > 0 {
		if w.begin == w.end {
			w.begin, w.end = w.list.ReserveBlock()
		}
		n := count
		if avail := w.end - w.begin; avail < n {
			n = avail
		}
		for i := int64(0); i < n; i++ {
			w.list.store(w.begin, node)
			w.begin++
		}
		count -= n
	}
}

// ReleasePartial records any unfinished tail of the writer's current
// block into the list's unfinished-blocks table, so the next compaction
// can reclaim it, then marks the writer's cursor as empty.
func (w *Writer) ReleasePartial() {
	w.list.unfinished[w.id].begin.Store(w.begin)
	w.list.unfinished[w.id].end.Store(w.end)
	w.begin = w.end
}

// Compact runs at a barrier, on a single designated thread. It gathers
// every writer's unfinished range as a "gap", then moves values from the
// right-most filled tail into the left-most gap head until every gap is
// filled or data runs out, shrinking next_free to the new boundary.
//
// Postcondition: every cell in [0, NextFree()) is != Uninitialized, and
// every cell in [NextFree(), cap) == Uninitialized.
func (l *List) Compact() {
	type rng struct{ start, end int64 }
	var gaps []rng
	for i := range l.unfinished {
		b := l.unfinished[i].begin.Load()
		e := l.unfinished[i].end.Load()
		if e > b {
			gaps = append(gaps, rng{b, e})
		}
		l.unfinished[i].begin.Store(0)
		l.unfinished[i].end.Store(0)
	}
	if len(gaps) == 0 {
		return
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].start < gaps[j].start })

	inGap := func(pos int64) bool {
		lo, hi := 0, len(gaps)-1
		for lo <= hi {
			mid := (lo + hi) / 2
			switch {
			case pos < gaps[mid].start:
				hi = mid - 1
			case pos >= gaps[mid].end:
				lo = mid + 1
			default:
				return true
			}
		}
		return false
	}

	end := l.nextFree.Load()
	readPos := end - 1
	newEnd := end
	ranOut := false

outer:
	for _, g := range gaps {
		for pos := g.start; pos < g.end; pos++ {
			for readPos > pos && inGap(readPos) {
				readPos--
			}
			if readPos <= pos {
				newEnd = pos
				if readPos+1 < newEnd {
					// cells in (readPos, pos) were moved out and are sentinels now
					newEnd = readPos + 1
				}
				ranOut = true
				break outer
			}
			v := l.at(readPos)
			l.store(pos, v)
			l.store(readPos, Uninitialized)
			readPos--
		}
	}
	if !ranOut {
		newEnd = readPos + 1
	}
	l.nextFree.Store(newEnd)
}

// Sampler draws uniformly random, currently-valid entries from a frozen
// snapshot of the list (the end cursor as of the last UpdateEnd call).
type Sampler struct {
	list *List
	end  int64
}

// NewSampler creates a sampler snapshotting the list's current end.
func (l *List) NewSampler() *Sampler {
	return &Sampler{list: l, end: l.nextFree.Load()}
}

// UpdateEnd refreshes the snapshot to the list's current end. Called once
// per epoch boundary (after compaction) so each epoch's phase-1 sampling
// draws against a single frozen, fully-compacted window, matching the
// sampling-correctness requirement in the design (uniform over
// currently-valid entries within one snapshot).
func (s *Sampler) UpdateEnd() { s.end = s.list.nextFree.Load() }

// End returns the sampler's current snapshot end.
func (s *Sampler) End() int64 { return s.end }

// Int63n is the subset of math/rand's API the sampler needs, satisfied by
// *rand.Rand (and trivially mockable in tests).
type Int63n interface {
	Int63n(n int64) int64
}

// Sample draws a uniformly random index in [begin, end) and rejects
// sentinel cells until it finds a real node ID.
func (s *Sampler) Sample(rng Int63n, begin int64) int64 {
	for {
		idx := begin + rng.Int63n(s.end-begin)
		if v := s.list.at(idx); v != Uninitialized {
			return v
		}
	}
}
