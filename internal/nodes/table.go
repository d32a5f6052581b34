// Package nodes holds the per-node atomic state (C2 in the design): degree,
// proposal-list replica count and cached weight, plus the aggregate
// counters (total weight, max degree, wmax) shared across workers.
package nodes

import (
	"math"
	"sync/atomic"
)

// Table is the fixed-size, concurrency-safe per-node attribute store.
// All N slots are allocated up front; a node becomes "live" only once its
// degree is first set, but every slot exists from construction.
type Table struct {
	degree []atomic.Int64
	count  []atomic.Int64
	weight []atomic.Uint64 // IEEE-754 bits of a float64, CAS'd for fetch-max

	totalWeight atomic.Uint64 // bits of a float64, accumulated by delta
	maxDegree   atomic.Int64
	wmax        atomic.Uint64 // bits of a float64
}

// NewTable allocates a table for n nodes. Every node starts with count=1
// (the replica-count invariant: count >= 1 once inserted) and weight=0.
func NewTable(n int) *Table {
	t := &Table{
		degree: make([]atomic.Int64, n),
		count:  make([]atomic.Int64, n),
		weight: make([]atomic.Uint64, n),
	}
	for i := range t.count {
		t.count[i].Store(1)
	}
	return t
}

// Len returns the number of node slots.
func (t *Table) Len() int { return len(t.degree) }

// Degree returns the current degree of node u.
func (t *Table) Degree(u int) int64 { return t.degree[u].Load() }

// Count returns the current proposal-list replica count of node u.
func (t *Table) Count(u int) int64 { return t.count[u].Load() }

// Weight returns the current cached weight of node u.
func (t *Table) Weight(u int) float64 { return math.Float64frombits(t.weight[u].Load()) }

// Excess returns weight(u)/count(u), the residual weight rejection
// sampling corrects for.
func (t *Table) Excess(u int) float64 {
	c := t.Count(u)
	if c <= 0 {
		return 0
	}
	return t.Weight(u) / float64(c)
}

// FetchAddDegree atomically adds delta to node u's degree and returns the
// value it held before the add.
func (t *Table) FetchAddDegree(u int, delta int64) (old int64) {
	return t.degree[u].Add(delta) - delta
}

// FetchMaxWeight publishes the max of node u's current weight and w,
// returning the value that was there before (the "old" weight, used by
// callers to compute a total_weight delta). This is the fetch-max
// discipline from the design: weights only grow because degrees only grow
// and w is non-decreasing on its domain.
func (t *Table) FetchMaxWeight(u int, w float64) (old float64) {
	for {
		cur := t.weight[u].Load()
		curF := math.Float64frombits(cur)
		if w <= curF {
			return curF
		}
		if t.weight[u].CompareAndSwap(cur, math.Float64bits(w)) {
			return curF
		}
	}
}

// TryRaiseCount performs a CAS loop that raises count(u) to target only if
// target exceeds the current value. On success it returns the previous
// count and true, so the caller can append (target-old) replicas to the
// proposal list; on failure (count already >= target) it returns the
// current count and false.
func (t *Table) TryRaiseCount(u int, target int64) (old int64, raised bool) {
	for {
		cur := t.count[u].Load()
		if cur >= target {
			return cur, false
		}
		if t.count[u].CompareAndSwap(cur, target) {
			return cur, true
		}
	}
}

// SetCount directly stores count(u). Only safe from a single-threaded
// context (seed-graph construction or the sequential seam-node fixup),
// where no concurrent writer can race the store.
func (t *Table) SetCount(u int, count int64) { t.count[u].Store(count) }

// SequentialSetDegree sets node u's degree directly (non-atomic-race
// context: seed-graph construction or the phase-3 seam draw, both of which
// run on a single designated thread). It keeps weight/max-degree/total
// weight in lockstep the way a concurrent caller's fetch-add+fetch-max
// sequence would.
func (t *Table) SequentialSetDegree(u int, degree int64, wf func(int64) float64) {
	old := t.degree[u].Swap(degree)
	t.FetchMaxDegree(degree)

	oldWeight := wf(old)
	newWeight := wf(degree)
	t.FetchMaxWeight(u, newWeight)
	t.AddTotalWeight(newWeight - oldWeight)
}

// AddTotalWeight atomically adds delta to the aggregate total_weight.
func (t *Table) AddTotalWeight(delta float64) {
	for {
		cur := t.totalWeight.Load()
		curF := math.Float64frombits(cur)
		next := math.Float64bits(curF + delta)
		if t.totalWeight.CompareAndSwap(cur, next) {
			return
		}
	}
}

// TotalWeight returns the current aggregate total_weight.
func (t *Table) TotalWeight() float64 { return math.Float64frombits(t.totalWeight.Load()) }

// FetchMaxDegree publishes the max of the aggregate max_degree and d.
func (t *Table) FetchMaxDegree(d int64) {
	for {
		cur := t.maxDegree.Load()
		if d <= cur {
			return
		}
		if t.maxDegree.CompareAndSwap(cur, d) {
			return
		}
	}
}

// MaxDegree returns the current aggregate max_degree.
func (t *Table) MaxDegree() int64 { return t.maxDegree.Load() }

// FetchMaxWmax publishes the max of the aggregate wmax bound and w.
func (t *Table) FetchMaxWmax(w float64) {
	for {
		cur := t.wmax.Load()
		curF := math.Float64frombits(cur)
		if w <= curF {
			return
		}
		if t.wmax.CompareAndSwap(cur, math.Float64bits(w)) {
			return
		}
	}
}

// Wmax returns the current upper bound on any node's weight/count.
func (t *Table) Wmax() float64 { return math.Float64frombits(t.wmax.Load()) }

// Degrees copies out the final degree sequence.
func (t *Table) Degrees() []int64 {
	out := make([]int64, len(t.degree))
	for i := range out {
		out[i] = t.degree[i].Load()
	}
	return out
}
