// Package dynindex implements a dynamic weighted sampling index: a
// Fenwick-tree-backed structure supporting O(log n) weight updates and
// O(log n) weighted random sampling. It is the sequential counterpart of
// the proposal list used by the parallel engine — the "dyn" algorithm
// variant uses it instead of a replicated proposal list because, running
// on a single thread, it can afford exact rather than approximate
// rejection-corrected sampling.
package dynindex

import (
	"github.com/nlpa-go/nlpa/internal/nlpaerr"
)

// Rng is the random source Sample needs. *rand.Rand satisfies it.
type Rng interface {
	Float64() float64
}

// Index is a Fenwick tree (binary indexed tree) over per-item weights,
// supporting prefix-sum queries and weighted sampling in O(log n).
type Index struct {
	tree    []float64 // 1-indexed Fenwick tree of weights
	weights []float64 // current weight of item i (0-indexed), for delta computation
	size    int
}

// New allocates an index for n items, all starting at weight 0.
func New(n int) *Index {
	return &Index{
		tree:    make([]float64, n+1),
		weights: make([]float64, n),
		size:    n,
	}
}

// Len returns the number of items.
func (idx *Index) Len() int { return idx.size }

// add applies delta to the Fenwick tree at 1-indexed position i.
func (idx *Index) add(i int, delta float64) {
	for ; i <= idx.size; i += i & (-i) {
		idx.tree[i] += delta
	}
}

// prefixSum returns the sum of weights in [0, i] (0-indexed, inclusive).
func (idx *Index) prefixSum(i int) float64 {
	var sum float64
	for i++; i > 0; i -= i & (-i) {
		sum += idx.tree[i]
	}
	return sum
}

// Total returns the sum of all weights.
func (idx *Index) Total() float64 {
	if idx.size == 0 {
		return 0
	}
	return idx.prefixSum(idx.size - 1)
}

// Weight returns item i's current weight.
func (idx *Index) Weight(i int) float64 { return idx.weights[i] }

// SetWeight sets item i's weight, updating the tree by the delta from
// its previous value.
func (idx *Index) SetWeight(i int, w float64) {
	delta := w - idx.weights[i]
	idx.weights[i] = w
	idx.add(i+1, delta)
}

// RemoveWeight zeroes item i's weight, excluding it from future samples
// (used for without-replacement sampling within a single draw set).
func (idx *Index) RemoveWeight(i int) { idx.SetWeight(i, 0) }

// Sample draws an item index with probability proportional to its
// current weight. It returns an error if the total weight is zero (no
// item can be drawn).
func (idx *Index) Sample(rng Rng) (int, error) {
	total := idx.Total()
	if total <= 0 {
		return 0, nlpaerr.New(nlpaerr.CodeAlgorithmError, "dynamic weighted index has zero total weight")
	}
	target := rng.Float64() * total
	return idx.findByPrefixSum(target), nil
}

// findByPrefixSum returns the smallest index i such that
// prefixSum(i) > target, using the Fenwick tree's binary-lifting search.
func (idx *Index) findByPrefixSum(target float64) int {
	pos := 0
	remaining := target
	logN := 0
	for (1 << (logN + 1)) <= idx.size {
		logN++
	}
	for step := 1 << logN; step > 0; step >>= 1 {
		next := pos + step
		if next <= idx.size && idx.tree[next] <= remaining {
			pos = next
			remaining -= idx.tree[next]
		}
	}
	if pos >= idx.size {
		pos = idx.size - 1
	}
	return pos
}
