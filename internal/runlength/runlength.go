// Package runlength implements the run-length sampler (C4): for each
// epoch it computes, cooperatively across workers, the longest prefix of
// the epoch's node range that can be sampled independently (i.e. without
// any one node's weight update affecting another's sampling probability
// within the same epoch), using a regime-dependent upper bound on
// weight growth during the epoch.
package runlength

import (
	"math"
	"sync/atomic"

	"github.com/nlpa-go/nlpa/internal/weightfn"
)

// BlockLen is the number of nodes each worker claims at a time in Sample.
const BlockLen = 100

// Rng is the random source the sampler needs: a uniform draw in [0,1).
type Rng interface {
	Float64() float64
}

// Sampler computes the safe independent run length for one epoch. It is
// shared by all workers: SetupEpoch is called once (by the leader) before
// the epoch's phase-1 workers call Sample concurrently, and Result is read
// after a barrier following the last Sample call.
type Sampler struct {
	wf                  *weightfn.Function
	initialDegree       int64
	weightInitialDegree float64

	totalWeight atomic.Uint64 // bits of float64, set once per epoch (no data race: Release/Acquire via atomic)
	maxDegree   atomic.Int64

	lower     atomic.Int64
	upper     atomic.Int64
	realLower atomic.Int64

	weightMaxDegree atomic.Uint64 // bits of float64
}

// New builds a sampler for a fixed weight function and the initial seed
// degree every new node enters the epoch with.
func New(wf *weightfn.Function, initialDegree int64) *Sampler {
	return &Sampler{
		wf:                  wf,
		initialDegree:       initialDegree,
		weightInitialDegree: wf.Get(int(initialDegree)),
	}
}

// SetupEpoch resets the sampler for a new epoch spanning [lower, upper),
// given the current aggregate max_degree and total_weight snapshot. Must
// complete before any worker calls Sample for this epoch.
func (s *Sampler) SetupEpoch(lower, upper, maxDegree int64, totalWeight float64) {
	s.lower.Store(lower)
	s.realLower.Store(lower)
	s.upper.Store(upper - 1)

	s.totalWeight.Store(math.Float64bits(totalWeight))
	s.maxDegree.Store(maxDegree)
	s.weightMaxDegree.Store(math.Float64bits(s.wf.Get(int(maxDegree))))
}

// Sample claims successive BlockLen-sized node ranges and tests each node
// for independence, shrinking upper (via fetch-min) the moment a node
// fails the test. One call keeps claiming blocks until it observes
// start_node > upper or one of its nodes fails; each worker calls it once
// per epoch.
func (s *Sampler) Sample(rng Rng) {
	for {
		startNode := s.lower.Add(BlockLen) - BlockLen
		upper := s.upper.Load()
		if startNode > upper {
			return
		}

		end := startNode + BlockLen
		if upper+1 < end {
			end = upper + 1
		}
		for node := startNode; node < end; node++ {
			if !s.isIndependentRun(rng, node) {
				s.fetchMinUpper(node)
				return
			}
		}
	}
}

// Result returns the epoch's safe run length's exclusive upper bound. It
// is only valid once every worker has returned from Sample and a barrier
// has been crossed.
func (s *Sampler) Result() int64 { return s.upper.Load() + 1 }

func (s *Sampler) fetchMinUpper(node int64) {
	for {
		cur := s.upper.Load()
		if node >= cur {
			return
		}
		if s.upper.CompareAndSwap(cur, node) {
			return
		}
	}
}

func (s *Sampler) isIndependentRun(rng Rng, node int64) bool {
	p := s.probabilityIsIndependent(node)
	pAll := math.Pow(p, float64(s.initialDegree))
	return rng.Float64() < pAll
}

// probabilityIsIndependent bounds, from above, how much any single node's
// weight could have grown by the time `node` is sampled within this
// epoch, then converts that bound into a lower bound on the probability
// that sampling `node` was independent of everything sampled before it.
func (s *Sampler) probabilityIsIndependent(node int64) float64 {
	nodesInEpoch := node - s.realLower.Load()
	hostsInEpoch := nodesInEpoch * s.initialDegree

	totalWeight := math.Float64frombits(s.totalWeight.Load())

	var upperBoundWeightIncrease float64
	switch s.wf.Regime() {
	case weightfn.Sublinear:
		upperBoundWeightIncrease = s.weightInitialDegree*float64(nodesInEpoch) + float64(hostsInEpoch)
	case weightfn.Superlinear:
		ubDmax := s.maxDegree.Load() + nodesInEpoch
		weightUbDmax := s.wf.Get(int(ubDmax))
		upperBoundWeightIncrease = s.weightInitialDegree*float64(nodesInEpoch) +
			(weightUbDmax-math.Float64frombits(s.weightMaxDegree.Load()))*float64(s.initialDegree)
	default: // Linear
		upperBoundWeightIncrease = 2.0 * float64(hostsInEpoch)
	}

	return totalWeight / (totalWeight + upperBoundWeightIncrease)
}
