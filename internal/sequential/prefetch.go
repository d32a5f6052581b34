package sequential

import "github.com/nlpa-go/nlpa/internal/edgewriter"

// prefetchBatch is the number of proposal-list indices drawn per batch.
const prefetchBatch = 64

// PolyPAPrefetch is the batched-candidate variant of PolyPA: instead of
// drawing one proposal-list index per rejection-sampling attempt, it
// draws a whole batch up front and works through it before drawing more,
// amortizing the random-index-generation cost across many trials. This
// captures the spirit of the reference's prefetch intrinsic (overlapping
// memory latency with computation) without a hardware-specific prefetch,
// which Go has no portable way to express.
type PolyPAPrefetch struct {
	*core
	batch []int64
	pos   int
}

// NewPolyPAPrefetch builds a PolyPAPrefetch ready for SetSeedGraphDegrees.
func NewPolyPAPrefetch(opts Options) *PolyPAPrefetch {
	return &PolyPAPrefetch{core: newCore(opts)}
}

// SetSeedGraphDegrees installs the seed degree sequence.
func (a *PolyPAPrefetch) SetSeedGraphDegrees(degrees []int64) { a.setSeedGraphDegrees(degrees) }

// Degrees returns the final degree sequence.
func (a *PolyPAPrefetch) Degrees() []int64 { return a.degrees() }

// Run generates every node from numSeedNodes to numTotalNodes, writing
// each new edge to w. With replacement (the default), a host may be
// drawn more than once for the same new node, in which case it
// receives one degree increment per draw; without replacement, the
// initialDegree hosts are always distinct.
func (a *PolyPAPrefetch) Run(rng Rng, w edgewriter.EdgeWriter) {
	hosts := make([]int64, 0, a.initialDegree)

	for newNode := a.numSeedNodes; newNode < a.numTotalNodes; newNode++ {
		hosts = hosts[:0]
		for int64(len(hosts)) < a.initialDegree {
			h := a.sampleHost(rng, hosts)
			hosts = append(hosts, h)
		}

		a.numCurrentNodes = newNode

		for _, h := range hosts {
			a.increaseDegree(h)
			w.AddEdge(newNode, h)
		}

		a.setDegree(newNode, a.initialDegree)
	}
}

func (a *PolyPAPrefetch) nextCandidate(rng Rng) int64 {
	if a.pos >= len(a.batch) {
		if cap(a.batch) < prefetchBatch {
			a.batch = make([]int64, prefetchBatch)
		}
		a.batch = a.batch[:prefetchBatch]
		n := len(a.proposalList)
		for i := range a.batch {
			a.batch[i] = a.proposalList[rng.Intn(n)]
		}
		a.pos = 0
	}
	v := a.batch[a.pos]
	a.pos++
	return v
}

func (a *PolyPAPrefetch) sampleHost(rng Rng, hosts []int64) int64 {
	for {
		proposal := a.nextCandidate(rng)

		if a.withoutReplacement && containsInt64(hosts, proposal) {
			continue
		}

		info := a.nodes[proposal]
		p := info.weight / float64(info.count) / a.wmax
		if rng.Float64() < p {
			return proposal
		}
	}
}
