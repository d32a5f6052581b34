package sequential

import "github.com/nlpa-go/nlpa/internal/edgewriter"

// PolyPA is the plain replicated-proposal-list sampler: every sampling
// draw picks a uniformly random proposal-list entry, then accepts it
// with probability weight/(count*wmax) (rejection sampling correcting
// for the list's approximate replication counts).
// Grounded on algo_poly_pa.rs.
type PolyPA struct {
	*core
}

// NewPolyPA builds a PolyPA ready for SetSeedGraphDegrees.
func NewPolyPA(opts Options) *PolyPA {
	return &PolyPA{core: newCore(opts)}
}

// SetSeedGraphDegrees installs the seed degree sequence.
func (a *PolyPA) SetSeedGraphDegrees(degrees []int64) { a.setSeedGraphDegrees(degrees) }

// Degrees returns the final degree sequence.
func (a *PolyPA) Degrees() []int64 { return a.degrees() }

// Run generates every node from numSeedNodes to numTotalNodes, writing
// each new edge to w. With replacement (the default), a host may be
// drawn more than once for the same new node, in which case it
// receives one degree increment per draw; without replacement, the
// initialDegree hosts are always distinct.
func (a *PolyPA) Run(rng Rng, w edgewriter.EdgeWriter) {
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

func (a *PolyPA) sampleHost(rng Rng, hosts []int64) int64 {
	for {
		proposal := a.proposalList[rng.Intn(len(a.proposalList))]

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
