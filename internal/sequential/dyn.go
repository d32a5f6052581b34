package sequential

import (
	"github.com/nlpa-go/nlpa/internal/dynindex"
	"github.com/nlpa-go/nlpa/internal/edgewriter"
	"github.com/nlpa-go/nlpa/internal/nlpaerr"
	"github.com/nlpa-go/nlpa/internal/weightfn"
)

// Dyn is the exact sampler: rather than approximating weights via a
// replicated proposal list, it keeps every node's weight in a Fenwick
// tree (internal/dynindex) and draws in O(log n) with no rejection step
// at all. It is the Go stand-in for the reference's dynamic_weighted_index
// crate, which has no equivalent anywhere in the retrieved example pack.
// Grounded on algo_dynamic_weighted_index.rs.
type Dyn struct {
	numSeedNodes   int64
	numTotalNodes  int64
	initialDegree  int64
	withoutReplace bool
	resamplePrev   bool
	wf             *weightfn.Function
	degree         []int64
	idx            *dynindex.Index
}

// NewDyn builds a Dyn ready for SetSeedGraphDegrees.
func NewDyn(opts Options) *Dyn {
	numTotal := opts.NumSeedNodes + opts.NumRandNodes
	return &Dyn{
		numSeedNodes:   opts.NumSeedNodes,
		numTotalNodes:  numTotal,
		initialDegree:  opts.InitialDegree,
		withoutReplace: opts.WithoutReplacement,
		resamplePrev:   opts.ResamplePrevious,
		wf:             opts.WeightFunction,
		degree:         make([]int64, numTotal),
		idx:            dynindex.New(int(numTotal)),
	}
}

// SetSeedGraphDegrees installs the seed degree sequence and primes the
// weighted index with every seed node's initial weight.
func (d *Dyn) SetSeedGraphDegrees(degrees []int64) {
	if int64(len(degrees)) != d.numSeedNodes {
		panic(nlpaerr.New(nlpaerr.CodeInvalidInput, "seed degree count does not match num_seed_nodes"))
	}
	for i, deg := range degrees {
		d.degree[i] = deg
		d.idx.SetWeight(i, d.wf.Get(int(deg)))
	}
}

// Degrees returns the final degree sequence.
func (d *Dyn) Degrees() []int64 {
	out := make([]int64, len(d.degree))
	copy(out, d.degree)
	return out
}

// Run generates every node from numSeedNodes to numTotalNodes, writing
// each new edge to w.
//
// Without-replacement draws come in two flavours. The default removes
// each chosen host's weight from the index mid-draw, so a later draw for
// the same new node cannot land on it (the weight reappears when the
// host's degree is bumped below). With resample-previous set, weights
// stay in place and a duplicate draw is simply rejected and retried —
// cheaper when the index is dominated by a few heavy nodes, because the
// index never has to be patched and unpatched per draw.
func (d *Dyn) Run(rng Rng, w edgewriter.EdgeWriter) {
	hosts := make([]int64, d.initialDegree)
	rejectDuplicates := d.withoutReplace && d.resamplePrev && d.initialDegree > 1

	for newNode := d.numSeedNodes; newNode < d.numTotalNodes; newNode++ {
		if rejectDuplicates {
			for i := range hosts {
				for {
					h := d.sampleHost(rng)
					if !containsInt64(hosts[:i], h) {
						hosts[i] = h
						break
					}
				}
			}
		} else {
			for i := range hosts {
				h := d.sampleHost(rng)
				hosts[i] = h
				if d.withoutReplace && d.initialDegree > 1 {
					d.idx.RemoveWeight(int(h))
				}
			}
		}

		for _, h := range hosts {
			d.increaseDegree(h)
			w.AddEdge(newNode, h)
		}

		d.degree[newNode] = d.initialDegree
		d.idx.SetWeight(int(newNode), d.wf.Get(int(d.initialDegree)))
	}
}

func (d *Dyn) sampleHost(rng Rng) int64 {
	h, err := d.idx.Sample(rng)
	if err != nil {
		panic(nlpaerr.Wrap(nlpaerr.CodeAlgorithmError, "dyn sampler ran out of weight", err))
	}
	return int64(h)
}

// increaseDegree bumps node's degree and republishes its weight — which
// also restores any weight a without-replacement draw removed.
func (d *Dyn) increaseDegree(node int64) {
	d.degree[node]++
	d.idx.SetWeight(int(node), d.wf.Get(int(d.degree[node])))
}
