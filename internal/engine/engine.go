// Package engine implements the parallel epoch engine (C5/C6): a fixed
// pool of worker goroutines synchronised by a cyclic barrier, each epoch
// running a three-phase loop (sample candidate hosts, commit degree
// increases and proposal-list replicas, compact and draw the epoch's
// single leftover "seam" node) until every node has been generated.
package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/nlpa-go/nlpa/internal/nlpaerr"
	"github.com/nlpa-go/nlpa/internal/nodes"
	"github.com/nlpa-go/nlpa/internal/proposal"
	"github.com/nlpa-go/nlpa/internal/runlength"
	"github.com/nlpa-go/nlpa/internal/weightfn"
)

// Options configures a generation run.
type Options struct {
	NumSeedNodes   int64
	NumRandNodes   int64
	InitialDegree  int64
	WeightFunction *weightfn.Function
	NumThreads     int
}

// Engine holds the shared state for one generation run.
type Engine struct {
	st         *state
	numThreads int
}

// New allocates the node table and proposal list for opts and returns an
// Engine ready for SetSeedGraphDegrees followed by Run.
func New(opts Options) *Engine {
	if opts.NumThreads < 1 {
		panic(nlpaerr.New(nlpaerr.CodeInvalidInput, "engine requires at least one thread"))
	}
	numTotal := opts.NumSeedNodes + opts.NumRandNodes

	return &Engine{
		st: &state{
			table:         nodes.NewTable(int(numTotal)),
			proposals:     proposal.NewList(int(numTotal), opts.NumThreads),
			runlen:        runlength.New(opts.WeightFunction, opts.InitialDegree),
			wf:            opts.WeightFunction,
			numSeedNodes:  opts.NumSeedNodes,
			numTotalNodes: numTotal,
			initialDegree: opts.InitialDegree,
		},
		numThreads: opts.NumThreads,
	}
}

// SetSeedGraphDegrees installs the initial degree sequence (one entry per
// seed node, in node-ID order) and primes the proposal list and
// run-length sampler so the first epoch can begin.
func (e *Engine) SetSeedGraphDegrees(degrees []int64) {
	if int64(len(degrees)) != e.st.numSeedNodes {
		panic(nlpaerr.New(nlpaerr.CodeInvalidInput, "seed degree count does not match num_seed_nodes"))
	}

	var maxDegree int64
	for node, degree := range degrees {
		e.st.table.SequentialSetDegree(node, degree, func(d int64) float64 { return e.st.wf.Get(int(d)) })
		if degree > maxDegree {
			maxDegree = degree
		}
	}
	e.st.table.FetchMaxDegree(maxDegree)

	for u := int64(0); u < e.st.numSeedNodes; u++ {
		e.st.sequentialUpdateNodeCountsInProposalList(u)
	}

	e.st.runlen.SetupEpoch(e.st.numSeedNodes, e.st.numTotalNodes, e.st.table.MaxDegree(), e.st.table.TotalWeight())
}

// Run spawns numThreads workers and blocks until every node in
// [NumSeedNodes, NumTotalNodes) has been generated, or ctx is cancelled.
// masterRNG seeds one independent RNG per worker.
func (e *Engine) Run(ctx context.Context, masterRNG *rand.Rand, onProgress ProgressFunc) {
	barrier := NewBarrier(e.numThreads)
	done := make(chan struct{})
	startTime := time.Now()
	for rank := 0; rank < e.numThreads; rank++ {
		w := &worker{
			rank:       rank,
			numThreads: e.numThreads,
			rng:        rand.New(rand.NewSource(masterRNG.Int63())),
			st:         e.st,
			writer:     e.st.proposals.NewWriter(),
			sampler:    e.st.proposals.NewSampler(),
			barrier:    barrier,
			epochEnd:   e.st.numSeedNodes,

			hostsLinked: make([]int64, 0, 10000),
			start:       startTime,
			lastReport:  startTime,
		}
		go func() {
			w.run(ctx, onProgress)
			done <- struct{}{}
		}()
	}
	for i := 0; i < e.numThreads; i++ {
		<-done
	}
}

// Degrees returns the final degree of every node, in node-ID order.
func (e *Engine) Degrees() []int64 { return e.st.table.Degrees() }

// NumTotalNodes returns the total node count this engine will generate.
func (e *Engine) NumTotalNodes() int64 { return e.st.numTotalNodes }
