// Package sequential implements the single-threaded algorithm variants:
// a plain proposal-list sampler ("polypa"), a batched variant of it
// ("polypa-prefetch"), and a Fenwick-tree dynamic-index sampler ("dyn").
// Unlike internal/engine, these run on one goroutine and need no atomics
// or barriers — useful as a correctness baseline and for small graphs
// where parallelism isn't worth its overhead.
package sequential

import (
	"math"

	"github.com/nlpa-go/nlpa/internal/edgewriter"
	"github.com/nlpa-go/nlpa/internal/nlpaerr"
	"github.com/nlpa-go/nlpa/internal/weightfn"
)

// Options configures any of the sequential algorithm variants.
type Options struct {
	NumSeedNodes       int64
	NumRandNodes       int64
	InitialDegree      int64
	WithoutReplacement bool
	ResamplePrevious   bool // only consulted by the "dyn" variant
	WeightFunction     *weightfn.Function
}

// Algorithm is the common surface every sequential variant implements.
type Algorithm interface {
	SetSeedGraphDegrees(degrees []int64)
	Run(rng Rng, w edgewriter.EdgeWriter)
	Degrees() []int64
}

// Rng is the random source every variant needs.
type Rng interface {
	Float64() float64
	Intn(n int) int
}

type nodeInfo struct {
	degree int64
	count  int64
	weight float64
}

// core holds the per-node state and proposal list shared by the
// replicated-list variants (polypa and polypa-prefetch). The "dyn"
// variant does not use it — it has no proposal list, only a weighted
// index.
type core struct {
	numSeedNodes       int64
	numTotalNodes      int64
	numCurrentNodes    int64
	initialDegree      int64
	withoutReplacement bool
	wf                 *weightfn.Function

	nodes        []nodeInfo
	proposalList []int64
	totalWeight  float64
	wmax         float64
}

func newCore(opts Options) *core {
	numTotal := opts.NumSeedNodes + opts.NumRandNodes
	return &core{
		numSeedNodes:       opts.NumSeedNodes,
		numTotalNodes:      numTotal,
		initialDegree:      opts.InitialDegree,
		withoutReplacement: opts.WithoutReplacement,
		wf:                 opts.WeightFunction,
		nodes:              make([]nodeInfo, numTotal),
		proposalList:       make([]int64, 0, 3*numTotal),
	}
}

func (c *core) setSeedGraphDegrees(degrees []int64) {
	if int64(len(degrees)) != c.numSeedNodes {
		panic(nlpaerr.New(nlpaerr.CodeInvalidInput, "seed degree count does not match num_seed_nodes"))
	}
	for i, d := range degrees {
		c.nodes[i].degree = d
		c.nodes[i].weight = c.wf.Get(int(d))
		c.totalWeight += c.nodes[i].weight
	}
	c.numCurrentNodes = c.numSeedNodes
	for u := int64(0); u < c.numSeedNodes; u++ {
		c.updateNodeCountsInProposalList(u)
	}
}

func (c *core) setDegree(node, degree int64) {
	info := &c.nodes[node]
	info.degree = degree

	weightBefore := info.weight
	info.weight = c.wf.Get(int(degree))
	c.totalWeight += info.weight - weightBefore

	c.updateNodeCountsInProposalList(node)
}

func (c *core) increaseDegree(node int64) {
	c.setDegree(node, c.nodes[node].degree+1)
}

func (c *core) updateNodeCountsInProposalList(node int64) {
	info := &c.nodes[node]
	targetCount := int64(math.Ceil(float64(c.numCurrentNodes) * info.weight / c.totalWeight))

	for info.count < targetCount {
		c.proposalList = append(c.proposalList, node)
		info.count++
	}

	excess := info.weight / float64(info.count)
	if c.wmax < excess {
		c.wmax = excess
	}
}

func (c *core) degrees() []int64 {
	out := make([]int64, len(c.nodes))
	for i := range c.nodes {
		out[i] = c.nodes[i].degree
	}
	return out
}

// containsInt64 reports whether v occurs in s. Used to reject
// already-drawn hosts when a variant is sampling without replacement;
// with-replacement draws skip this check entirely, so a single host
// may appear more than once in a node's host list.
func containsInt64(s []int64, v int64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
