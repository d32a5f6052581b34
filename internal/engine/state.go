package engine

import (
	"math"
	"sync/atomic"

	"github.com/nlpa-go/nlpa/internal/nodes"
	"github.com/nlpa-go/nlpa/internal/proposal"
	"github.com/nlpa-go/nlpa/internal/runlength"
	"github.com/nlpa-go/nlpa/internal/weightfn"
)

// state is the data shared by every worker for the life of a run: the
// node table, the proposal list, and the run-length sampler, plus the
// fixed parameters of the generation.
type state struct {
	table     *nodes.Table
	proposals *proposal.List
	runlen    *runlength.Sampler
	wf        *weightfn.Function

	numSeedNodes  int64
	numTotalNodes int64
	initialDegree int64

	// cancelled is set by the leader only, between the commit barrier and
	// the epoch-reset barrier, so every worker observes the same value
	// when deciding whether to abandon the run. A worker must never act
	// on ctx directly: workers reading ctx at different instants would
	// disagree and strand the others at a barrier.
	cancelled atomic.Bool
}

// sequentialUpdateNodeCountsInProposalList raises node's proposal-list
// replica count to the minimum implied by its current weight share of
// the seed-sized total, pushing any newly required replicas, then folds
// its excess weight/count ratio into the aggregate wmax upper bound.
func (s *state) sequentialUpdateNodeCountsInProposalList(node int64) {
	targetCount := int64(math.Ceil(float64(s.numSeedNodes) * s.table.Weight(int(node)) / s.table.TotalWeight()))
	cur := s.table.Count(int(node))
	if cur < targetCount {
		s.proposals.UnbufferedPush(node, targetCount-cur)
		s.table.SetCount(int(node), targetCount)
		cur = targetCount
	}
	excess := s.table.Weight(int(node)) / float64(cur)
	s.table.FetchMaxWmax(excess)
}
