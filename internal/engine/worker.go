package engine

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/nlpa-go/nlpa/internal/collections"
	"github.com/nlpa-go/nlpa/internal/proposal"
)

// scale is 2^64, the width of a uint64 draw. Acceptance tests compare a
// uint64 draw against excess*scale/wmax instead of a floating-point
// Bernoulli draw, avoiding a division on every rejection-sampling trial.
const scale float64 = 18446744073709551616.0

// minReportInterval throttles the leader's progress callback.
const minReportInterval = 200 * time.Millisecond

// Progress describes one epoch boundary, reported by the leader worker.
type Progress struct {
	EpochID int64
	Start   int64
	End     int64
	Elapsed time.Duration
}

// ProgressFunc receives epoch progress reports from the leader worker.
type ProgressFunc func(Progress)

type worker struct {
	rank, numThreads int
	rng              *rand.Rand
	st               *state
	writer           *proposal.Writer
	sampler          *proposal.Sampler
	barrier          *Barrier

	hostsLinked []int64

	epochStart, epochEnd int64
	epochID              int64

	totalWeightAtEpochBegin float64
	totalWeight             float64
	maxDegree               int64

	start      time.Time
	lastReport time.Time
}

func (w *worker) isLeader() bool { return w.rank == 0 }

func (w *worker) run(ctx context.Context, onProgress ProgressFunc) {
	w.st.runlen.Sample(w.rng)
	w.barrier.Wait() // all workers' initial run-length claim must land before anyone reads Result()

	for {
		w.setupLocalStateForNewEpoch()

		w.phase1SampleIndependentHosts()

		w.barrier.Wait()

		w.reportProgressSometimes(onProgress)
		w.phase2UpdateProposalList()
		w.st.table.AddTotalWeight(w.totalWeight - w.totalWeightAtEpochBegin)
		w.writer.ReleasePartial()

		w.barrier.Wait()

		if w.isLeader() {
			w.phase3CompactionAndSampling()
			w.st.runlen.SetupEpoch(w.epochEnd, w.st.numTotalNodes, w.st.table.MaxDegree(), w.st.table.TotalWeight())
			if ctx.Err() != nil {
				w.st.cancelled.Store(true)
			}
		}

		if w.epochEnd >= w.st.numTotalNodes {
			break
		}

		w.barrier.Wait()

		if w.st.cancelled.Load() {
			return
		}

		w.st.runlen.Sample(w.rng)

		w.barrier.Wait()
	}

	w.reportProgressForced(onProgress)
}

func (w *worker) setupLocalStateForNewEpoch() {
	w.epochStart = w.epochEnd
	w.epochEnd = w.st.runlen.Result()
	w.epochID++

	// Refresh the sampling window here, after the previous epoch's commit
	// and compaction barriers: [0, next_free) is fully compacted and no
	// writer is active, so every worker snapshots the same valid region.
	w.sampler.UpdateEnd()

	w.totalWeightAtEpochBegin = w.st.table.TotalWeight()
	w.totalWeight = w.totalWeightAtEpochBegin
	w.maxDegree = w.st.table.MaxDegree()
}

func (w *worker) phase1SampleIndependentHosts() {
	hosts := collections.GetInt64Slice()
	defer collections.PutInt64Slice(hosts)

	startNode := w.epochStart + int64(w.rank)
	for n := startNode; n < w.epochEnd; n += int64(w.numThreads) {
		*hosts = (*hosts)[:0]
		w.sampleHosts(hosts)
		w.hostsLinked = append(w.hostsLinked, (*hosts)...)
	}
}

func (w *worker) sampleHosts(hosts *[]int64) {
	wmaxScaled := scale / w.st.table.Wmax()
	for int64(len(*hosts)) < w.st.initialDegree {
		for {
			candidate := w.sampler.Sample(w.rng, 0)
			if containsInt64(*hosts, candidate) {
				continue
			}
			if w.doAcceptHost(candidate, wmaxScaled) {
				*hosts = append(*hosts, candidate)
				break
			}
		}
	}
}

func (w *worker) doAcceptHost(candidate int64, wmaxScaled float64) bool {
	excess := w.st.table.Excess(int(candidate))
	threshold := excess * wmaxScaled
	if threshold >= scale {
		return true
	}
	return w.rng.Uint64() < uint64(threshold)
}

func (w *worker) phase2UpdateProposalList() {
	initialDegree := w.st.initialDegree
	numContributed := w.numberOfIndependentNodesContributed()
	hostsConnectedTo := numContributed * initialDegree
	if hostsConnectedTo > int64(len(w.hostsLinked)) {
		hostsConnectedTo = int64(len(w.hostsLinked))
	}

	hostDegreeIncreases := make(map[int64]int64, hostsConnectedTo)
	for _, h := range w.hostsLinked[:hostsConnectedTo] {
		hostDegreeIncreases[h]++
	}

	assumedNodes := float64(w.epochStart + numContributed)

	// The seam node (epochEnd-1) is deliberately excluded here: it failed
	// the run-length sampler's independence test, so its own out-edges
	// are committed later, sequentially, by phase3SampleCollision.
	seamNode := w.epochEnd - 1
	firstNode := w.epochStart + int64(w.rank)
	for u := firstNode; u < w.epochEnd; u += int64(w.numThreads) {
		if u == seamNode {
			continue
		}
		w.increaseDegreeOfNode(u, initialDegree, assumedNodes)
	}
	for node, inc := range hostDegreeIncreases {
		w.increaseDegreeOfNode(node, inc, assumedNodes)
	}

	w.hostsLinked = w.hostsLinked[:0]
	w.st.table.FetchMaxDegree(w.maxDegree)
}

func (w *worker) numberOfIndependentNodesContributed() int64 {
	nodesInEpoch := w.epochEnd - w.epochStart

	var first int64
	if int64(w.rank) < nodesInEpoch {
		first = 1
	}

	var following int64
	if rem := nodesInEpoch - int64(w.rank) - 1; rem > 0 {
		following = rem / int64(w.numThreads)
	}

	total := first + following
	// The seam node (epochEnd-1) is the last node its owning rank sampled;
	// its hosts are left to phase3SampleCollision.
	seamOwner := (nodesInEpoch - 1) % int64(w.numThreads)
	if int64(w.rank) == seamOwner && total > 0 {
		total--
	}
	return total
}

func (w *worker) increaseDegreeOfNode(node int64, degreeIncrease int64, assumedNumNodes float64) {
	old := w.st.table.FetchAddDegree(int(node), degreeIncrease)
	newDegree := old + degreeIncrease
	if newDegree > w.maxDegree {
		w.maxDegree = newDegree
	}

	newWeight := w.st.wf.Get(int(newDegree))
	oldWeight := w.st.table.FetchMaxWeight(int(node), newWeight)
	w.totalWeight += newWeight - oldWeight

	count := int64(math.Ceil(assumedNumNodes * newWeight / w.totalWeight))
	if oldCount, raised := w.st.table.TryRaiseCount(int(node), count); raised {
		w.writer.Push(node, count-oldCount)
	} else {
		count = oldCount
	}
	w.st.table.FetchMaxWmax(newWeight / float64(count))
}

func (w *worker) phase3CompactionAndSampling() {
	w.st.proposals.Compact()
	w.phase3SampleCollision()
}

func (w *worker) phase3SampleCollision() {
	hosts := collections.GetInt64Slice()
	defer collections.PutInt64Slice(hosts)
	w.sampleHosts(hosts)

	lastNode := w.epochEnd - 1
	w.st.table.SequentialSetDegree(int(lastNode), w.st.initialDegree, w.wfGet)
	w.st.sequentialUpdateNodeCountsInProposalList(lastNode)

	for _, h := range *hosts {
		newDegree := w.st.table.Degree(int(h)) + 1
		w.st.table.SequentialSetDegree(int(h), newDegree, w.wfGet)
		w.st.sequentialUpdateNodeCountsInProposalList(h)
	}
}

func (w *worker) wfGet(degree int64) float64 { return w.st.wf.Get(int(degree)) }

func (w *worker) reportProgressSometimes(onProgress ProgressFunc) {
	if !w.isLeader() || onProgress == nil {
		return
	}
	now := time.Now()
	if now.Sub(w.lastReport) < minReportInterval {
		return
	}
	w.reportProgressNow(onProgress, now)
}

func (w *worker) reportProgressForced(onProgress ProgressFunc) {
	if !w.isLeader() || onProgress == nil {
		return
	}
	w.reportProgressNow(onProgress, time.Now())
}

func (w *worker) reportProgressNow(onProgress ProgressFunc, now time.Time) {
	w.lastReport = now
	onProgress(Progress{
		EpochID: w.epochID,
		Start:   w.epochStart,
		End:     w.epochEnd,
		Elapsed: now.Sub(w.start),
	})
}

func containsInt64(s []int64, v int64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
