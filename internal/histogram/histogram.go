// Package histogram builds and reports the degree distribution of a
// generated graph: for each observed degree d, how many nodes have
// that degree. Counting is parallelized over chunks of the final
// degree slice using the teacher's generic chunk-processor pattern,
// mirroring how the teacher's analysis commands both compute and
// persist aggregate statistics.
package histogram

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/nlpa-go/nlpa/internal/parstats"
)

// Entry is one (degree, count) pair.
type Entry struct {
	Degree int64 `json:"degree"`
	Count  int64 `json:"count"`
}

// Build computes the degree distribution of degrees in parallel,
// splitting the slice into chunks processed independently and merging
// the per-chunk maps into one. Returns entries sorted by degree.
func Build(ctx context.Context, degrees []int64, numWorkers int) []Entry {
	if len(degrees) == 0 {
		return nil
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	cfg := parstats.DefaultPoolConfig().WithWorkers(numWorkers)
	cp := parstats.NewChunkProcessor[int64, map[int64]int64](cfg)

	merged := cp.ProcessChunks(ctx, degrees,
		func(_ context.Context, chunk []int64, _ int) map[int64]int64 {
			counts := make(map[int64]int64)
			for _, d := range chunk {
				counts[d]++
			}
			return counts
		},
		func(results []map[int64]int64) map[int64]int64 {
			total := make(map[int64]int64)
			for _, counts := range results {
				for d, c := range counts {
					total[d] += c
				}
			}
			return total
		},
	)

	entries := make([]Entry, 0, len(merged))
	for d, c := range merged {
		entries = append(entries, Entry{Degree: d, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Degree < entries[j].Degree })
	return entries
}

// WriteText writes the distribution as "#DD <degree>, <count>" lines,
// right-aligned the way spec.md §6 and the original reports.rs's
// `{:>N}`-padded progress line both format fixed-width numeric fields.
func WriteText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "#DD %7d, %10d\n", e.Degree, e.Count); err != nil {
			return err
		}
	}
	return nil
}
