// Package parstats provides the generic parallel helpers the generator's
// statistics paths use: chunked degree-histogram counting and sharded
// seed-graph ingestion. The epoch engine does not build on this package;
// it needs a cyclic barrier with two rendezvous points per round, a
// shape a channel-fed task pool cannot express.
package parstats

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// PoolConfig bounds how many goroutines a helper fans out to.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: runtime.NumCPU() clamped to [2, 8]
	MaxWorkers int

	// TaskBufferSize is the buffer size for the work channel.
	// Default: MaxWorkers * 2
	TaskBufferSize int
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // cap to avoid oversubscribing small statistics jobs
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{
		MaxWorkers:     workers,
		TaskBufferSize: workers * 2,
	}
}

// WithWorkers returns a copy of the config with MaxWorkers set to n.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// ChunkProcessor splits one large slice into per-worker chunks, runs a
// processor over each chunk concurrently, and reduces the per-chunk
// results into one. The degree histogram is the canonical user: each
// chunk counts its own degrees into a local map, and the reducer merges
// the maps, so no lock is held while counting.
type ChunkProcessor[T any, R any] struct {
	config PoolConfig
}

// NewChunkProcessor creates a chunk processor with the given config.
func NewChunkProcessor[T any, R any](config PoolConfig) *ChunkProcessor[T, R] {
	return &ChunkProcessor[T, R]{config: config}
}

// ProcessChunks partitions items into at most MaxWorkers contiguous
// chunks, applies processor to each concurrently, and returns
// reducer(results). An already-cancelled ctx leaves a chunk's result at
// its zero value; the reducer must tolerate that.
func (p *ChunkProcessor[T, R]) ProcessChunks(
	ctx context.Context,
	items []T,
	processor func(ctx context.Context, chunk []T, workerID int) R,
	reducer func(results []R) R,
) R {
	if len(items) == 0 {
		var zero R
		return zero
	}

	numWorkers := p.config.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = DefaultPoolConfig().MaxWorkers
	}
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	chunkSize := (len(items) + numWorkers - 1) / numWorkers
	results := make([]R, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(workerID int, chunk []T) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			default:
				results[workerID] = processor(ctx, chunk, workerID)
			}
		}(w, items[start:end])
	}

	wg.Wait()
	return reducer(results)
}

// ForEach runs fn over every item with a bounded worker pool. It returns
// the number of items fn completed without error and the first error fn
// returned, if any; processing continues past individual failures so the
// processed count stays meaningful.
func ForEach[T any](
	ctx context.Context,
	items []T,
	config PoolConfig,
	fn func(ctx context.Context, item T) error,
) (processed int64, firstError error) {
	if len(items) == 0 {
		return 0, nil
	}

	numWorkers := config.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = DefaultPoolConfig().MaxWorkers
	}
	if numWorkers > len(items) {
		numWorkers = len(items)
	}
	bufSize := config.TaskBufferSize
	if bufSize <= 0 {
		bufSize = numWorkers * 2
	}

	work := make(chan T, bufSize)

	var processedCount atomic.Int64
	var errOnce sync.Once
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-work:
					if !ok {
						return
					}
					if err := fn(ctx, item); err != nil {
						errOnce.Do(func() {
							mu.Lock()
							firstError = err
							mu.Unlock()
						})
						continue
					}
					processedCount.Add(1)
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case work <- item:
			}
		}
	}()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return processedCount.Load(), firstError
}
