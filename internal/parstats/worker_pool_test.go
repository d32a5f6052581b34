package parstats

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestChunkProcessorSumsDegreeChunks(t *testing.T) {
	config := DefaultPoolConfig().WithWorkers(4)
	processor := NewChunkProcessor[int64, int64](config)

	degrees := make([]int64, 1000)
	var want int64
	for i := range degrees {
		degrees[i] = int64(i % 7)
		want += degrees[i]
	}

	got := processor.ProcessChunks(
		context.Background(),
		degrees,
		func(_ context.Context, chunk []int64, _ int) int64 {
			var sum int64
			for _, v := range chunk {
				sum += v
			}
			return sum
		},
		func(results []int64) int64 {
			var total int64
			for _, r := range results {
				total += r
			}
			return total
		},
	)

	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestChunkProcessorEmptyInput(t *testing.T) {
	processor := NewChunkProcessor[int64, int64](DefaultPoolConfig())
	got := processor.ProcessChunks(
		context.Background(),
		nil,
		func(_ context.Context, chunk []int64, _ int) int64 { return 1 },
		func(results []int64) int64 { return 1 },
	)
	if got != 0 {
		t.Errorf("expected zero value for empty input, got %d", got)
	}
}

func TestForEachProcessesEveryItem(t *testing.T) {
	items := make([]int64, 500)
	for i := range items {
		items[i] = int64(i)
	}

	var seen [500]bool
	var mu sync.Mutex
	processed, err := ForEach(context.Background(), items, DefaultPoolConfig().WithWorkers(8), func(_ context.Context, item int64) error {
		mu.Lock()
		seen[item] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed != int64(len(items)) {
		t.Errorf("expected %d processed, got %d", len(items), processed)
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("item %d was never processed", i)
		}
	}
}

func TestForEachReportsFirstErrorAndKeepsGoing(t *testing.T) {
	items := []int64{0, 1, 2, 3, 4, 5, 6, 7}
	boom := errors.New("boom")

	processed, err := ForEach(context.Background(), items, DefaultPoolConfig().WithWorkers(2), func(_ context.Context, item int64) error {
		if item == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if processed != int64(len(items))-1 {
		t.Errorf("expected %d processed, got %d", len(items)-1, processed)
	}
}
