package edgewriter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterCountsEdges(t *testing.T) {
	var c Counter
	var w EdgeWriter = &c
	w.AddEdge(0, 1)
	w.AddEdge(1, 2)
	require.EqualValues(t, 2, c.NumberOfEdges())
}

func TestDegreeCountAccumulatesBothEndpoints(t *testing.T) {
	d := NewDegreeCount(4)
	d.AddEdge(0, 1)
	d.AddEdge(0, 2)
	d.AddEdge(1, 3)

	require.EqualValues(t, 3, d.NumberOfEdges())
	require.Equal(t, []int64{2, 2, 1, 1}, d.Degrees())
}
