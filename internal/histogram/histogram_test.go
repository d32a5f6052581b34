package histogram

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCountsEveryDegree(t *testing.T) {
	degrees := []int64{1, 1, 2, 3, 3, 3, 5}
	entries := Build(context.Background(), degrees, 4)

	require.Equal(t, []Entry{
		{Degree: 1, Count: 2},
		{Degree: 2, Count: 1},
		{Degree: 3, Count: 3},
		{Degree: 5, Count: 1},
	}, entries)
}

func TestBuildEmptyInput(t *testing.T) {
	require.Nil(t, Build(context.Background(), nil, 2))
}

func TestBuildAgreesAcrossWorkerCounts(t *testing.T) {
	degrees := make([]int64, 0, 10000)
	for d := int64(1); d <= 50; d++ {
		for i := int64(0); i < d; i++ {
			degrees = append(degrees, d)
		}
	}

	single := Build(context.Background(), degrees, 1)
	parallel := Build(context.Background(), degrees, 8)
	require.Equal(t, single, parallel)
}

func TestWriteTextFormat(t *testing.T) {
	var buf bytes.Buffer
	err := WriteText(&buf, []Entry{{Degree: 2, Count: 5}, {Degree: 4, Count: 1}})
	require.NoError(t, err)
	require.Equal(t, "#DD       2,          5\n#DD       4,          1\n", buf.String())
}
