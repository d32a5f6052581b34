package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONWriterCompact(t *testing.T) {
	w := NewJSONWriter[[]int64]()
	var buf bytes.Buffer
	require.NoError(t, w.Write([]int64{1, 1, 2, 5}, &buf))
	assert.Equal(t, "[1,1,2,5]\n", buf.String())
}

func TestJSONWriterPretty(t *testing.T) {
	type histEntry struct {
		Degree int64 `json:"degree"`
		Count  int64 `json:"count"`
	}

	w := NewPrettyJSONWriter[[]histEntry]()
	var buf bytes.Buffer
	require.NoError(t, w.Write([]histEntry{{Degree: 1, Count: 90}, {Degree: 2, Count: 7}}, &buf))

	var decoded []histEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
	assert.Contains(t, buf.String(), "\n  ", "pretty output is indented")
}

func TestJSONWriterWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "degrees.json")

	w := NewJSONWriter[[]int64]()
	require.NoError(t, w.WriteToFile([]int64{3, 1, 4, 1, 5}, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []int64
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, []int64{3, 1, 4, 1, 5}, decoded)
}
