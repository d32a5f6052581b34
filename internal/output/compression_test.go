package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func degreePayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 7) // degree-sequence dumps are long runs of small values
	}
	return data
}

func TestGzipRoundTrip(t *testing.T) {
	c := NewGzipCompressor(LevelDefault)
	original := degreePayload(10000)

	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original))

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)

	assert.Equal(t, TypeGzip, c.Type())
	assert.Equal(t, "gzip", c.Name())
}

func TestZstdRoundTrip(t *testing.T) {
	c, err := NewZstdCompressor(LevelDefault)
	require.NoError(t, err)
	defer c.Close()

	original := degreePayload(10000)

	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original))

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)

	assert.Equal(t, TypeZstd, c.Type())
	assert.Equal(t, "zstd", c.Name())
}

func TestNoOpPassesThrough(t *testing.T) {
	c := NoOpCompressor{}
	original := degreePayload(64)

	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.Equal(t, original, compressed)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
	assert.Equal(t, TypeNone, c.Type())
}

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name     string
		compType Type
		wantErr  bool
	}{
		{"gzip", TypeGzip, false},
		{"zstd", TypeZstd, false},
		{"none", TypeNone, false},
		{"unknown", Type(100), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.compType, LevelDefault)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c)
			Close(c)
		})
	}
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, TypeGzip, DetectType([]byte{0x1f, 0x8b, 0x08, 0x00}))
	assert.Equal(t, TypeZstd, DetectType([]byte{0x28, 0xb5, 0x2f, 0xfd}))
	assert.Equal(t, TypeNone, DetectType([]byte{0x00, 0x00, 0x00, 0x00}))
	assert.Equal(t, TypeNone, DetectType([]byte{0x1f}))
}

func TestAutoDecompress(t *testing.T) {
	original := degreePayload(4096)

	gz, err := NewGzipCompressor(LevelDefault).Compress(original)
	require.NoError(t, err)
	got, err := AutoDecompress(gz)
	require.NoError(t, err)
	assert.Equal(t, original, got)

	zc, err := NewZstdCompressor(LevelDefault)
	require.NoError(t, err)
	defer zc.Close()
	zs, err := zc.Compress(original)
	require.NoError(t, err)
	got, err = AutoDecompress(zs)
	require.NoError(t, err)
	assert.Equal(t, original, got)

	got, err = AutoDecompress(original)
	require.NoError(t, err)
	assert.Equal(t, original, got, "unrecognized data passes through untouched")
}

func TestCompressionLevelsRoundTrip(t *testing.T) {
	original := degreePayload(10000)

	for _, level := range []Level{LevelFastest, LevelDefault, LevelBest} {
		c := NewGzipCompressor(level)
		compressed, err := c.Compress(original)
		require.NoError(t, err)
		decompressed, err := c.Decompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, original, decompressed)

		zc, err := NewZstdCompressor(level)
		require.NoError(t, err)
		compressed, err = zc.Compress(original)
		require.NoError(t, err)
		decompressed, err = zc.Decompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, original, decompressed)
		zc.Close()
	}
}

func BenchmarkZstdCompress(b *testing.B) {
	c, _ := NewZstdCompressor(LevelDefault)
	defer c.Close()
	data := degreePayload(1 << 16)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Compress(data)
	}
}

func BenchmarkGzipCompress(b *testing.B) {
	c := NewGzipCompressor(LevelDefault)
	data := degreePayload(1 << 16)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Compress(data)
	}
}
