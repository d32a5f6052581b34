// Package output writes the generator's diagnostic artifact — the
// final degree sequence dumped by --degrees-out — as JSON, optionally
// run through a compressor. zstd is the default (fast, good ratio on
// long integer runs); gzip stays available for tooling that can't read
// zstd, and "none" for piping into jq.
package output

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Type selects the compression algorithm.
type Type uint8

const (
	TypeGzip Type = 0
	TypeZstd Type = 1
	TypeNone Type = 255
)

// Level trades speed against compression ratio.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBest    Level = 9
)

// Compressor turns byte slices into their compressed form and back.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Type() Type
	Name() string
}

// New creates a compressor for the given type and level.
func New(t Type, level Level) (Compressor, error) {
	switch t {
	case TypeZstd:
		return NewZstdCompressor(level)
	case TypeGzip:
		return NewGzipCompressor(level), nil
	case TypeNone:
		return NoOpCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// Close releases a compressor's resources, if it holds any.
func Close(c Compressor) {
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}

// GzipCompressor wraps compress/gzip.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor maps a Level onto gzip's compression levels.
func NewGzipCompressor(level Level) *GzipCompressor {
	gzipLevel := gzip.DefaultCompression
	switch level {
	case LevelFastest:
		gzipLevel = gzip.BestSpeed
	case LevelBest:
		gzipLevel = gzip.BestCompression
	}
	return &GzipCompressor{level: gzipLevel}
}

func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *GzipCompressor) Type() Type   { return TypeGzip }
func (c *GzipCompressor) Name() string { return "gzip" }

// ZstdCompressor wraps klauspost/compress's zstd encoder/decoder pair.
// Safe for concurrent Compress calls; Close releases both ends.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor maps a Level onto zstd's speed levels.
func NewZstdCompressor(level Level) (*ZstdCompressor, error) {
	zstdLevel := zstd.SpeedDefault
	switch level {
	case LevelFastest:
		zstdLevel = zstd.SpeedFastest
	case LevelBest:
		zstdLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel))
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, err
	}
	return &ZstdCompressor{encoder: encoder, decoder: decoder}, nil
}

func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

func (c *ZstdCompressor) Type() Type   { return TypeZstd }
func (c *ZstdCompressor) Name() string { return "zstd" }

// Close releases the encoder and decoder.
func (c *ZstdCompressor) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// NoOpCompressor passes data through unchanged.
type NoOpCompressor struct{}

func (NoOpCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoOpCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (NoOpCompressor) Type() Type                             { return TypeNone }
func (NoOpCompressor) Name() string                           { return "none" }

// DetectType sniffs the compression type from magic bytes: zstd is
// 0x28 0xb5 0x2f 0xfd, gzip is 0x1f 0x8b. Anything else is assumed
// uncompressed.
func DetectType(data []byte) Type {
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		return TypeZstd
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return TypeGzip
	}
	return TypeNone
}

// AutoDecompress sniffs data's compression and undoes it, so a dump
// can be read back regardless of which --compression wrote it.
func AutoDecompress(data []byte) ([]byte, error) {
	comp, err := New(DetectType(data), LevelDefault)
	if err != nil {
		return nil, err
	}
	defer Close(comp)
	return comp.Decompress(data)
}
