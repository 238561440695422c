package transport

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/pixelshare/pkg/errors"
)

// MaxDecompressedSize caps how much a token may inflate to. A 256x256 canvas
// with every cell painted stays well below it.
const MaxDecompressedSize = 1 << 20

// Compressor names accepted by [CompressorByName].
const (
	CompressorGzip = "gzip"
	CompressorNone = "none"
)

// ErrUnsupported is returned by compressors that cannot perform an operation.
var ErrUnsupported = errors.New(errors.ErrCodeUnsupported, "compression unsupported")

// Compressor is a reversible byte-level compression strategy. The host selects
// one at startup; the codec never probes for compression support itself.
type Compressor interface {
	// Name identifies the strategy in logs and hooks.
	Name() string
	// Compress returns the compressed form of p.
	Compress(p []byte) ([]byte, error)
	// Decompress reverses Compress. It must fail, not guess, when p was not
	// produced by Compress.
	Decompress(p []byte) ([]byte, error)
}

// NoopCompressor leaves bytes untouched. Its Decompress always fails so that
// decoding falls through to the raw-bytes path.
type NoopCompressor struct{}

func (NoopCompressor) Name() string                      { return CompressorNone }
func (NoopCompressor) Compress(p []byte) ([]byte, error) { return p, nil }
func (NoopCompressor) Decompress([]byte) ([]byte, error) { return nil, ErrUnsupported }

// GzipCompressor compresses with gzip at the given level.
// The zero value uses gzip.DefaultCompression.
type GzipCompressor struct {
	Level int
}

func (GzipCompressor) Name() string { return CompressorGzip }

// Compress gzips p.
func (g GzipCompressor) Compress(p []byte) ([]byte, error) {
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(p); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress gunzips p, refusing output larger than [MaxDecompressedSize].
func (GzipCompressor) Decompress(p []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(p))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecompressedSize {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", MaxDecompressedSize)
	}
	return out, nil
}

// CompressorByName returns the strategy for a configuration value.
// An empty name selects gzip.
func CompressorByName(name string) (Compressor, error) {
	switch name {
	case "", CompressorGzip:
		return GzipCompressor{}, nil
	case CompressorNone:
		return NoopCompressor{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown compressor %q (must be 'gzip' or 'none')", name)
	}
}

var (
	_ Compressor = NoopCompressor{}
	_ Compressor = GzipCompressor{}
)
