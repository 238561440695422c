package transport

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/matzehuels/pixelshare/pkg/errors"
)

func TestGzipCompressor(t *testing.T) {
	in := bytes.Repeat([]byte("0,0:#000000;"), 200)

	g := GzipCompressor{}
	z, err := g.Compress(in)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(z) >= len(in) {
		t.Errorf("compressed %d bytes to %d, expected smaller", len(in), len(z))
	}

	out, err := g.Decompress(z)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Error("Decompress did not restore input")
	}
}

func TestGzipDecompressRejectsPlainBytes(t *testing.T) {
	if _, err := (GzipCompressor{}).Decompress([]byte("s|15|20|20||")); err == nil {
		t.Error("expected error for uncompressed input")
	}
}

func TestGzipDecompressLimit(t *testing.T) {
	g := GzipCompressor{}
	bomb, err := g.Compress(make([]byte, MaxDecompressedSize+1))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := g.Decompress(bomb); err == nil {
		t.Error("expected error for oversize payload")
	}
}

func TestGzipInvalidLevel(t *testing.T) {
	if _, err := (GzipCompressor{Level: 42}).Compress([]byte("x")); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNoopCompressor(t *testing.T) {
	n := NoopCompressor{}
	in := []byte("abc")
	out, err := n.Compress(in)
	if err != nil || !bytes.Equal(out, in) {
		t.Errorf("Compress() = %q, %v", out, err)
	}
	if _, err := n.Decompress(in); !stderrors.Is(err, ErrUnsupported) {
		t.Errorf("Decompress() error = %v, want ErrUnsupported", err)
	}
}

func TestCompressorByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", CompressorGzip, false},
		{"gzip", CompressorGzip, false},
		{"none", CompressorNone, false},
		{"brotli", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CompressorByName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CompressorByName(%q) error = %v", tt.name, err)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidConfig) {
					t.Errorf("code = %v, want INVALID_CONFIG", errors.GetCode(err))
				}
				return
			}
			if c.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.want)
			}
		})
	}
}
