package transport

import (
	"bytes"
	"encoding/base64"
	stderrors "errors"
	"net/url"
	"strings"
	"testing"

	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/observability"
)

func sampleDoc() *drawing.Document {
	return &drawing.Document{
		Pattern:      drawing.PatternBricks,
		PixelSize:    20,
		CanvasWidth:  32,
		CanvasHeight: 32,
		Colors:       []string{"#00ff00", "#ff0000"},
		Grid:         map[string]string{"5,10": "#00ff00", "0,0": "#ff0000", "31,31": "#00ff00"},
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		compressor Compressor
	}{
		{"gzip", GzipCompressor{}},
		{"gzip best", GzipCompressor{Level: 9}},
		{"none", NoopCompressor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithCompressor(tt.compressor))
			token := c.Encode(sampleDoc())

			if strings.ContainsAny(token, "+/=") {
				t.Errorf("token %q is not URL safe", token)
			}

			got, format, err := c.Decode(token)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if format != FormatCompact {
				t.Errorf("format = %q, want %q", format, FormatCompact)
			}
			if !got.Equal(sampleDoc()) {
				t.Errorf("Decode() = %+v, want %+v", got, sampleDoc())
			}
		})
	}
}

func TestGzipDecoderReadsUncompressedTokens(t *testing.T) {
	token := New(WithCompressor(NoopCompressor{})).Encode(sampleDoc())

	got, _, err := New(WithCompressor(GzipCompressor{})).Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(sampleDoc()) {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestUncompressedTokenIsPlainBase64URL(t *testing.T) {
	d := &drawing.Document{Pattern: drawing.PatternBricksVertical, PixelSize: 25, CanvasWidth: 10, CanvasHeight: 10}
	token := New(WithCompressor(NoopCompressor{})).Encode(d)

	want := base64.RawURLEncoding.EncodeToString([]byte("v|25|10|10||"))
	if token != want {
		t.Errorf("Encode() = %q, want %q", token, want)
	}
}

type failingCompressor struct{ NoopCompressor }

func (failingCompressor) Name() string { return "failing" }
func (failingCompressor) Compress([]byte) ([]byte, error) {
	return nil, stderrors.New("no compression stream available")
}

func TestCompressionFailureFallsBack(t *testing.T) {
	c := New(WithCompressor(failingCompressor{}))
	token := c.Encode(sampleDoc())

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("b|20|32|32|")) {
		t.Errorf("fallback payload = %q, want raw compact form", raw)
	}

	got, _, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(sampleDoc()) {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestWhiteCellsDroppedInTransit(t *testing.T) {
	d := sampleDoc()
	d.Grid["1,1"] = "#ffffff"

	got, _, err := Decode(Encode(d))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := got.Grid["1,1"]; ok {
		t.Error("white cell survived transport")
	}
}

func TestDecodeAcceptsPaddedAndStandardAlphabet(t *testing.T) {
	compact := "s|15|20|20|#000000|0,0:#000000"
	for _, token := range []string{
		base64.URLEncoding.EncodeToString([]byte(compact)),
		base64.StdEncoding.EncodeToString([]byte(compact)),
	} {
		got, _, err := Decode(token)
		if err != nil {
			t.Fatalf("Decode(%q): %v", token, err)
		}
		if got.Grid["0,0"] != "#000000" {
			t.Errorf("Decode(%q) grid = %v", token, got.Grid)
		}
	}
}

func TestDecodeLegacy(t *testing.T) {
	legacyJSON := `{"pattern":"bricks","pixelSize":12,"canvasWidth":16,"canvasHeight":8,` +
		`"colors":{"0":"#000000","1":"#ff0000"},"grid":{"2,3":"#ff0000"}}`
	token := base64.RawURLEncoding.EncodeToString([]byte(url.PathEscape(legacyJSON)))

	got, format, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != FormatLegacy {
		t.Errorf("format = %q, want %q", format, FormatLegacy)
	}
	want := &drawing.Document{
		Pattern:      drawing.PatternBricks,
		PixelSize:    12,
		CanvasWidth:  16,
		CanvasHeight: 8,
		Colors:       []string{"#000000", "#ff0000"},
		Grid:         map[string]string{"2,3": "#ff0000"},
	}
	if !got.Equal(want) {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}

func TestDecodeLegacyDefaults(t *testing.T) {
	legacyJSON := `{"canvasWidth":16,"canvasHeight":8,"colors":{},"grid":{}}`
	token := base64.RawURLEncoding.EncodeToString([]byte(url.PathEscape(legacyJSON)))

	got, format, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != FormatLegacy {
		t.Errorf("format = %q, want legacy", format)
	}
	if got.Pattern != drawing.PatternSquares || got.PixelSize != 15 {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.CanvasWidth != 16 || got.CanvasHeight != 8 {
		t.Errorf("explicit fields overwritten: %+v", got)
	}
}

func TestEncodeLegacyRoundTrip(t *testing.T) {
	token, err := EncodeLegacy(sampleDoc())
	if err != nil {
		t.Fatalf("EncodeLegacy: %v", err)
	}
	got, format, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != FormatLegacy || !got.Equal(sampleDoc()) {
		t.Errorf("Decode() = %+v (%s)", got, format)
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name  string
		token string
		code  errors.Code
		cause error
	}{
		{"not base64", "!!!***", errors.ErrCodeInvalidToken, ErrInvalidToken},
		{"impossible length", "abcde", errors.ErrCodeInvalidToken, ErrInvalidToken},
		{"plain text", base64.RawURLEncoding.EncodeToString([]byte("hello")), errors.ErrCodeNoDocument, ErrNoDocument},
		{"too few fields", base64.RawURLEncoding.EncodeToString([]byte("s|15|20|20")), errors.ErrCodeNoDocument, ErrNoDocument},
		{"json null", base64.RawURLEncoding.EncodeToString([]byte("null")), errors.ErrCodeNoDocument, ErrNoDocument},
		{"broken json", base64.RawURLEncoding.EncodeToString([]byte(`%7B"pattern":`)), errors.ErrCodeNoDocument, ErrNoDocument},
		{"bad percent escape", base64.RawURLEncoding.EncodeToString([]byte(`%zz`)), errors.ErrCodeNoDocument, ErrNoDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Decode(tt.token)
			if err == nil {
				t.Fatalf("Decode(%q) = %+v, want error", tt.token, got)
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.code)
			}
			if !stderrors.Is(err, tt.cause) {
				t.Errorf("error %v does not wrap %v", err, tt.cause)
			}
		})
	}
}

type recordingHooks struct {
	observability.NoopCodecHooks
	formats []string
	encoded []string
}

func (r *recordingHooks) OnDecode(format string, _ int, _ error) { r.formats = append(r.formats, format) }
func (r *recordingHooks) OnEncode(compressor string, _, _ int)    { r.encoded = append(r.encoded, compressor) }

func TestHooks(t *testing.T) {
	defer observability.Reset()
	h := &recordingHooks{}
	observability.SetCodecHooks(h)

	c := New(WithCompressor(failingCompressor{}))
	token := c.Encode(sampleDoc())
	_, _, _ = c.Decode(token)
	_, _, _ = c.Decode("!!!")

	if len(h.encoded) != 1 || h.encoded[0] != CompressorNone {
		t.Errorf("encode hooks = %v, want [none]", h.encoded)
	}
	if len(h.formats) != 2 || h.formats[0] != "compact" || h.formats[1] != "" {
		t.Errorf("decode hooks = %v", h.formats)
	}
}
