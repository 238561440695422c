package transport

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelshare/pkg/codec"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/observability"
)

// Format identifies which wire format a token decoded from.
type Format string

const (
	FormatCompact Format = "compact"
	FormatLegacy  Format = "legacy"
)

// Sentinel errors. Returned errors wrap one of these.
var (
	// ErrInvalidToken means the token is not valid base64url.
	ErrInvalidToken = errors.New(errors.ErrCodeInvalidToken, "token is not valid base64url")

	// ErrNoDocument means neither the compact nor the legacy format could
	// recover a drawing.
	ErrNoDocument = errors.New(errors.ErrCodeNoDocument, "no drawing could be recovered")
)

// Codec turns drawings into URL-safe share tokens and back.
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	compressor Compressor
	logger     *log.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithCompressor selects the compression strategy. Nil selects [NoopCompressor].
func WithCompressor(c Compressor) Option {
	return func(t *Codec) {
		if c == nil {
			c = NoopCompressor{}
		}
		t.compressor = c
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(t *Codec) {
		if l != nil {
			t.logger = l
		}
	}
}

// New returns a Codec. Without options it gzips and logs to log.Default().
func New(opts ...Option) *Codec {
	c := &Codec{
		compressor: GzipCompressor{},
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compressor returns the configured compression strategy.
func (c *Codec) Compressor() Compressor { return c.compressor }

// Encode produces a share token for d. Compression is best effort: if it
// fails the raw compact bytes are encoded instead. Encode never fails.
//
// The token carries no marker saying whether it was compressed.
func (c *Codec) Encode(d *drawing.Document) string {
	compact := []byte(codec.Marshal(d))

	payload, used := compact, CompressorNone
	if z, err := c.compressor.Compress(compact); err != nil {
		c.logger.Debug("compression failed, sending raw", "compressor", c.compressor.Name(), "err", err)
	} else {
		payload, used = z, c.compressor.Name()
	}

	token := base64.RawURLEncoding.EncodeToString(payload)
	observability.Codec().OnEncode(used, len(compact), len(token))
	return token
}

// Decode recovers a drawing from a share token.
//
// The token is base64url-decoded, then decompressed if possible; bytes that
// do not decompress are used as-is. The text is tried as a compact form
// first and, failing that, as the legacy percent-encoded JSON format.
func (c *Codec) Decode(token string) (*drawing.Document, Format, error) {
	d, format, err := c.decode(token)
	observability.Codec().OnDecode(string(format), len(token), err)
	return d, format, err
}

func (c *Codec) decode(token string) (*drawing.Document, Format, error) {
	raw, err := decodeBase64URL(token)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidToken, ErrInvalidToken, "%v", err)
	}

	text := string(raw)
	if inflated, err := c.compressor.Decompress(raw); err == nil {
		text = string(inflated)
	} else {
		c.logger.Debug("token not compressed, reading raw bytes", "compressor", c.compressor.Name(), "err", err)
	}

	if d, err := codec.Unmarshal(text); err == nil {
		return d, FormatCompact, nil
	}

	d, err := decodeLegacy(text)
	if err != nil {
		c.logger.Debug("legacy decode failed", "err", err)
		return nil, "", errors.Wrap(errors.ErrCodeNoDocument, ErrNoDocument, "%v", err)
	}
	return d, FormatLegacy, nil
}

// decodeBase64URL reverses the URL-safe substitution, restores padding and
// decodes. Standard-alphabet and already padded input is accepted too.
func decodeBase64URL(token string) ([]byte, error) {
	s := strings.NewReplacer("-", "+", "_", "/").Replace(token)
	if pad := (4 - len(s)%4) % 4; pad > 0 {
		s += strings.Repeat("=", pad)
	}
	return base64.StdEncoding.DecodeString(s)
}

// decodeLegacy parses the pre-compact share format: a percent-encoded JSON
// document. Missing or zero fields take the package defaults.
func decodeLegacy(text string) (*drawing.Document, error) {
	unescaped, err := url.PathUnescape(text)
	if err != nil {
		return nil, err
	}
	unescaped = strings.TrimSpace(unescaped)
	if !strings.HasPrefix(unescaped, "{") {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "legacy payload is not a JSON object")
	}

	var d drawing.Document
	if err := json.Unmarshal([]byte(unescaped), &d); err != nil {
		return nil, err
	}
	d.ApplyDefaults()
	return &d, nil
}

// defaultCodec backs the package-level helpers.
var defaultCodec = New()

// Encode produces a share token with gzip compression.
func Encode(d *drawing.Document) string {
	return defaultCodec.Encode(d)
}

// Decode recovers a drawing from a share token produced by any compressor.
func Decode(token string) (*drawing.Document, Format, error) {
	return defaultCodec.Decode(token)
}

// EncodeLegacy produces a token in the pre-compact format. It exists so
// tools can generate fixtures for old links; new links never use it.
func EncodeLegacy(d *drawing.Document) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString([]byte(url.PathEscape(string(data)))), nil
}
