package cache

import (
	"context"
	"time"

	"github.com/matzehuels/pixelshare/pkg/observability"
)

// Default time-to-live values.
const (
	// TokenTTL bounds how long a decoded share token is remembered. Tokens are
	// immutable, so this only limits memory.
	TokenTTL = 24 * time.Hour

	// PreviewTTL bounds how long rendered previews are kept.
	PreviewTTL = 7 * 24 * time.Hour
)

// Key types reported to observability hooks.
const (
	KeyTypeToken   = "token"
	KeyTypePreview = "preview"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss with ok=false and a nil error; errors are reserved for
// backend failures. A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	// TokenKey keys the decoded compact form of a share token.
	TokenKey(token string) string

	// PreviewKey keys a rendered preview of the document with the given
	// content hash.
	PreviewKey(docHash string, opts PreviewKeyOpts) string
}

// PreviewKeyOpts are the render options that change preview output.
type PreviewKeyOpts struct {
	Format    string  `json:"format"`
	MaxSize   float64 `json:"max_size"`
	GridLines bool    `json:"grid_lines"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TokenKey returns "token:<sha256>".
func (DefaultKeyer) TokenKey(token string) string {
	return hashKey(KeyTypeToken, token)
}

// PreviewKey returns "preview:<sha256>" over the document hash and options.
func (DefaultKeyer) PreviewKey(docHash string, opts PreviewKeyOpts) string {
	return hashKey(KeyTypePreview, docHash, opts)
}

// GetOrCompute returns the cached value for key, or calls fn, stores its
// result with ttl and returns it. Backend read errors are treated as misses
// and write errors are ignored, so a failing cache degrades to no cache.
func GetOrCompute(ctx context.Context, c Cache, key, keyType string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error) {
	hooks := observability.Cache()

	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, keyType)
		return data, nil
	}
	hooks.OnCacheMiss(ctx, keyType)

	data, err := fn()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}
