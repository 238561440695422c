// Package transport wraps the compact form for embedding in a URL query
// parameter.
//
// # Encoding
//
//	document -> compact form -> compress (best effort) -> base64url, no padding
//
// The token carries no marker distinguishing compressed from raw payloads, so
// [Codec.Decode] tries decompression and falls back to the raw bytes.
//
// # Decoding
//
//	token -> base64 -> decompress or raw -> compact form
//	                                     \-> legacy percent-encoded JSON
//
// The compact form is always tried first; the legacy JSON format is a last
// resort for links created before the compact form existed. When neither
// succeeds, Decode returns an error wrapping [ErrNoDocument]; callers treat
// that as "nothing to load".
//
// # Compression strategies
//
// The host picks a [Compressor] at startup with [WithCompressor] or
// [CompressorByName]: [GzipCompressor] or [NoopCompressor]. A gzip-capable
// codec decodes tokens from either strategy; a no-op codec only decodes
// uncompressed tokens.
//
// # Share URLs
//
// [ShareURL] and [TokenFromURL] put the token in and take it out of the
// "drawing" query parameter:
//
//	https://pixelshare.example/?drawing=H4sIAAAAAAAA_yq...
package transport
