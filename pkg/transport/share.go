package transport

import (
	"net/url"
	"strings"

	"github.com/matzehuels/pixelshare/pkg/errors"
)

// QueryParam is the URL query parameter that carries a share token.
const QueryParam = "drawing"

// ShareURL returns base with the token set as the drawing query parameter.
// Existing query parameters on base are preserved.
func ShareURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse base URL %q", base)
	}
	q := u.Query()
	q.Set(QueryParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TokenFromURL extracts the share token from a URL. Input that does not look
// like a URL (no "://" and no "?") is returned unchanged as a bare token.
func TokenFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") && !strings.Contains(raw, "?") {
		if raw == "" {
			return "", errors.Wrap(errors.ErrCodeNoDocument, ErrNoDocument, "empty token")
		}
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse share URL")
	}
	token := u.Query().Get(QueryParam)
	if token == "" {
		return "", errors.Wrap(errors.ErrCodeNoDocument, ErrNoDocument, "URL has no %q parameter", QueryParam)
	}
	return token, nil
}
