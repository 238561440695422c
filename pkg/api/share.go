package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pixelshare/pkg/cache"
	"github.com/matzehuels/pixelshare/pkg/codec"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/preview"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

// ShareResponse is the body of a share request.
type ShareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// ResolveResponse is the body of a token lookup.
type ResolveResponse struct {
	DrawingData *drawing.Document `json:"drawingData"`
	Format      transport.Format  `json:"format"`
}

func (s *Server) handleShareCreate(w http.ResponseWriter, r *http.Request) {
	doc, err := readDrawing(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token := s.codec.Encode(doc)
	u, err := transport.ShareURL(s.baseURL, token)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "build share URL"))
		return
	}
	s.writeJSON(w, r, http.StatusOK, ShareResponse{Token: token, URL: u})
}

func (s *Server) handleShareResolve(w http.ResponseWriter, r *http.Request) {
	doc, format, err := s.resolve(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ResolveResponse{DrawingData: doc, Format: format})
}

func (s *Server) handleSharePreview(w http.ResponseWriter, r *http.Request) {
	doc, _, err := s.resolve(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.renderPreview(w, r, doc)
}

// resolve decodes the token in the drawing query parameter.
func (s *Server) resolve(r *http.Request) (*drawing.Document, transport.Format, error) {
	token := strings.TrimSpace(r.URL.Query().Get(transport.QueryParam))
	if token == "" {
		return nil, "", errors.Wrap(errors.ErrCodeNoDocument, transport.ErrNoDocument, "missing %q parameter", transport.QueryParam)
	}
	return s.decodeToken(r.Context(), token)
}

// decodeToken decodes token through the cache. Entries hold the format name
// and the compact form separated by a newline.
func (s *Server) decodeToken(ctx context.Context, token string) (*drawing.Document, transport.Format, error) {
	data, err := cache.GetOrCompute(ctx, s.cache, s.keyer.TokenKey(token), cache.KeyTypeToken, s.tokenTTL, func() ([]byte, error) {
		doc, format, err := s.codec.Decode(token)
		if err != nil {
			return nil, err
		}
		return []byte(string(format) + "\n" + codec.Marshal(doc)), nil
	})
	if err != nil {
		return nil, "", err
	}

	format, compact, ok := strings.Cut(string(data), "\n")
	if !ok {
		return nil, "", errors.New(errors.ErrCodeInternal, "malformed token cache entry")
	}
	doc, err := codec.Unmarshal(compact)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "malformed token cache entry")
	}
	return doc, transport.Format(format), nil
}

// renderPreview writes doc in the {format} route parameter. The optional
// size and grid query parameters override the server defaults.
func (s *Server) renderPreview(w http.ResponseWriter, r *http.Request, doc *drawing.Document) {
	format, err := preview.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := cache.PreviewKeyOpts{Format: format, MaxSize: s.maxSize, GridLines: s.gridLines}
	q := r.URL.Query()
	if v := q.Get("size"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil || size <= 0 || size > preview.MaxSizeLimit {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "size must be a number between 1 and %d", preview.MaxSizeLimit))
			return
		}
		opts.MaxSize = size
	}
	if v := q.Get("grid"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "grid must be a boolean"))
			return
		}
		opts.GridLines = on
	}

	key := s.keyer.PreviewKey(cache.HashString(codec.Marshal(doc)), opts)
	data, err := cache.GetOrCompute(r.Context(), s.cache, key, cache.KeyTypePreview, s.previewTTL, func() ([]byte, error) {
		return preview.Render(format, doc, preview.WithMaxSize(opts.MaxSize), preview.WithGridLines(opts.GridLines))
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBlob(w, preview.ContentType(format), data)
}
