// Package client talks to a pixelshare server over its REST API.
//
// Errors returned by the server keep their code, so callers can test them
// with errors.Is from pkg/errors:
//
//	c, _ := client.New("http://localhost:8080", sessionID)
//	rec, err := c.Get(ctx, id)
//	if errors.Is(err, errors.ErrCodeDrawingNotFound) {
//	    ...
//	}
//
// Network failures and 5xx responses are retried with exponential backoff.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/pixelshare/pkg/api"
	"github.com/matzehuels/pixelshare/pkg/buildinfo"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/httputil"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// Client is a pixelshare API client. It is safe for concurrent use.
type Client struct {
	http      *http.Client
	baseURL   string
	sessionID string
	attempts  int
	delay     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRetry sets the attempt count and initial backoff delay for
// transient failures. One attempt disables retries.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// New returns a client for the server at baseURL. sessionID may be empty
// for the public share endpoints.
func New(baseURL, sessionID string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		http:      httputil.NewHTTPClient(),
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		attempts:  3,
		delay:     time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Me returns the session the client authenticates as.
func (c *Client) Me(ctx context.Context) (*api.MeResponse, error) {
	var out api.MeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the caller's drawings, most recently updated first.
func (c *Client) List(ctx context.Context) ([]api.DrawingSummary, error) {
	var out struct {
		Drawings []api.DrawingSummary `json:"drawings"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/drawings", nil, &out); err != nil {
		return nil, err
	}
	return out.Drawings, nil
}

// Create stores d as a new drawing.
func (c *Client) Create(ctx context.Context, d *drawing.Document) (*api.DrawingMeta, error) {
	var out struct {
		Drawing api.DrawingMeta `json:"drawing"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/drawings", api.DrawingRequest{DrawingData: d}, &out); err != nil {
		return nil, err
	}
	return &out.Drawing, nil
}

// Get loads a drawing by ID.
func (c *Client) Get(ctx context.Context, id string) (*api.DrawingResponse, error) {
	var out api.DrawingResponse
	if err := c.doJSON(ctx, http.MethodGet, drawingPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the content of a stored drawing.
func (c *Client) Update(ctx context.Context, id string, d *drawing.Document) (*api.DrawingMeta, error) {
	var out struct {
		Drawing api.DrawingMeta `json:"drawing"`
	}
	if err := c.doJSON(ctx, http.MethodPut, drawingPath(id), api.DrawingRequest{DrawingData: d}, &out); err != nil {
		return nil, err
	}
	return &out.Drawing, nil
}

// Delete removes a stored drawing.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, drawingPath(id), nil, nil)
}

// Share asks the server for a share token and URL for d.
func (c *Client) Share(ctx context.Context, d *drawing.Document) (*api.ShareResponse, error) {
	var out api.ShareResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/share", api.DrawingRequest{DrawingData: d}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Resolve decodes a share token on the server.
func (c *Client) Resolve(ctx context.Context, token string) (*drawing.Document, transport.Format, error) {
	var out api.ResolveResponse
	path := "/api/share?" + url.Values{transport.QueryParam: {token}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, "", err
	}
	if out.DrawingData == nil {
		return nil, "", errors.New(errors.ErrCodeInternal, "server returned no drawing")
	}
	return out.DrawingData, out.Format, nil
}

// PreviewOptions selects a rendering. Zero values use the server defaults.
type PreviewOptions struct {
	Format    string
	Size      float64
	GridLines *bool
}

func (o PreviewOptions) query() url.Values {
	q := url.Values{}
	if o.Size > 0 {
		q.Set("size", strconv.FormatFloat(o.Size, 'f', -1, 64))
	}
	if o.GridLines != nil {
		q.Set("grid", strconv.FormatBool(*o.GridLines))
	}
	return q
}

// Preview renders a stored drawing.
func (c *Client) Preview(ctx context.Context, id string, opts PreviewOptions) ([]byte, error) {
	return c.doRaw(ctx, drawingPath(id)+"/preview."+previewFormat(opts)+encodeQuery(opts.query()))
}

// SharePreview renders the drawing behind a share token.
func (c *Client) SharePreview(ctx context.Context, token string, opts PreviewOptions) ([]byte, error) {
	q := opts.query()
	q.Set(transport.QueryParam, token)
	return c.doRaw(ctx, "/api/share/preview."+previewFormat(opts)+encodeQuery(q))
}

func previewFormat(opts PreviewOptions) string {
	if opts.Format == "" {
		return "png"
	}
	return opts.Format
}

func encodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func drawingPath(id string) string {
	return "/api/drawings/" + url.PathEscape(id)
}

// doJSON sends body as JSON and decodes the response into out when out is
// non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode request")
		}
	}

	data, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode %s %s response", method, path)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// do runs one request with retries and returns the response body of a 2xx
// reply.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var data []byte
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		data, err = c.doRequest(ctx, method, path, payload)
		return err
	})
	if re, ok := err.(*httputil.RetryableError); ok {
		return nil, re.Err
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if c.sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s %s", method, path)
		}
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, path)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read %s %s response", method, path)}
	}
	if err := checkStatus(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

// checkStatus turns a non-2xx response into a coded error, preferring the
// code and message from the server's error body.
func checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var eb struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	err := errors.New(errors.ErrCodeNetwork, "server returned status %d", status)
	if json.Unmarshal(body, &eb) == nil && eb.Code != "" {
		err = errors.New(errors.Code(eb.Code), "%s", eb.Error)
	}

	if status >= http.StatusInternalServerError {
		return &httputil.RetryableError{Err: err}
	}
	return err
}
