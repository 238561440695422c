package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelshare/pkg/api"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/session"
	"github.com/matzehuels/pixelshare/pkg/store"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

// newServer starts an API server and returns its URL and a session ID for
// userID.
func newServer(t *testing.T, userID string) (string, string) {
	t.Helper()
	sessions := session.NewMemoryStore()
	sess, err := session.New(userID, "tester", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := sessions.Set(context.Background(), sess); err != nil {
		t.Fatal(err)
	}

	srv := api.New(store.NewMemoryStore(), sessions, api.WithLogger(log.New(io.Discard)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL, sess.ID
}

func newClient(t *testing.T, baseURL, sessionID string) *Client {
	t.Helper()
	c, err := New(baseURL, sessionID, WithRetry(2, time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func sampleDoc() *drawing.Document {
	d := drawing.New()
	d.Pattern = drawing.PatternBricks
	d.Set(0, 0, "#ff0000")
	d.Set(3, 4, "#00ff00")
	return d
}

func TestNewValidatesURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "localhost:8080"} {
		if _, err := New(u, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("New(%q) error = %v, want INVALID_INPUT", u, err)
		}
	}
	c, err := New("http://localhost:8080/", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL() != "http://localhost:8080" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}

func TestDrawingLifecycle(t *testing.T) {
	ctx := context.Background()
	base, sid := newServer(t, "alice")
	c := newClient(t, base, sid)

	me, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.UserID != "alice" || me.Name != "tester" {
		t.Errorf("Me() = %+v", me)
	}

	meta, err := c.Create(ctx, sampleDoc())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if meta.ID == "" {
		t.Fatal("Create returned empty ID")
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != meta.ID {
		t.Fatalf("List() = %+v", list)
	}

	got, err := c.Get(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.DrawingData.Equal(sampleDoc()) {
		t.Errorf("Get() drawing = %+v", got.DrawingData)
	}

	updated := sampleDoc()
	updated.Set(1, 1, "#0000ff")
	if _, err := c.Update(ctx, meta.ID, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = c.Get(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.DrawingData.Get(1, 1) != "#0000ff" {
		t.Errorf("update not persisted: %+v", got.DrawingData)
	}

	png, err := c.Preview(ctx, meta.ID, PreviewOptions{Size: 50})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("Preview did not return a PNG")
	}

	if err := c.Delete(ctx, meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, meta.ID); !errors.Is(err, errors.ErrCodeDrawingNotFound) {
		t.Errorf("Get after delete error = %v, want DRAWING_NOT_FOUND", err)
	}
}

func TestUnauthorized(t *testing.T) {
	base, _ := newServer(t, "alice")

	anon := newClient(t, base, "")
	if _, err := anon.List(context.Background()); !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("List without session error = %v, want UNAUTHORIZED", err)
	}

	staleID, err := session.GenerateID()
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	stale := newClient(t, base, staleID)
	if _, err := stale.Me(context.Background()); !errors.Is(err, errors.ErrCodeSessionExpired) {
		t.Errorf("Me with unknown session error = %v, want SESSION_EXPIRED", err)
	}
}

func TestShare(t *testing.T) {
	ctx := context.Background()
	base, _ := newServer(t, "alice")
	c := newClient(t, base, "")

	share, err := c.Share(ctx, sampleDoc())
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	token, err := transport.TokenFromURL(share.URL)
	if err != nil {
		t.Fatalf("TokenFromURL(%q): %v", share.URL, err)
	}
	if token != share.Token {
		t.Errorf("URL token = %q, want %q", token, share.Token)
	}

	doc, format, err := c.Resolve(ctx, share.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if format != transport.FormatCompact {
		t.Errorf("format = %q, want %q", format, transport.FormatCompact)
	}
	if !doc.Equal(sampleDoc()) {
		t.Errorf("Resolve() = %+v", doc)
	}

	off := false
	svg, err := c.SharePreview(ctx, share.Token, PreviewOptions{Format: "svg", GridLines: &off})
	if err != nil {
		t.Fatalf("SharePreview: %v", err)
	}
	if !bytes.HasPrefix(svg, []byte("<svg")) {
		t.Errorf("SharePreview output starts with %q", svg[:min(len(svg), 8)])
	}

	if _, _, err := c.Resolve(ctx, "!!!"); !errors.Is(err, errors.ErrCodeInvalidToken) {
		t.Errorf("Resolve(garbage) error = %v, want INVALID_TOKEN", err)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"userId":"bob","expiresAt":"2030-01-01T00:00:00Z"}`)
	}))
	defer ts.Close()

	c := newClient(t, ts.URL, "sid")
	me, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.UserID != "bob" || calls.Load() != 2 {
		t.Errorf("Me() = %+v after %d calls", me, calls.Load())
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad pattern","code":"INVALID_DRAWING"}`)
	}))
	defer ts.Close()

	c := newClient(t, ts.URL, "sid")
	_, err := c.Create(context.Background(), sampleDoc())
	if !errors.Is(err, errors.ErrCodeInvalidDrawing) {
		t.Errorf("Create error = %v, want INVALID_DRAWING", err)
	}
	if errors.UserMessage(err) != "bad pattern" {
		t.Errorf("UserMessage = %q", errors.UserMessage(err))
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := newClient(t, ts.URL, "")
	_, err := c.List(context.Background())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("List error = %v, want NETWORK_ERROR", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}
