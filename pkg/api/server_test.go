package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelshare/pkg/cache"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/observability"
	"github.com/matzehuels/pixelshare/pkg/session"
	"github.com/matzehuels/pixelshare/pkg/store"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

type testEnv struct {
	handler  http.Handler
	drawings store.Store
	sessions *session.MemoryStore
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{drawings: store.NewMemoryStore(), sessions: session.NewMemoryStore()}
	opts = append([]Option{
		WithLogger(log.New(io.Discard)),
		WithBaseURL("https://pixelshare.example/"),
	}, opts...)
	env.handler = New(env.drawings, env.sessions, opts...).Handler()
	return env
}

// login creates a session for userID and returns its ID.
func (e *testEnv) login(t *testing.T, userID string) string {
	t.Helper()
	sess, err := session.New(userID, "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.sessions.Set(context.Background(), sess); err != nil {
		t.Fatal(err)
	}
	return sess.ID
}

func (e *testEnv) do(t *testing.T, method, target, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decode[errorBody](t, rec)
	if body.Code != code {
		t.Errorf("code = %q, want %q", body.Code, code)
	}
	if body.Error == "" {
		t.Error("error message is empty")
	}
}

func sampleDoc() *drawing.Document {
	d := drawing.New()
	d.Pattern = drawing.PatternBricks
	d.Colors = []string{"#ff0000", "#00ff00"}
	d.Set(0, 0, "#ff0000")
	d.Set(3, 4, "#00ff00")
	return d
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	expectError(t, env.do(t, http.MethodGet, "/nope", "", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	expectError(t, env.do(t, http.MethodGet, "/api/drawings", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	expectError(t, env.do(t, http.MethodGet, "/api/drawings", "bogus", nil), http.StatusUnauthorized, "SESSION_EXPIRED")
	expectError(t, env.do(t, http.MethodPost, "/api/drawings", "", DrawingRequest{DrawingData: sampleDoc()}), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "ada")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if me := decode[MeResponse](t, rec); me.UserID != "ada" {
		t.Errorf("me = %+v", me)
	}
}

func TestNoAuth(t *testing.T) {
	env := newTestEnv(t, WithNoAuth(true))
	rec := env.do(t, http.MethodPost, "/api/drawings", "", DrawingRequest{DrawingData: sampleDoc()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	me := decode[MeResponse](t, env.do(t, http.MethodGet, "/api/me", "", nil))
	if me.UserID != session.LocalUserID {
		t.Errorf("me = %+v, want local user", me)
	}
}

func TestDrawingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ada := env.login(t, "ada")
	bob := env.login(t, "bob")

	rec := env.do(t, http.MethodPost, "/api/drawings", ada, DrawingRequest{DrawingData: sampleDoc()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		Drawing DrawingMeta `json:"drawing"`
	}](t, rec).Drawing
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("created = %+v", created)
	}
	path := "/api/drawings/" + created.ID

	rec = env.do(t, http.MethodGet, path, ada, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	got := decode[DrawingResponse](t, rec)
	if got.ID != created.ID || !got.DrawingData.Equal(sampleDoc()) {
		t.Errorf("get = %+v", got)
	}

	list := decode[struct {
		Drawings []DrawingSummary `json:"drawings"`
	}](t, env.do(t, http.MethodGet, "/api/drawings", ada, nil)).Drawings
	if len(list) != 1 || list[0].ID != created.ID || !strings.HasPrefix(list[0].Drawing, "b|15|20|20|") {
		t.Errorf("list = %+v", list)
	}
	if other := decode[struct {
		Drawings []DrawingSummary `json:"drawings"`
	}](t, env.do(t, http.MethodGet, "/api/drawings", bob, nil)).Drawings; len(other) != 0 {
		t.Errorf("bob sees %d drawings", len(other))
	}

	expectError(t, env.do(t, http.MethodGet, path, bob, nil), http.StatusForbidden, "FORBIDDEN")
	expectError(t, env.do(t, http.MethodPut, path, bob, DrawingRequest{DrawingData: drawing.New()}), http.StatusForbidden, "FORBIDDEN")
	expectError(t, env.do(t, http.MethodDelete, path, bob, nil), http.StatusForbidden, "FORBIDDEN")

	updated := sampleDoc()
	updated.Set(1, 1, "#00ff00")
	rec = env.do(t, http.MethodPut, path, ada, DrawingRequest{DrawingData: updated})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	got = decode[DrawingResponse](t, env.do(t, http.MethodGet, path, ada, nil))
	if got.DrawingData.Get(1, 1) != "#00ff00" {
		t.Errorf("update not persisted: %+v", got.DrawingData.Grid)
	}

	rec = env.do(t, http.MethodDelete, path, ada, nil)
	if rec.Code != http.StatusOK || !decode[map[string]bool](t, rec)["success"] {
		t.Fatalf("delete = %d %s", rec.Code, rec.Body.String())
	}
	expectError(t, env.do(t, http.MethodGet, path, ada, nil), http.StatusNotFound, "DRAWING_NOT_FOUND")
}

func TestCreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ada := env.login(t, "ada")

	outside := sampleDoc()
	outside.Set(99, 99, "#000000")

	tests := []struct {
		name string
		body any
		code string
	}{
		{"missing drawingData", map[string]any{}, "INVALID_INPUT"},
		{"null drawingData", `{"drawingData": null}`, "INVALID_INPUT"},
		{"not JSON", "{", "INVALID_INPUT"},
		{"cell outside canvas", DrawingRequest{DrawingData: outside}, "INVALID_DRAWING"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodPost, "/api/drawings", ada, tt.body), http.StatusBadRequest, tt.code)
		})
	}
}

// corruptStore returns records whose stored form cannot be decoded.
type corruptStore struct{ *store.MemoryStore }

func (c corruptStore) Get(ctx context.Context, id string) (*store.Record, error) {
	rec, err := c.MemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Drawing = "garbage"
	return rec, nil
}

func TestGetCorruptDrawing(t *testing.T) {
	mem := store.NewMemoryStore()
	sessions := session.NewMemoryStore()
	h := New(corruptStore{mem}, sessions, WithLogger(log.New(io.Discard))).Handler()

	sess, _ := session.New("ada", "", time.Hour)
	_ = sessions.Set(context.Background(), sess)
	rec, err := mem.Create(context.Background(), "ada", sampleDoc())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/drawings/"+rec.ID, nil)
	req.Header.Set("Authorization", "Bearer "+sess.ID)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expectError(t, w, http.StatusInternalServerError, "INTERNAL_ERROR")
	if body := decode[errorBody](t, w); body.Error != "Internal server error" {
		t.Errorf("internal details leaked: %q", body.Error)
	}
}

func TestShareRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/share", "", DrawingRequest{DrawingData: sampleDoc()})
	if rec.Code != http.StatusOK {
		t.Fatalf("share status = %d, body %s", rec.Code, rec.Body.String())
	}
	share := decode[ShareResponse](t, rec)
	if share.Token == "" || !strings.HasPrefix(share.URL, "https://pixelshare.example/?drawing=") {
		t.Fatalf("share = %+v", share)
	}

	rec = env.do(t, http.MethodGet, "/api/share?drawing="+url.QueryEscape(share.Token), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := decode[ResolveResponse](t, rec)
	if got.Format != transport.FormatCompact || !got.DrawingData.Equal(sampleDoc()) {
		t.Errorf("resolve = %+v", got)
	}
}

func TestShareResolveLegacy(t *testing.T) {
	env := newTestEnv(t)
	legacy := `{"pattern":"squares","pixelSize":10,"canvasWidth":4,"canvasHeight":4,"colors":{"0":"#123456"},"grid":{"1,1":"#123456"}}`
	token := base64.RawURLEncoding.EncodeToString([]byte(url.PathEscape(legacy)))

	got := decode[ResolveResponse](t, env.do(t, http.MethodGet, "/api/share?drawing="+token, "", nil))
	if got.Format != transport.FormatLegacy || got.DrawingData.Get(1, 1) != "#123456" {
		t.Errorf("resolve = %+v", got)
	}
}

func TestShareResolveFailures(t *testing.T) {
	env := newTestEnv(t)
	expectError(t, env.do(t, http.MethodGet, "/api/share", "", nil), http.StatusUnprocessableEntity, "NO_DOCUMENT")
	expectError(t, env.do(t, http.MethodGet, "/api/share?drawing=%21%21%21", "", nil), http.StatusUnprocessableEntity, "INVALID_TOKEN")
	plain := base64.RawURLEncoding.EncodeToString([]byte("hello"))
	expectError(t, env.do(t, http.MethodGet, "/api/share?drawing="+plain, "", nil), http.StatusUnprocessableEntity, "NO_DOCUMENT")
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits map[string]int
}

func (h *countingHooks) OnCacheHit(_ context.Context, keyType string) { h.hits[keyType]++ }

func TestShareCaching(t *testing.T) {
	defer observability.Reset()
	hooks := &countingHooks{hits: map[string]int{}}
	observability.SetCacheHooks(hooks)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, WithCache(fc))
	token := transport.Encode(sampleDoc())

	for range 2 {
		rec := env.do(t, http.MethodGet, "/api/share?drawing="+token, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("resolve status = %d", rec.Code)
		}
		rec = env.do(t, http.MethodGet, "/api/share/preview.png?drawing="+token, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("preview status = %d", rec.Code)
		}
	}
	// The first resolve warms the token entry for every later request.
	if hooks.hits[cache.KeyTypeToken] != 3 {
		t.Errorf("token hits = %d, want 3", hooks.hits[cache.KeyTypeToken])
	}
	if hooks.hits[cache.KeyTypePreview] != 1 {
		t.Errorf("preview hits = %d, want 1", hooks.hits[cache.KeyTypePreview])
	}
}

func TestPreviews(t *testing.T) {
	env := newTestEnv(t)
	ada := env.login(t, "ada")
	created := decode[struct {
		Drawing DrawingMeta `json:"drawing"`
	}](t, env.do(t, http.MethodPost, "/api/drawings", ada, DrawingRequest{DrawingData: sampleDoc()})).Drawing
	token := transport.Encode(sampleDoc())

	tests := []struct {
		name, target, session, contentType, prefix string
	}{
		{"share png", "/api/share/preview.png?drawing=" + token, "", "image/png", "\x89PNG"},
		{"share svg sized", "/api/share/preview.svg?size=50&grid=false&drawing=" + token, "", "image/svg+xml", "<svg"},
		{"drawing pdf", "/api/drawings/" + created.ID + "/preview.pdf", ada, "application/pdf", "%PDF-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, tt.session, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
				t.Errorf("body does not start with %q", tt.prefix)
			}
		})
	}

	expectError(t, env.do(t, http.MethodGet, "/api/share/preview.gif?drawing="+token, "", nil), http.StatusBadRequest, "INVALID_INPUT")
	expectError(t, env.do(t, http.MethodGet, "/api/share/preview.png?size=-1&drawing="+token, "", nil), http.StatusBadRequest, "INVALID_INPUT")
	expectError(t, env.do(t, http.MethodGet, "/api/share/preview.png?grid=maybe&drawing="+token, "", nil), http.StatusBadRequest, "INVALID_INPUT")
	expectError(t, env.do(t, http.MethodGet, "/api/drawings/"+created.ID+"/preview.png", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	routes []string
	status []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, route)
	h.status = append(h.status, status)
}

func TestHTTPHooks(t *testing.T) {
	defer observability.Reset()
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)

	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", "", nil)
	env.do(t, http.MethodGet, "/api/drawings/abc", "", nil)

	if len(hooks.routes) != 2 {
		t.Fatalf("routes = %v", hooks.routes)
	}
	if hooks.routes[0] != "/healthz" || hooks.status[0] != http.StatusOK {
		t.Errorf("first = %s %d", hooks.routes[0], hooks.status[0])
	}
	if !strings.HasPrefix(hooks.routes[1], "/api/drawings") || hooks.status[1] != http.StatusUnauthorized {
		t.Errorf("second = %s %d", hooks.routes[1], hooks.status[1])
	}
}
