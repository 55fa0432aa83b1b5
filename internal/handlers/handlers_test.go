package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-explorer/internal/filesystem"
	"media-explorer/internal/media"
	"media-explorer/internal/metrics"
	"media-explorer/internal/thumbcache"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubGenerator struct {
	payload []byte
	err     error
}

func (g stubGenerator) Generate(context.Context, string, int) ([]byte, error) {
	return g.payload, g.err
}

type stubPreviewer struct {
	data []byte
	err  error
}

func (p stubPreviewer) ConvertToJPEG(context.Context, string) ([]byte, error) {
	return p.data, p.err
}

type stubTools struct{ err error }

func (s stubTools) Check(context.Context) error { return s.err }

type testEnv struct {
	root   string
	router *mux.Router
	h      *Handlers
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"photo.jpg":          "jpeg",
		"clip.mp4":           "mp4",
		"notes.txt":          "hello world",
		".hidden":            "secret",
		"Album/IMG_0001.png": "png",
		"Album/pic.HEIC":     "heic",
		"Album/My File.jpg":  "jpeg",
	}
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	resolver, err := filesystem.NewResolver(root)
	if err != nil {
		t.Fatal(err)
	}
	cache, err := thumbcache.New(thumbcache.Config{Dir: t.TempDir()},
		stubGenerator{payload: []byte("image-thumb")},
		stubGenerator{err: media.ErrToolUnavailable})
	if err != nil {
		t.Fatal(err)
	}

	h := New(resolver, cache, opts)
	r := mux.NewRouter()
	r.HandleFunc("/thumb/{path:.+}", h.GetThumbnail).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/vthumb/{path:.+}", h.GetThumbnail).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/raw/{path:.+}", h.GetRaw).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/download/{path:.+}", h.Download).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/list", h.ListFiles).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	return &testEnv{root: root, router: r, h: h}
}

func (e *testEnv) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGetThumbnail(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name        string
		target      string
		wantType    string
		wantBody    string
		wantCaching string
	}{
		{"image", "/thumb/photo.jpg", "image/jpeg", "image-thumb", "public, max-age=86400"},
		{"nested image", "/thumb/Album/IMG_0001.png?s=64", "image/jpeg", "image-thumb", "public, max-age=86400"},
		{"video without ffmpeg", "/vthumb/clip.mp4", "image/svg+xml", "No vthumb", "no-cache"},
		{"missing file", "/thumb/nope.jpg", "image/svg+xml", "No thumb", "no-cache"},
		{"not media", "/thumb/notes.txt", "image/svg+xml", "No thumb", "no-cache"},
		{"kind follows the file", "/vthumb/photo.jpg", "image/jpeg", "image-thumb", "public, max-age=86400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if got := rec.Header().Get("Cache-Control"); got != tt.wantCaching {
				t.Errorf("Cache-Control = %q, want %q", got, tt.wantCaching)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGetThumbnail_PlaceholderSize(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := map[string]string{
		"/thumb/nope.jpg":         `width="160"`,
		"/thumb/nope.jpg?s=abc":   `width="160"`,
		"/thumb/nope.jpg?s=1":     `width="32"`,
		"/thumb/nope.jpg?s=99999": `width="512"`,
		"/thumb/nope.jpg?s=200":   `width="200"`,
	}
	for target, want := range tests {
		rec := env.do(http.MethodGet, target)
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: body %q lacks %s", target, rec.Body.String(), want)
		}
	}
}

func TestGetThumbnail_Head(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(http.MethodHead, "/thumb/photo.jpg")
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD = %d with %d body bytes, want 200 with none", rec.Code, rec.Body.Len())
	}
	if rec.Header().Get("Content-Length") != "11" {
		t.Errorf("Content-Length = %q, want 11", rec.Header().Get("Content-Length"))
	}
}

func TestPathEscapeIsForbidden(t *testing.T) {
	env := newTestEnv(t, Options{})
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.jpg"), filepath.Join(env.root, "link.jpg")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	before := testutil.ToFloat64(metrics.PathRejectionsTotal)
	for _, target := range []string{
		"/thumb/link.jpg",
		"/vthumb/link.jpg",
		"/raw/link.jpg",
		"/download/link.jpg",
		"/api/list?path=../",
	} {
		if rec := env.do(http.MethodGet, target); rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", target, rec.Code)
		}
	}
	if got := testutil.ToFloat64(metrics.PathRejectionsTotal) - before; got != 5 {
		t.Errorf("path rejections = %v, want 5", got)
	}
}

func TestFileUsedAsDirectory(t *testing.T) {
	env := newTestEnv(t, Options{})
	before := testutil.ToFloat64(metrics.PathRejectionsTotal)

	rec := env.do(http.MethodGet, "/thumb/photo.jpg/child.jpg")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No thumb") {
		t.Errorf("thumb: status = %d body = %q, want placeholder", rec.Code, rec.Body.String())
	}
	if rec := env.do(http.MethodGet, "/raw/photo.jpg/child.jpg"); rec.Code != http.StatusNotFound {
		t.Errorf("raw: status = %d, want 404", rec.Code)
	}
	if got := testutil.ToFloat64(metrics.PathRejectionsTotal) - before; got != 0 {
		t.Errorf("path rejections = %v, want 0", got)
	}
}

func TestGetRaw(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodGet, "/raw/notes.txt")
	if rec.Code != http.StatusOK || rec.Body.String() != "hello world" {
		t.Fatalf("raw = %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "" {
		t.Errorf("raw response has Content-Disposition %q", got)
	}

	if rec := env.do(http.MethodGet, "/raw/missing.txt"); rec.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/raw/Album"); rec.Code != http.StatusNotFound {
		t.Errorf("directory status = %d, want 404", rec.Code)
	}
}

func TestGetRaw_Range(t *testing.T) {
	env := newTestEnv(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/raw/notes.txt", nil)
	req.Header.Set("Range", "bytes=0-4")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent || rec.Body.String() != "hello" {
		t.Errorf("range = %d %q, want 206 \"hello\"", rec.Code, rec.Body.String())
	}
}

func TestGetRaw_HEIC(t *testing.T) {
	tests := []struct {
		name      string
		previewer Previewer
		want      int
	}{
		{"no previewer", nil, http.StatusUnsupportedMediaType},
		{"no decoder", stubPreviewer{err: media.ErrUnsupportedImage}, http.StatusUnsupportedMediaType},
		{"conversion fails", stubPreviewer{err: errors.New("corrupt")}, http.StatusInternalServerError},
		{"converted", stubPreviewer{data: []byte("converted-jpeg")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Options{Previewer: tt.previewer})
			rec := env.do(http.MethodGet, "/raw/Album/pic.HEIC")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want != http.StatusOK {
				return
			}
			if rec.Header().Get("Content-Type") != "image/jpeg" || rec.Body.String() != "converted-jpeg" {
				t.Errorf("preview = %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
			}
			if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "pic.jpg") {
				t.Errorf("Content-Disposition = %q, want pic.jpg", got)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodGet, "/download/Album/My%20File.jpg")
	if rec.Code != http.StatusOK || rec.Body.String() != "jpeg" {
		t.Fatalf("download = %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="My File.jpg"` {
		t.Errorf("Content-Disposition = %q", got)
	}

	// HEIC downloads are the original bytes.
	rec = env.do(http.MethodGet, "/download/Album/pic.HEIC")
	if rec.Body.String() != "heic" {
		t.Errorf("HEIC download = %q, want original bytes", rec.Body.String())
	}

	if rec := env.do(http.MethodGet, "/download/none.bin"); rec.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", rec.Code)
	}
}

func TestListFiles(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodGet, "/api/list?token=abc&s=64")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var listing Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}

	if listing.Path != "" || listing.Parent != nil {
		t.Errorf("root listing path=%q parent=%v", listing.Path, listing.Parent)
	}
	var names []string
	for _, e := range listing.Entries {
		names = append(names, e.Name)
	}
	if got := strings.Join(names, ","); got != "Album,clip.mp4,notes.txt,photo.jpg" {
		t.Errorf("entries = %s", got)
	}

	byName := map[string]ListEntry{}
	for _, e := range listing.Entries {
		byName[e.Name] = e
	}
	if e := byName["photo.jpg"]; e.ThumbnailURL != "/thumb/photo.jpg?s=64&token=abc" || e.Kind != "image" {
		t.Errorf("photo entry = %+v", e)
	}
	if e := byName["clip.mp4"]; e.ThumbnailURL != "/vthumb/clip.mp4?s=64&token=abc" || e.Kind != "video" {
		t.Errorf("clip entry = %+v", e)
	}
	if e := byName["notes.txt"]; e.ThumbnailURL != "" || e.SizeHuman != "11 B" {
		t.Errorf("notes entry = %+v", e)
	}
	if e := byName["Album"]; !e.IsDir || e.ThumbnailURL != "" {
		t.Errorf("album entry = %+v", e)
	}
}

func TestListFiles_Subdirectory(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodGet, "/api/list?path=Album")
	var listing Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if listing.Path != "Album" || listing.Parent == nil || *listing.Parent != "" {
		t.Errorf("listing path=%q parent=%v", listing.Path, listing.Parent)
	}
	for _, e := range listing.Entries {
		if e.Name == "My File.jpg" && e.ThumbnailURL != "/thumb/Album/My%20File.jpg?s=160" {
			t.Errorf("escaped URL = %q", e.ThumbnailURL)
		}
	}

	if rec := env.do(http.MethodGet, "/api/list?path=nope"); rec.Code != http.StatusNotFound {
		t.Errorf("missing dir status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{Tools: stubTools{err: media.ErrToolUnavailable}})

	rec := env.do(http.MethodGet, "/healthz")
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || !health.Ready {
		t.Errorf("healthz = %d ready=%t", rec.Code, health.Ready)
	}
	if health.Status != statusDegraded || health.FFmpegAvailable {
		t.Errorf("missing ffmpeg should degrade: %+v", health)
	}

	if rec := env.do(http.MethodGet, "/livez"); rec.Code != http.StatusOK {
		t.Errorf("livez = %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	if err := os.RemoveAll(env.h.cache.Dir()); err != nil {
		t.Fatal(err)
	}
	if rec := env.do(http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz without cache dir = %d, want 503", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(http.MethodGet, "/version")
	if !strings.Contains(rec.Body.String(), `"version"`) {
		t.Errorf("version body = %q", rec.Body.String())
	}
}
