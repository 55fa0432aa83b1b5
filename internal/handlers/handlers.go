package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"media-explorer/internal/filesystem"
	"media-explorer/internal/metrics"
	"media-explorer/internal/thumbcache"

	"github.com/gorilla/mux"
)

// Previewer converts originals browsers cannot display.
type Previewer interface {
	ConvertToJPEG(ctx context.Context, path string) ([]byte, error)
}

// ToolChecker reports whether the external video tools can run.
type ToolChecker interface {
	Check(ctx context.Context) error
}

// Options carries the optional collaborators.
type Options struct {
	Previewer Previewer
	Tools     ToolChecker
	Retry     filesystem.RetryConfig
}

type Handlers struct {
	resolver  *filesystem.Resolver
	cache     *thumbcache.Cache
	previewer Previewer
	tools     ToolChecker
	retry     filesystem.RetryConfig
	startTime time.Time
}

func New(resolver *filesystem.Resolver, cache *thumbcache.Cache, opts Options) *Handlers {
	retry := opts.Retry
	if retry == (filesystem.RetryConfig{}) {
		retry = filesystem.DefaultRetryConfig()
	}
	return &Handlers{
		resolver:  resolver,
		cache:     cache,
		previewer: opts.Previewer,
		tools:     opts.Tools,
		retry:     retry,
		startTime: time.Now(),
	}
}

// resolvePath maps the {path} route variable onto the shared root, writing
// a 403 when it escapes.
func (h *Handlers) resolvePath(w http.ResponseWriter, rel string) (string, bool) {
	abs, err := h.resolver.Resolve(rel)
	if err != nil {
		if errors.Is(err, filesystem.ErrForbiddenPath) {
			metrics.PathRejectionsTotal.Inc()
			http.Error(w, "Forbidden: path outside shared root", http.StatusForbidden)
			return "", false
		}
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return "", false
	}
	return abs, true
}

func pathVar(r *http.Request) string {
	return mux.Vars(r)["path"]
}
