package handlers

import (
	"net/http"
	"strconv"

	"media-explorer/internal/thumbcache"
)

// GetThumbnail serves /thumb/{path} and /vthumb/{path}. The file's own kind
// decides how it is rendered; anything unrenderable gets a placeholder.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	abs, ok := h.resolvePath(w, pathVar(r))
	if !ok {
		return
	}

	size := thumbcache.ParseSize(r.URL.Query().Get("s"))
	data, contentType := h.cache.GetOrCreate(r.Context(), abs, size)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if contentType == thumbcache.PlaceholderContentType {
		// The source may become renderable later.
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(data)
	}
}
