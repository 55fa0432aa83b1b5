package handlers

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"media-explorer/internal/filesystem"
	"media-explorer/internal/logging"
	"media-explorer/internal/media"
)

// GetRaw serves a file inline. HEIC/HEIF originals are converted to JPEG
// because browsers cannot display them; /download still returns the original.
func (h *Handlers) GetRaw(w http.ResponseWriter, r *http.Request) {
	abs, ok := h.resolvePath(w, pathVar(r))
	if !ok {
		return
	}
	f, info, ok := h.openFile(w, abs)
	if !ok {
		return
	}
	defer f.Close()

	if media.NeedsConversion(abs) {
		h.servePreview(w, r, abs, info.ModTime())
		return
	}

	if ct := media.ContentType(abs); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (h *Handlers) servePreview(w http.ResponseWriter, r *http.Request, abs string, modTime time.Time) {
	if h.previewer == nil {
		http.Error(w, "HEIC/HEIF preview is not available", http.StatusUnsupportedMediaType)
		return
	}
	data, err := h.previewer.ConvertToJPEG(r.Context(), abs)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			http.Error(w, "HEIC/HEIF preview is not available", http.StatusUnsupportedMediaType)
			return
		}
		logging.Error("Preview conversion failed for %s: %v", abs, err)
		http.Error(w, "Failed to convert image", http.StatusInternalServerError)
		return
	}

	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)) + ".jpg"
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, modTime, bytes.NewReader(data))
}

// Download serves a single file as an attachment under its own name.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	abs, ok := h.resolvePath(w, pathVar(r))
	if !ok {
		return
	}
	f, info, ok := h.openFile(w, abs)
	if !ok {
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()}))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// openFile opens a regular file, writing a 404 for anything else.
func (h *Handlers) openFile(w http.ResponseWriter, abs string) (*os.File, os.FileInfo, bool) {
	f, err := filesystem.OpenWithRetry(abs, h.retry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			http.Error(w, "Not found", http.StatusNotFound)
		} else {
			logging.Warn("Failed to open %s: %v", abs, err)
			http.Error(w, "Failed to access file", http.StatusInternalServerError)
		}
		return nil, nil, false
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		http.Error(w, "Not found", http.StatusNotFound)
		return nil, nil, false
	}
	return f, info, true
}
