package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-explorer/internal/filesystem"
	"media-explorer/internal/logging"
	"media-explorer/internal/media"
	"media-explorer/internal/middleware"
	"media-explorer/internal/thumbcache"

	"github.com/dustin/go-humanize"
)

// ListEntry is one child of a listed directory.
type ListEntry struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	IsDir        bool      `json:"isDir"`
	Kind         string    `json:"kind,omitempty"`
	Size         int64     `json:"size"`
	SizeHuman    string    `json:"sizeHuman,omitempty"`
	ModTime      time.Time `json:"modTime"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
}

// Listing is the response of /api/list.
type Listing struct {
	Path    string      `json:"path"`
	Parent  *string     `json:"parent,omitempty"`
	Entries []ListEntry `json:"entries"`
}

// ListFiles returns the children of ?path= (the root when empty). Dot-files
// are hidden and directories sort before files.
func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	abs, ok := h.resolvePath(w, q.Get("path"))
	if !ok {
		return
	}
	rel, err := h.resolver.Rel(abs)
	if err != nil {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	entries, err := filesystem.ReadDirWithRetry(abs, h.retry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logging.Warn("Failed to list %s: %v", abs, err)
		http.Error(w, "Failed to list directory", http.StatusInternalServerError)
		return
	}

	size := thumbcache.ParseSize(q.Get("s"))
	token := q.Get(middleware.TokenParam)

	listing := Listing{Path: rel, Entries: make([]ListEntry, 0, len(entries))}
	if rel != "" {
		parent := path.Dir(rel)
		if parent == "." {
			parent = ""
		}
		listing.Parent = &parent
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		childRel := path.Join(rel, name)
		entry := ListEntry{
			Name:    name,
			Path:    childRel,
			IsDir:   info.IsDir(),
			ModTime: info.ModTime(),
		}
		if !entry.IsDir {
			entry.Size = info.Size()
			entry.SizeHuman = humanize.IBytes(uint64(info.Size()))
			kind := media.Classify(name)
			entry.Kind = string(kind)
			if media.IsMedia(name) {
				entry.ThumbnailURL = thumbnailURL(kind, childRel, size, token)
			}
		}
		listing.Entries = append(listing.Entries, entry)
	}

	sort.SliceStable(listing.Entries, func(i, j int) bool {
		a, b := listing.Entries[i], listing.Entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, listing)
}

func thumbnailURL(kind media.Kind, rel string, size int, token string) string {
	route := "/thumb/"
	if kind == media.KindVideo {
		route = "/vthumb/"
	}
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	q := url.Values{}
	q.Set("s", strconv.Itoa(size))
	if token != "" {
		q.Set(middleware.TokenParam, token)
	}
	return route + strings.Join(segments, "/") + "?" + q.Encode()
}
