package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"media-explorer/internal/media"
	"media-explorer/internal/startup"

	"github.com/dustin/go-humanize"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Thumbnail pipeline
	CacheEntries    int    `json:"cacheEntries"`
	CacheBytes      int64  `json:"cacheBytes"`
	CacheSize       string `json:"cacheSize"`
	CacheError      string `json:"cacheError,omitempty"`
	VipsEnabled     bool   `json:"vipsEnabled"`
	HEIFSupported   bool   `json:"heifSupported"`
	FFmpegAvailable bool   `json:"ffmpegAvailable"`
	ToolsError      string `json:"toolsError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports the state of the shared root, the cache and the tools.
// Missing ffmpeg degrades the service (video placeholders) without failing it.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	caps := media.DetectCapabilities()
	response := HealthResponse{
		Status:        statusHealthy,
		Version:       startup.Version,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		VipsEnabled:   caps.Vips,
		HEIFSupported: caps.HEIFDecoder,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}

	response.Ready = h.ready() == nil

	count, total, err := h.cache.Stats()
	if err != nil {
		response.CacheError = err.Error()
		response.Status = statusDegraded
	} else {
		response.CacheEntries = count
		response.CacheBytes = total
		response.CacheSize = humanize.IBytes(uint64(total))
	}

	if h.tools != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.tools.Check(ctx); err != nil {
			response.ToolsError = err.Error()
			response.Status = statusDegraded
		} else {
			response.FFmpegAvailable = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !response.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the shared root and the cache
// directory are reachable.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.ready(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}

func (h *Handlers) ready() error {
	for _, dir := range []string{h.resolver.Root(), h.cache.Dir()} {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return &os.PathError{Op: "stat", Path: dir, Err: os.ErrInvalid}
		}
	}
	return nil
}
