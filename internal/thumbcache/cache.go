package thumbcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-explorer/internal/filesystem"
	"media-explorer/internal/logging"
	"media-explorer/internal/media"
	"media-explorer/internal/metrics"
	"media-explorer/internal/workers"

	"golang.org/x/sync/singleflight"
)

const (
	// Ext is the extension of every cache entry. The cache only stores JPEG.
	Ext = ".jpg"
	// ContentType is returned for cache hits and fresh thumbnails.
	ContentType = "image/jpeg"
)

// Generator renders a thumbnail for a file of a known kind.
type Generator interface {
	Generate(ctx context.Context, path string, size int) ([]byte, error)
}

// Config holds cache settings.
type Config struct {
	// Dir is the cache directory. It is trusted and created if missing.
	Dir string
	// GenerateTimeout bounds one generation, including waiting for a worker
	// slot. Zero means no bound beyond the tools' own timeouts.
	GenerateTimeout time.Duration
	// Retry configures NFS retries for source stats.
	Retry filesystem.RetryConfig
}

// Cache is a content-addressed thumbnail store on disk.
type Cache struct {
	dir     string
	timeout time.Duration
	retry   filesystem.RetryConfig
	images  Generator
	videos  Generator
	limiter *workers.Limiter
	group   singleflight.Group
}

// Option customizes a Cache.
type Option func(*Cache)

// WithLimiter bounds concurrent generations across all fingerprints.
func WithLimiter(l *workers.Limiter) Option {
	return func(c *Cache) { c.limiter = l }
}

// New creates the cache directory if needed and returns a Cache.
func New(cfg Config, images, videos Generator, opts ...Option) (*Cache, error) {
	if cfg.Dir == "" {
		return nil, errors.New("thumbcache: cache directory is required")
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("thumbcache: resolve %q: %w", cfg.Dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("thumbcache: create %q: %w", dir, err)
	}

	c := &Cache{
		dir:     dir,
		timeout: cfg.GenerateTimeout,
		retry:   cfg.Retry,
		images:  images,
		videos:  videos,
	}
	if c.retry == (filesystem.RetryConfig{}) {
		c.retry = filesystem.DefaultRetryConfig()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dir returns the absolute cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// EntryPath returns where the entry for fingerprint lives.
func (c *Cache) EntryPath(fingerprint string) string {
	return filepath.Join(c.dir, FileName(fingerprint))
}

// GetOrCreate returns a JPEG thumbnail for path at size, generating and
// storing it on a miss. It never fails: any problem yields an SVG
// placeholder of the requested size. path must come from a
// filesystem.Resolver and size from ParseSize.
func (c *Cache) GetOrCreate(ctx context.Context, path string, size int) ([]byte, string) {
	kind := media.Classify(path)
	data, result, err := c.getOrCreate(ctx, path, kind, size)
	if err != nil {
		logging.Debug("Thumbnail for %s (size %d) unavailable: %v", path, size, err)
		metrics.ThumbnailRequestsTotal.WithLabelValues(labelKind(kind), "placeholder").Inc()
		return Placeholder(kind, size), PlaceholderContentType
	}
	metrics.ThumbnailRequestsTotal.WithLabelValues(labelKind(kind), result).Inc()
	return data, ContentType
}

func (c *Cache) getOrCreate(ctx context.Context, path string, kind media.Kind, size int) ([]byte, string, error) {
	info, err := filesystem.StatWithRetry(path, c.retry)
	if err != nil {
		return nil, "", err
	}
	if !info.Mode().IsRegular() {
		return nil, "", fmt.Errorf("%s is not a regular file", path)
	}

	gen, err := c.generatorFor(kind)
	if err != nil {
		return nil, "", err
	}

	fp := Fingerprint(namespaceFor(kind), path, info.ModTime(), info.Size(), size)
	entry := c.EntryPath(fp)

	if data, err := os.ReadFile(entry); err == nil {
		return data, "hit", nil
	}

	v, err, shared := c.group.Do(fp, func() (any, error) {
		// Another flight may have finished between our miss and this one.
		if data, err := os.ReadFile(entry); err == nil {
			return data, nil
		}
		return c.generate(ctx, gen, path, kind, size, fp)
	})
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues("shared").Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues("initiated").Inc()
	}
	if err != nil {
		return nil, "", err
	}
	return v.([]byte), "generated", nil
}

func (c *Cache) generatorFor(kind media.Kind) (Generator, error) {
	switch kind {
	case media.KindImage:
		if c.images != nil {
			return c.images, nil
		}
	case media.KindVideo:
		if c.videos != nil {
			return c.videos, nil
		}
	}
	return nil, media.ErrUnsupportedMedia
}

// generate runs detached from the caller's cancellation: other callers may
// be waiting on the same flight.
func (c *Cache) generate(ctx context.Context, gen Generator, path string, kind media.Kind, size int, fp string) ([]byte, error) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("waiting for worker: %w", err)
		}
		defer c.limiter.Release()
	}

	start := time.Now()
	data, err := gen.Generate(ctx, path, size)
	metrics.ThumbnailGenerationDuration.WithLabelValues(labelKind(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(labelKind(kind), generationStatus(err)).Inc()
		return nil, err
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(labelKind(kind), "success").Inc()
	logging.Debug("Generated %s thumbnail for %s (size %d, %d bytes) in %v", kind, path, size, len(data), time.Since(start))

	// Best effort: the bytes are served even if they cannot be stored.
	if err := filesystem.WriteFileAtomic(c.dir, FileName(fp), data); err != nil {
		metrics.ThumbnailCacheWriteErrors.Inc()
		logging.Warn("Failed to cache thumbnail for %s: %v", path, err)
	}
	return data, nil
}

// Stats counts cache entries and their total size.
func (c *Cache) Stats() (int, int64, error) {
	return DirStats(c.dir)
}

// DirStats counts the cache entries in dir and their total size. Temp files
// and anything without the entry extension are ignored.
func DirStats(dir string) (int, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, err
	}
	var count int
	var total int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		total += info.Size()
	}
	return count, total, nil
}

func labelKind(kind media.Kind) string {
	if kind == media.KindVideo {
		return "video"
	}
	return "image"
}

func generationStatus(err error) string {
	switch {
	case errors.Is(err, media.ErrUnsupportedImage), errors.Is(err, media.ErrUnsupportedMedia):
		return "error_unsupported"
	case errors.Is(err, media.ErrToolUnavailable):
		return "error_tool_unavailable"
	default:
		return "error"
	}
}
