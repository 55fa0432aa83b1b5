// Package main provides the entry point for the Media Explorer server.
//
// Media Explorer shares one directory tree over HTTP and renders cached
// thumbnails for the images and videos in it.
//
// # Application Lifecycle
//
//  1. Configuration Loading: .env and environment variables, directory checks
//  2. Image Pipeline: libvips when VIPS_ENABLED and available, pure Go otherwise
//  3. Video Tools: ffmpeg/ffprobe availability check (placeholders if missing)
//  4. Thumbnail Cache: worker limiter, cache directory, initial janitor pass
//  5. HTTP Server Setup: routes, token check, CORS, access log, panic recovery
//  6. Graceful Shutdown: SIGINT/SIGTERM stops the server, janitor and collector
//
// # Routes
//
//   - GET /thumb/{path}, /vthumb/{path} ?s=32..512: JPEG thumbnail or SVG placeholder
//   - GET /raw/{path}: inline file (HEIC/HEIF converted to JPEG)
//   - GET /download/{path}: file as attachment
//   - GET /api/list?path=: JSON directory listing
//   - GET /health, /healthz, /livez, /readyz, /version, /metrics
//
// When ACCESS_TOKEN is set, every route except the probes, version and
// metrics requires it as ?token= or the X-Token header.
//
// # Environment Variables
//
//   - ROOT_DIR: directory to share (required)
//   - CACHE_DIR: thumbnail cache (default: .thumb_cache)
//   - HOST, PORT: listen address (default: 0.0.0.0:8000)
//   - ACCESS_TOKEN: shared secret (default: none, access is open)
//   - CORS_ORIGINS: comma-separated allowed origins
//   - FFMPEG_BIN, FFPROBE_BIN: tool paths (default: ffmpeg, ffprobe)
//   - TOOL_TIMEOUT: per-invocation tool timeout (default: 20s)
//   - THUMBNAIL_TIMEOUT: per-thumbnail bound including queueing (default: 2m)
//   - THUMBNAIL_WORKERS: concurrent generations (default: 1.5 x GOMAXPROCS, max 16)
//   - THUMB_CACHE_MAX_AGE_DAYS, THUMB_CACHE_MAX_MB: janitor limits (default: 1, 500)
//   - JANITOR_INTERVAL: recurring janitor pass, 0 for startup only (default: 1h)
//   - VIPS_ENABLED, METRICS_ENABLED, LOG_HEALTH_CHECKS: feature toggles
//   - LOG_LEVEL, DEBUG: logging verbosity
package main
