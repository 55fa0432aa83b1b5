// Package metrics provides Prometheus instrumentation for the media explorer.
//
// Metrics are registered with promauto on the default registry and share the
// "media_explorer_" prefix.
//
// # Metric Categories
//
// HTTP: request counts, latency and in-flight requests, plus rejected
// (root-escaping) paths.
//
// Thumbnails: requests by kind and outcome (hit, generated, placeholder),
// generations by kind and status, generation latency, ffmpeg attempts by seek
// mode, cache write failures, cache size and entry count, busy workers.
//
// Singleflight: cache misses that started a generation versus those that
// joined one already running.
//
// Janitor: passes, deletions by reason (age, size, temp) and freed bytes.
//
// Filesystem: per-volume operation latency and errors, and NFS ESTALE retry
// counters. These are fed through filesystem.Observer; install it with
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//
// Call InitializeMetrics once at startup so every labelled series exists
// before the first scrape.
package metrics
