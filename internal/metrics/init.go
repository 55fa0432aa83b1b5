package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every series is exported from the first scrape.
func InitializeMetrics() {
	volumes := []string{"media", "cache", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open", "read", "readdir", "write"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	for _, kind := range []string{"image", "video"} {
		for _, result := range []string{"hit", "generated", "placeholder"} {
			ThumbnailRequestsTotal.WithLabelValues(kind, result)
		}
		for _, status := range []string{"success", "error", "error_unsupported", "error_tool_unavailable"} {
			ThumbnailGenerationsTotal.WithLabelValues(kind, status)
		}
		ThumbnailGenerationDuration.WithLabelValues(kind)
	}

	for _, mode := range []string{"fast", "slow"} {
		ThumbnailFFmpegAttempts.WithLabelValues(mode, "success")
		ThumbnailFFmpegAttempts.WithLabelValues(mode, "error")
	}

	SingleflightRequestsTotal.WithLabelValues("initiated")
	SingleflightRequestsTotal.WithLabelValues("shared")

	for _, reason := range []string{"age", "size", "temp"} {
		JanitorDeletedTotal.WithLabelValues(reason)
	}
}
