package media

import (
	"context"
	"errors"
	"math"

	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"
)

// fallbackSeeks are used when the duration is unknown.
var fallbackSeeks = []float64{1, 2, 3}

// SeekCandidates returns the timestamps to try, in order. With a known
// duration d the first guess is 10% in, clamped to [1, 30] seconds, followed
// by one second later (but not past the end) and a quarter of the way in.
func SeekCandidates(duration float64) []float64 {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return append([]float64(nil), fallbackSeeks...)
	}
	t := math.Max(1, math.Min(30, duration*0.10))
	return []float64{
		t,
		math.Min(t+1, math.Max(1, duration-0.2)),
		math.Max(1, duration*0.25),
	}
}

// VideoThumbnailer extracts a representative frame from a video.
type VideoThumbnailer struct {
	runner FrameExtractor
}

// NewVideoThumbnailer creates a thumbnailer backed by runner.
func NewVideoThumbnailer(runner FrameExtractor) *VideoThumbnailer {
	return &VideoThumbnailer{runner: runner}
}

// Generate returns a size x size JPEG frame. For each seek candidate a fast
// seek is tried before a slow one and the first frame wins. When every
// attempt fails the result is a *FrameExtractionError wrapping the last
// failure.
func (v *VideoThumbnailer) Generate(ctx context.Context, path string, size int) ([]byte, error) {
	if err := v.runner.Check(ctx); err != nil {
		return nil, err
	}

	duration, err := v.runner.Probe(ctx, path)
	if err != nil {
		// Unknown duration is not fatal; the default seeks still apply.
		logging.Debug("probe failed for %s: %v", path, err)
		duration = 0
	}

	var lastErr error
	attempts := 0
	for _, seek := range SeekCandidates(duration) {
		for _, mode := range []SeekMode{SeekFast, SeekSlow} {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			attempts++
			frame, err := v.runner.ExtractFrame(ctx, path, seek, size, mode)
			if err == nil {
				metrics.ThumbnailFFmpegAttempts.WithLabelValues(mode.String(), "success").Inc()
				logging.Debug("extracted frame from %s at %.3fs (%s seek)", path, seek, mode)
				return frame, nil
			}
			metrics.ThumbnailFFmpegAttempts.WithLabelValues(mode.String(), "error").Inc()
			if errors.Is(err, ErrToolUnavailable) {
				return nil, err
			}
			logging.Debug("frame extraction at %.3fs (%s seek) failed for %s: %v", seek, mode, path, err)
			lastErr = err
		}
	}

	return nil, &FrameExtractionError{Path: path, Attempts: attempts, Err: lastErr}
}
