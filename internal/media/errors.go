package media

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMedia is returned for files that are neither image nor video.
	ErrUnsupportedMedia = errors.New("unsupported media")
	// ErrUnsupportedImage is returned when no decoder can handle the image.
	ErrUnsupportedImage = errors.New("unsupported image format")
	// ErrToolUnavailable is returned when ffmpeg or ffprobe cannot be executed.
	ErrToolUnavailable = errors.New("external tool unavailable")
	// ErrFrameExtractionFailed is matched by *FrameExtractionError.
	ErrFrameExtractionFailed = errors.New("frame extraction failed")
)

// FrameExtractionError reports that every seek candidate failed. Err is the
// last underlying failure.
type FrameExtractionError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *FrameExtractionError) Error() string {
	return fmt.Sprintf("frame extraction failed for %s after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *FrameExtractionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFrameExtractionFailed) true.
func (e *FrameExtractionError) Is(target error) bool {
	return target == ErrFrameExtractionFailed
}
