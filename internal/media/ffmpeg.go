package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// maxStderr bounds how much tool diagnostics end up in errors and logs.
const maxStderr = 500

// SeekMode selects where -ss goes on the ffmpeg command line.
type SeekMode int

const (
	// SeekFast seeks on the input (before -i). Quick, but some containers
	// return no frame.
	SeekFast SeekMode = iota
	// SeekSlow decodes up to the timestamp (after -i).
	SeekSlow
)

func (m SeekMode) String() string {
	if m == SeekSlow {
		return "slow"
	}
	return "fast"
}

// FrameExtractor runs the external probe and frame grab tools.
type FrameExtractor interface {
	// Check reports ErrToolUnavailable when the frame tool cannot run.
	Check(ctx context.Context) error
	// Probe returns the container duration in seconds.
	Probe(ctx context.Context, path string) (float64, error)
	// ExtractFrame returns one size x size center-cropped JPEG frame at seek.
	ExtractFrame(ctx context.Context, path string, seek float64, size int, mode SeekMode) ([]byte, error)
}

// FFmpegConfig holds configuration for the ffmpeg based extractor.
type FFmpegConfig struct {
	// FFmpegPath is the ffmpeg binary, looked up in PATH when not absolute.
	FFmpegPath string
	// FFprobePath is the ffprobe binary.
	FFprobePath string
	// Timeout bounds every single subprocess invocation.
	Timeout time.Duration
}

// DefaultFFmpegConfig returns the defaults used when nothing is configured.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     20 * time.Second,
	}
}

// FFmpegRunner implements FrameExtractor with the ffmpeg and ffprobe CLIs.
type FFmpegRunner struct {
	config FFmpegConfig
}

var _ FrameExtractor = (*FFmpegRunner)(nil)

// NewFFmpegRunner creates a runner. Zero fields fall back to defaults.
func NewFFmpegRunner(cfg FFmpegConfig) *FFmpegRunner {
	def := DefaultFFmpegConfig()
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = def.FFmpegPath
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = def.FFprobePath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &FFmpegRunner{config: cfg}
}

// Check verifies the ffmpeg binary can be found.
func (r *FFmpegRunner) Check(ctx context.Context) error {
	if _, err := exec.LookPath(r.config.FFmpegPath); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolUnavailable, r.config.FFmpegPath, err)
	}
	return nil
}

// Probe asks ffprobe for the container duration.
func (r *FFmpegRunner) Probe(ctx context.Context, path string) (float64, error) {
	out, err := r.run(ctx, r.config.FFprobePath, buildProbeArgs(path))
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0, errors.New("ffprobe reported no duration")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return d, nil
}

// ExtractFrame grabs a single MJPEG frame on stdout.
func (r *FFmpegRunner) ExtractFrame(ctx context.Context, path string, seek float64, size int, mode SeekMode) ([]byte, error) {
	out, err := r.run(ctx, r.config.FFmpegPath, buildExtractArgs(path, seek, size, mode))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("ffmpeg produced no output")
	}
	return out, nil
}

// run executes bin with its own timeout and returns stdout. A non-zero exit is
// reported with the head of stderr.
func (r *FFmpegRunner) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that inherited our pipes must not hold Wait past the deadline.
	cmd.WaitDelay = time.Second

	// A process that never starts means the binary is missing or not executable.
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, bin, err)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out after %v: %w", bin, r.config.Timeout, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %v: %s", bin, err, truncate(stderr.String(), maxStderr))
	}
	return stdout.Bytes(), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func buildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// buildExtractArgs scales to cover size x size and center-crops, so video
// thumbnails are always square.
func buildExtractArgs(path string, seek float64, size int, mode SeekMode) []string {
	ss := strconv.FormatFloat(seek, 'f', 3, 64)
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", size, size, size, size)

	args := []string{"-hide_banner", "-loglevel", "error"}
	if mode == SeekFast {
		args = append(args, "-ss", ss, "-i", path)
	} else {
		args = append(args, "-i", path, "-ss", ss)
	}
	return append(args,
		"-frames:v", "1",
		"-vf", filter,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
}
