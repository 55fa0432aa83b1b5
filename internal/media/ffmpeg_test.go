package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestBuildExtractArgs(t *testing.T) {
	filter := "scale=160:160:force_original_aspect_ratio=increase,crop=160:160"
	tail := []string{"-frames:v", "1", "-vf", filter, "-f", "image2pipe", "-vcodec", "mjpeg", "pipe:1"}

	tests := []struct {
		name string
		mode SeekMode
		head []string
	}{
		{"fast seeks before input", SeekFast, []string{"-hide_banner", "-loglevel", "error", "-ss", "6.000", "-i", "/m/v.mp4"}},
		{"slow seeks after input", SeekSlow, []string{"-hide_banner", "-loglevel", "error", "-i", "/m/v.mp4", "-ss", "6.000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildExtractArgs("/m/v.mp4", 6, 160, tt.mode)
			want := append(append([]string{}, tt.head...), tail...)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("buildExtractArgs() =\n%v\nwant\n%v", got, want)
			}
		})
	}
}

func TestBuildExtractArgsSeekPrecision(t *testing.T) {
	args := buildExtractArgs("/v", 1.23456, 32, SeekFast)
	if args[4] != "1.235" {
		t.Errorf("seek = %q, want 1.235", args[4])
	}
}

func TestBuildProbeArgs(t *testing.T) {
	want := []string{"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", "/m/v.mp4"}
	if got := buildProbeArgs("/m/v.mp4"); !reflect.DeepEqual(got, want) {
		t.Errorf("buildProbeArgs() = %v, want %v", got, want)
	}
}

func TestSeekModeString(t *testing.T) {
	if SeekFast.String() != "fast" || SeekSlow.String() != "slow" {
		t.Errorf("SeekMode strings = %q, %q", SeekFast, SeekSlow)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 600)
	if got := truncate(long, maxStderr); len(got) != 500 {
		t.Errorf("len = %d, want 500", len(got))
	}
	if got := truncate("  short\n", maxStderr); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
}

func TestNewFFmpegRunnerDefaults(t *testing.T) {
	r := NewFFmpegRunner(FFmpegConfig{})
	if r.config != DefaultFFmpegConfig() {
		t.Errorf("config = %+v, want defaults", r.config)
	}
}

func TestFFmpegRunner_MissingBinary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-ffmpeg")
	r := NewFFmpegRunner(FFmpegConfig{FFmpegPath: missing, FFprobePath: missing, Timeout: time.Second})

	if err := r.Check(context.Background()); !errors.Is(err, ErrToolUnavailable) {
		t.Errorf("Check() error = %v, want ErrToolUnavailable", err)
	}
	if _, err := r.Probe(context.Background(), "/v.mp4"); !errors.Is(err, ErrToolUnavailable) {
		t.Errorf("Probe() error = %v, want ErrToolUnavailable", err)
	}
	if _, err := r.ExtractFrame(context.Background(), "/v.mp4", 1, 160, SeekFast); !errors.Is(err, ErrToolUnavailable) {
		t.Errorf("ExtractFrame() error = %v, want ErrToolUnavailable", err)
	}
}

// writeScript creates an executable shell script standing in for a tool.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFFmpegRunner_Probe(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr bool
	}{
		{"duration", `echo "12.480000"`, 12.48, false},
		{"empty output", `true`, 0, true},
		{"garbage", `echo N/A`, 0, true},
		{"non-zero exit", `echo "moov atom not found" >&2; exit 1`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := writeScript(t, "ffprobe", tt.body)
			r := NewFFmpegRunner(FFmpegConfig{FFprobePath: probe, Timeout: 5 * time.Second})
			got, err := r.Probe(context.Background(), "/v.mp4")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFFmpegRunner_ExtractFrame(t *testing.T) {
	t.Run("stdout is the frame", func(t *testing.T) {
		ff := writeScript(t, "ffmpeg", `printf 'JPEGDATA'`)
		r := NewFFmpegRunner(FFmpegConfig{FFmpegPath: ff, Timeout: 5 * time.Second})
		got, err := r.ExtractFrame(context.Background(), "/v.mp4", 1, 160, SeekSlow)
		if err != nil {
			t.Fatalf("ExtractFrame() error = %v", err)
		}
		if string(got) != "JPEGDATA" {
			t.Errorf("ExtractFrame() = %q", got)
		}
	})

	t.Run("empty stdout fails", func(t *testing.T) {
		ff := writeScript(t, "ffmpeg", `exit 0`)
		r := NewFFmpegRunner(FFmpegConfig{FFmpegPath: ff, Timeout: 5 * time.Second})
		if _, err := r.ExtractFrame(context.Background(), "/v.mp4", 1, 160, SeekFast); err == nil {
			t.Error("expected error for empty output")
		}
	})

	t.Run("stderr is truncated", func(t *testing.T) {
		ff := writeScript(t, "ffmpeg", `i=0; while [ $i -lt 100 ]; do printf 'errorerror' >&2; i=$((i+1)); done; exit 1`)
		r := NewFFmpegRunner(FFmpegConfig{FFmpegPath: ff, Timeout: 5 * time.Second})
		_, err := r.ExtractFrame(context.Background(), "/v.mp4", 1, 160, SeekFast)
		if err == nil {
			t.Fatal("expected error")
		}
		if limit := len(ff) + len(" failed: exit status 1: ") + maxStderr; len(err.Error()) > limit {
			t.Errorf("error length %d exceeds %d", len(err.Error()), limit)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		ff := writeScript(t, "ffmpeg", `exec sleep 5`)
		r := NewFFmpegRunner(FFmpegConfig{FFmpegPath: ff, Timeout: 100 * time.Millisecond})
		start := time.Now()
		_, err := r.ExtractFrame(context.Background(), "/v.mp4", 1, 160, SeekFast)
		if err == nil {
			t.Fatal("expected timeout error")
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want deadline exceeded", err)
		}
		if time.Since(start) > 3*time.Second {
			t.Errorf("timeout not enforced, took %v", time.Since(start))
		}
	})
}
