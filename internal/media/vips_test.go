package media

import (
	"testing"

	"media-explorer/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

func TestVipsSeverityOrdering(t *testing.T) {
	if !(vipsSeverity(vips.LogLevelError) > vipsSeverity(vips.LogLevelWarning) &&
		vipsSeverity(vips.LogLevelWarning) > vipsSeverity(vips.LogLevelInfo) &&
		vipsSeverity(vips.LogLevelInfo) > vipsSeverity(vips.LogLevelDebug)) {
		t.Error("severity must increase from debug to error")
	}
	if vipsSeverity(vips.LogLevelCritical) != vipsSeverity(vips.LogLevelError) {
		t.Error("critical should rank with error")
	}
}

func TestVipsLogSettings(t *testing.T) {
	tests := []struct {
		level logging.LogLevel
		want  vips.LogLevel
	}{
		{logging.LevelDebug, vips.LogLevelInfo},
		{logging.LevelInfo, vips.LogLevelWarning},
		{logging.LevelWarn, vips.LogLevelError},
		{logging.LevelError, vips.LogLevelError},
	}
	for _, tt := range tests {
		handler, got := vipsLogSettings(tt.level)
		if handler == nil {
			t.Errorf("level %v: nil handler", tt.level)
		}
		if got != tt.want {
			t.Errorf("level %v: vips level = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestDetectCapabilities_WithoutVips(t *testing.T) {
	if IsVipsAvailable() {
		t.Skip("libvips initialized by another test")
	}
	caps := DetectCapabilities()
	if !caps.ImageDecoder {
		t.Error("pure Go decoding should always be available")
	}
	if caps.Vips || caps.HEIFDecoder {
		t.Errorf("caps = %+v, want no vips and no HEIF", caps)
	}
}
