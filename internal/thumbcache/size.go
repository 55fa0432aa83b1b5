package thumbcache

import (
	"strconv"
	"strings"
)

// Thumbnail edge bounds in pixels.
const (
	MinSize     = 32
	MaxSize     = 512
	DefaultSize = 160
)

// ClampSize forces size into [MinSize, MaxSize].
func ClampSize(size int) int {
	if size < MinSize {
		return MinSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// ParseSize reads the "s" query parameter. Empty or non-numeric input gives
// DefaultSize; numbers are clamped.
func ParseSize(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSize
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultSize
	}
	return ClampSize(n)
}
