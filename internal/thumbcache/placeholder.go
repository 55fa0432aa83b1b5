package thumbcache

import (
	"fmt"

	"media-explorer/internal/media"
)

// PlaceholderContentType is returned alongside placeholder bytes.
const PlaceholderContentType = "image/svg+xml"

// PlaceholderLabel is the text shown when a thumbnail cannot be produced.
func PlaceholderLabel(kind media.Kind) string {
	if kind == media.KindVideo {
		return "No vthumb"
	}
	return "No thumb"
}

// Placeholder renders a size x size SVG with a centered label.
func Placeholder(kind media.Kind, size int) []byte {
	fontSize := size / 10
	if fontSize < 10 {
		fontSize = 10
	}
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<rect width="100%%" height="100%%" fill="#f3f4f6"/>`+
			`<text x="50%%" y="50%%" dominant-baseline="middle" text-anchor="middle" `+
			`font-family="sans-serif" font-size="%d" fill="#6b7280">%s</text></svg>`,
		size, size, size, size, fontSize, PlaceholderLabel(kind))
	return []byte(svg)
}
