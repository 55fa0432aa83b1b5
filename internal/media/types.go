package media

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind is the coarse category of a file as far as thumbnailing is concerned.
type Kind string

const (
	// KindImage is a still image.
	KindImage Kind = "image"
	// KindVideo is a video container.
	KindVideo Kind = "video"
	// KindOther is anything that gets no thumbnail.
	KindOther Kind = "other"
)

// ImageExtensions lists the image formats the explorer recognizes.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions lists the video containers the explorer recognizes.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".mov":  true,
	".m4v":  true,
	".mkv":  true,
	".avi":  true,
}

// heifExtensions are classified as images even when the platform has no
// content type registered for them.
var heifExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

// MimeTypes maps extensions to content types. It is consulted before the
// platform registry so results do not depend on /etc/mime.types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".svg":  "image/svg+xml",

	// Videos
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".ogv":  "video/ogg",

	// Audio, so .ogg/.mp3 are not mistaken for images
	".ogg": "audio/ogg",
	".mp3": "audio/mpeg",
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// ContentType infers a content type from the file extension, or "" when
// nothing is known about it.
func ContentType(path string) string {
	e := ext(path)
	if e == "" {
		return ""
	}
	if ct, ok := MimeTypes[e]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(e); ct != "" {
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
		return strings.TrimSpace(ct)
	}
	return ""
}

// Classify decides the kind of path from its name alone. The video
// extension set is checked first so containers like .ogg are videos
// regardless of what the content-type registry says.
func Classify(path string) Kind {
	e := ext(path)
	if VideoExtensions[e] {
		return KindVideo
	}
	if heifExtensions[e] {
		return KindImage
	}
	ct := ContentType(path)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case strings.HasPrefix(ct, "video/"):
		return KindVideo
	}
	return KindOther
}

// IsMedia reports whether the listing should offer a preview for name.
func IsMedia(name string) bool {
	e := ext(name)
	if ImageExtensions[e] || VideoExtensions[e] {
		return true
	}
	return Classify(name) != KindOther
}
