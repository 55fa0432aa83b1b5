package thumbcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"media-explorer/internal/media"
)

// Namespace separates image and video fingerprints.
type Namespace string

const (
	NamespaceImage Namespace = "IMG"
	NamespaceVideo Namespace = "VID"
)

func namespaceFor(kind media.Kind) Namespace {
	if kind == media.KindVideo {
		return NamespaceVideo
	}
	return NamespaceImage
}

// Fingerprint identifies one rendition of one version of a source file:
// lowercase hex SHA-256 of "<ns>|<abs-path>|<mtime-ns>|<byte-size>|<size>".
func Fingerprint(ns Namespace, absPath string, modTime time.Time, byteSize int64, size int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%d|%d", ns, absPath, modTime.UnixNano(), byteSize, size)))
	return hex.EncodeToString(sum[:])
}

// FileName is the cache entry name for a fingerprint.
func FileName(fingerprint string) string {
	return fingerprint + Ext
}
