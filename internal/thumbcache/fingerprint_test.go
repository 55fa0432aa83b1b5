package thumbcache

import (
	"regexp"
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	mt := time.Unix(1700000000, 123456789)
	base := Fingerprint(NamespaceImage, "/srv/media/a.jpg", mt, 1000, 160)

	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(base) {
		t.Fatalf("Fingerprint() = %q, want 64 lowercase hex chars", base)
	}
	if again := Fingerprint(NamespaceImage, "/srv/media/a.jpg", mt, 1000, 160); again != base {
		t.Error("Fingerprint() is not deterministic")
	}

	variants := map[string]string{
		"namespace": Fingerprint(NamespaceVideo, "/srv/media/a.jpg", mt, 1000, 160),
		"path":      Fingerprint(NamespaceImage, "/srv/media/b.jpg", mt, 1000, 160),
		"mtime":     Fingerprint(NamespaceImage, "/srv/media/a.jpg", mt.Add(time.Nanosecond), 1000, 160),
		"bytes":     Fingerprint(NamespaceImage, "/srv/media/a.jpg", mt, 1001, 160),
		"size":      Fingerprint(NamespaceImage, "/srv/media/a.jpg", mt, 1000, 161),
	}
	for field, fp := range variants {
		if fp == base {
			t.Errorf("changing %s did not change the fingerprint", field)
		}
	}

	if got := FileName(base); got != base+".jpg" {
		t.Errorf("FileName() = %q", got)
	}
}
