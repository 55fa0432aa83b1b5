package media

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"photo.jpg", KindImage},
		{"PHOTO.JPEG", KindImage},
		{"icon.png", KindImage},
		{"anim.gif", KindImage},
		{"pic.webp", KindImage},
		{"scan.bmp", KindImage},
		{"iphone.HEIC", KindImage},
		{"iphone.heif", KindImage},
		{"modern.avif", KindImage},
		{"clip.mp4", KindVideo},
		{"clip.MOV", KindVideo},
		{"clip.webm", KindVideo},
		{"clip.m4v", KindVideo},
		{"clip.mkv", KindVideo},
		{"clip.avi", KindVideo},
		{"sound.ogg", KindVideo},
		{"notes.txt", KindOther},
		{"song.mp3", KindOther},
		{"archive.zip", KindOther},
		{"README", KindOther},
		{"dir/with.dots/file", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsMedia(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"a.heic", true},
		{"a.ogg", true},
		{"a.mkv", true},
		{"a.tif", true},
		{"a.txt", false},
		{"a", false},
	}

	for _, tt := range tests {
		if got := IsMedia(tt.name); got != tt.want {
			t.Errorf("IsMedia(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.jpg":  "image/jpeg",
		"a.JPG":  "image/jpeg",
		"a.mp4":  "video/mp4",
		"a.heic": "image/heic",
		"a":      "",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
