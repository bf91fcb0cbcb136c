package mediatypes

import (
	"testing"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{"jpg", true},
		{"JPG", true},
		{".jpeg", true},
		{"png", true},
		{"gif", true},
		{"bmp", true},
		{"svg", true},
		{"tiff", true},
		{"xpm", true},
		{"webp", false},
		{"html", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := IsImage(tt.ext); got != tt.want {
				t.Errorf("IsImage(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestGetFileType(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want FileType
	}{
		{"JPEG image", "jpg", FileTypeImage},
		{"upper case PNG", ".PNG", FileTypeImage},
		{"HTML document", "html", FileTypeDocument},
		{"HTM document", ".htm", FileTypeDocument},
		{"unknown", "xyz", FileTypeOther},
		{"empty", "", FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetFileType(tt.ext); got != tt.want {
				t.Errorf("GetFileType(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"jpg", "image/jpeg"},
		{".JPEG", "image/jpeg"},
		{"svg", "image/svg+xml"},
		{"html", "text/html"},
		{"bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := GetMimeType(tt.ext); got != tt.want {
				t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestEveryImageHasMimeType(t *testing.T) {
	for ext := range ImageExtensions {
		if GetMimeType(ext) == "application/octet-stream" {
			t.Errorf("image extension %q has no MIME type", ext)
		}
	}
}
