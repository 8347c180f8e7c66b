package common

import "testing"

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("frame bytes"))
	b := ContentHash([]byte("frame bytes"))
	c := ContentHash([]byte("other bytes"))

	if a != b {
		t.Error("same content produced different hashes")
	}
	if a == c {
		t.Error("different content produced the same hash")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"frame.png", true},
		{"frame.PNG", true},
		{"frame.jpg", true},
		{"frame.jpeg", true},
		{"page.html", false},
		{"notes.txt", false},
		{"frame", false},
	}
	for _, tt := range tests {
		if got := IsImageFile(tt.name); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMIMETypeForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.png", "image/png"},
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := MIMETypeForFile(tt.name); got != tt.want {
			t.Errorf("MIMETypeForFile(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
