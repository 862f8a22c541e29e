package transcript

import "testing"

func TestEncodeCwd(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/Users/me/proj", "-Users-me-proj"},
		{"/home/u/my_app", "-home-u-my_app"},
		{"/tmp/a b.c", "-tmp-a-b-c"},
		{"already-safe_name", "already-safe_name"},
	}
	for _, tt := range tests {
		if got := EncodeCwd(tt.in); got != tt.want {
			t.Errorf("EncodeCwd(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeProjectName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"-Users-me-proj", "proj"},
		{"-home-u-my_app", "my_app"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DecodeProjectName(tt.in); got != tt.want {
			t.Errorf("DecodeProjectName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImageMime(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/x/shot.png", "image/png"},
		{"/x/shot.JPG", "image/jpeg"},
		{"/x/shot.jpeg", "image/jpeg"},
		{"/x/anim.gif", "image/gif"},
		{"/x/pic.webp", "image/webp"},
		{"/x/doc.pdf", ""},
		{"/x/noext", ""},
	}
	for _, tt := range tests {
		if got := ImageMime(tt.in); got != tt.want {
			t.Errorf("ImageMime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
