package api

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name untouched", "model.glb", "model.glb"},
		{"illegal characters replaced", "report<1>.glb", "report_1_.glb"},
		{"path traversal collapsed", "../../etc/passwd", "____etc_passwd"},
		{"leading separator stripped", "/etc/passwd", "_etc_passwd"},
		{"windows separators", `..\..\boot.ini`, "____boot.ini"},
		{"control characters", "a\x00b\x1fc.png", "a_b_c.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if strings.Contains(got, "..") {
				t.Errorf("sanitized name %q still contains ..", got)
			}
			if strings.HasPrefix(got, "/") || strings.HasPrefix(got, `\`) {
				t.Errorf("sanitized name %q still starts with a separator", got)
			}
		})
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://storage.example.com/media/qr/abc123.png", "abc123.png"},
		{"https://storage.example.com/media/qr/abc123.png?sig=x%2Fy", "abc123.png"},
		{"https://host/..%2F..%2Fpasswd", "passwd"},
	}
	for _, tt := range tests {
		got := FilenameFromURL(tt.url)
		if got != tt.want {
			t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
