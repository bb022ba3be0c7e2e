package colour

import (
	"strings"
	"testing"
)

func TestColourPreview(t *testing.T) {
	got := ColourPreview(RGB{R: 1, G: 2, B: 3}, 0)
	want := "\033[48;2;1;2;3m" + strings.Repeat(" ", defaultWidth) + ansiReset
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestColourPreviewWithText(t *testing.T) {
	tests := []struct {
		name  string
		bg    RGB
		text  string
		width int
		fg    string
		body  string
	}{
		{"dark background", RGB{R: 10, G: 10, B: 40}, "ab", 6, "\033[38;2;255;255;255m", "  ab  "},
		{"light background", RGB{R: 250, G: 250, B: 220}, "ab", 5, "\033[38;2;0;0;0m", " ab  "},
		{"truncated", RGB{}, "abcdef", 3, "\033[38;2;255;255;255m", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColourPreviewWithText(tt.bg, tt.text, tt.width)
			if !strings.Contains(got, tt.fg) {
				t.Errorf("Expected foreground %q in %q", tt.fg, got)
			}
			if !strings.HasSuffix(got, tt.body+ansiReset) {
				t.Errorf("Expected text %q in %q", tt.body, got)
			}
		})
	}
}
