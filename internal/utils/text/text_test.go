package text

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "My Video Title", "My Video Title"},
		{"forbidden chars", `a\b/c*d?e:f"g<h>i|j`, "abcdefghij"},
		{"trim dots and spaces", "  .title. ", "title"},
		{"empty", "", "video"},
		{"only forbidden", `\/*?:"<>|`, "video"},
		{"unicode kept", "Título em Português", "Título em Português"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 300)
	got := SanitizeFilename(long)
	if len([]rune(got)) != 150 {
		t.Errorf("len = %d, want 150", len([]rune(got)))
	}
}
