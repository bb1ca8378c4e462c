package textutil

import "testing"

func TestCleanLineStripsEscapesAndExpandsTabs(t *testing.T) {
	got := CleanLine("\x1b[1;31mred\x1b[0m\tok\r\n")
	want := "red     ok"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCleanLineSanitizesStrayControls(t *testing.T) {
	got := CleanLine("a\x07b")
	if got != "a?b" {
		t.Fatalf("expected %q, got %q", "a?b", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"fits", "file.txt", 20, "file.txt"},
		{"ellipsis", "verylongname", 6, "veryl…"},
		{"single cell", "example", 1, "…"},
		{"wide runes", "你好世界", 5, "你好…"},
		{"zero width", "anything", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.width); got != tt.want {
				t.Fatalf("expected %q, got %q (width %d)", tt.want, got, tt.width)
			}
		})
	}
}

func TestSkip(t *testing.T) {
	if got := Skip("abcdef", 2); got != "cdef" {
		t.Fatalf("expected %q, got %q", "cdef", got)
	}
	if got := Skip("ab", 5); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := Skip("你好", 1); got != "好" {
		t.Fatalf("expected wide rune to be dropped whole, got %q", got)
	}
}

func TestExpandTabsUsesColumns(t *testing.T) {
	if got := ExpandTabs("ab\tc", 4); got != "ab  c" {
		t.Fatalf("expected %q, got %q", "ab  c", got)
	}
}
