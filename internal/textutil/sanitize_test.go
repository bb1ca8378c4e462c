package textutil

import "testing"

func TestSanitizeTerminalText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "src/main.go", "src/main.go"},
		{"tab kept", "a\tb", "a\tb"},
		{"escape", "bad\x1b[31m", "bad?[31m"},
		{"line breaks", "one\r\ntwo", "one  two"},
		{"bidi override", "abc\u202egpj.exe", "abc?gpj.exe"},
		{"zero width", "a\u200bb\u00adc", "a?b?c"},
		{"c1 control", "x\u0085y", "x?y"},
		{"wide runes untouched", "日本語", "日本語"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTerminalText(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizeTerminalTextReturnsSafeInputUnchanged(t *testing.T) {
	in := "already safe"
	if got := SanitizeTerminalText(in); got != in {
		t.Fatalf("expected %q, got %q", in, got)
	}
}
