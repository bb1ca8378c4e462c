package textutil

import (
	"io"
	"strings"
	"testing"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		sample []byte
		want   Encoding
	}{
		{"empty", nil, EncodingUTF8},
		{"ascii", []byte("hello\n"), EncodingUTF8},
		{"utf8", []byte("zażółć\n"), EncodingUTF8},
		{"utf8 bom", []byte{0xEF, 0xBB, 0xBF, 'a'}, EncodingUTF8BOM},
		{"utf16 le", []byte{0xFF, 0xFE, 0x41, 0x00, 0x0D, 0x00, 0x0A, 0x00}, EncodingUTF16LE},
		{"utf16 be", []byte{0xFE, 0xFF, 0x00, 0x41}, EncodingUTF16BE},
		{"nul byte", []byte("ab\x00cd"), EncodingBinary},
		{"control noise", []byte{0x01, 0x02, 0x03, 0x81, 'a', 0x04}, EncodingBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.sample); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewReaderDecodesUTF16(t *testing.T) {
	content := string([]byte{0xFF, 0xFE, 'A', 0x00, '\n', 0x00, 'b', 0x00})
	r, enc := NewReader(strings.NewReader(content))
	if enc != EncodingUTF16LE {
		t.Fatalf("expected utf-16le, got %v", enc)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "A\nb" {
		t.Fatalf("expected %q, got %q", "A\nb", got)
	}
}

func TestNewReaderDropsUTF8BOM(t *testing.T) {
	r, enc := NewReader(strings.NewReader("\xEF\xBB\xBFone\ntwo\n"))
	if enc != EncodingUTF8BOM {
		t.Fatalf("expected utf-8-bom, got %v", enc)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "one\ntwo\n" {
		t.Fatalf("expected BOM stripped, got %q", got)
	}
}

func TestNewReaderPassesBinaryThrough(t *testing.T) {
	r, enc := NewReader(strings.NewReader("\x00\x01\x02"))
	if enc != EncodingBinary {
		t.Fatalf("expected binary, got %v", enc)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "\x00\x01\x02" {
		t.Fatalf("expected bytes unchanged, got %q", got)
	}
}

func TestNewReaderEmptyInput(t *testing.T) {
	r, enc := NewReader(strings.NewReader(""))
	if enc != EncodingUTF8 {
		t.Fatalf("expected utf-8, got %v", enc)
	}
	if got, _ := io.ReadAll(r); len(got) != 0 {
		t.Fatalf("expected no output, got %q", got)
	}
}
