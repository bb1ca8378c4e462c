package textutil

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// SampleSize is the most bytes Sniff needs to look at.
	SampleSize                   = 4096
	nonPrintableThresholdPercent = 30
)

// Encoding is what the start of a byte stream looks like.
type Encoding int

const (
	EncodingUTF8 Encoding = iota
	EncodingUTF8BOM
	EncodingUTF16LE
	EncodingUTF16BE
	EncodingBinary
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8BOM:
		return "utf-8-bom"
	case EncodingUTF16LE:
		return "utf-16le"
	case EncodingUTF16BE:
		return "utf-16be"
	case EncodingBinary:
		return "binary"
	default:
		return "utf-8"
	}
}

// Sniff classifies sample. A byte order mark wins over the binary checks
// since UTF-16 text is full of NUL bytes.
func Sniff(sample []byte) Encoding {
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	if enc := detectBOM(sample); enc != EncodingUTF8 {
		return enc
	}
	if len(sample) == 0 {
		return EncodingUTF8
	}
	if bytes.IndexByte(sample, 0x00) != -1 {
		return EncodingBinary
	}
	if utf8.Valid(sample) {
		return EncodingUTF8
	}

	nonPrintable := 0
	for _, b := range sample {
		if !isCommonTextByte(b) {
			nonPrintable++
		}
	}
	if nonPrintable*100/len(sample) >= nonPrintableThresholdPercent {
		return EncodingBinary
	}
	return EncodingUTF8
}

// NewReader looks at the first chunk r delivers and returns a reader that
// yields UTF-8: byte order marks are dropped and UTF-16 is decoded. Binary
// input passes through unchanged. Only one read is spent on the sample, so
// a slow producer is not held back.
func NewReader(r io.Reader) (io.Reader, Encoding) {
	br := bufio.NewReaderSize(r, SampleSize)
	if _, err := br.Peek(1); err != nil {
		return br, EncodingUTF8
	}
	sample, _ := br.Peek(br.Buffered())

	enc := Sniff(sample)
	switch enc {
	case EncodingUTF8BOM:
		_, _ = br.Discard(3)
	case EncodingUTF16LE:
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()), enc
	case EncodingUTF16BE:
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()), enc
	}
	return br, enc
}

func isCommonTextByte(b byte) bool {
	switch {
	case b == 0x09 || b == 0x0A || b == 0x0D:
		return true
	case b >= 0x20 && b <= 0x7E:
		return true
	case b == 0x1B:
		return true
	case b >= 0x80:
		return true
	default:
		return false
	}
}

func detectBOM(sample []byte) Encoding {
	if len(sample) >= 3 && sample[0] == 0xEF && sample[1] == 0xBB && sample[2] == 0xBF {
		return EncodingUTF8BOM
	}
	if len(sample) >= 2 {
		switch {
		case sample[0] == 0xFF && sample[1] == 0xFE:
			return EncodingUTF16LE
		case sample[0] == 0xFE && sample[1] == 0xFF:
			return EncodingUTF16BE
		}
	}
	return EncodingUTF8
}
