package processor

import (
	"bytes"
	"unicode/utf8"
)

// Format is the detected input format
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// MimeType returns the MIME type served for the format
func (f Format) MimeType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

var (
	pdfMagic = []byte("%PDF-")
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFormat detects the input format from magic bytes.
// Valid UTF-8 without control bytes is treated as plain text.
func DetectFormat(data []byte) Format {
	if len(data) == 0 {
		return FormatUnknown
	}

	// PDF magic may follow a few bytes of junk
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(head, pdfMagic) {
		return FormatPDF
	}

	text := bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(text) {
		return FormatUnknown
	}
	for _, c := range text {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' && c != '\f' {
			return FormatUnknown
		}
	}
	return FormatText
}
