package pdf_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/quote-vat/internal/model"
	"github.com/rezonia/quote-vat/internal/parser/pdf"
)

// buildPDF writes a minimal PDF with one page per content stream
func buildPDF(contents ...string) []byte {
	var objects []string
	pageCount := len(contents)
	fontObj := 3 + 2*pageCount

	kids := make([]string, pageCount)
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount),
	)
	for i, c := range contents {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(c), c),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	var sb strings.Builder
	sb.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = sb.Len()
		fmt.Fprintf(&sb, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := sb.Len()
	fmt.Fprintf(&sb, "xref\n0 %d\n", len(objects)+1)
	sb.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&sb, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&sb, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return []byte(sb.String())
}

func textPage(lines ...string) string {
	var sb strings.Builder
	sb.WriteString("BT /F1 12 Tf 72 720 Td ")
	for i, l := range lines {
		if i > 0 {
			sb.WriteString("0 -14 Td ")
		}
		fmt.Fprintf(&sb, "(%s) Tj ", l)
	}
	sb.WriteString("ET")
	return sb.String()
}

func TestNewExtractor(t *testing.T) {
	extractor := pdf.NewExtractor()
	require.NotNil(t, extractor)
}

func TestExtractText(t *testing.T) {
	data := buildPDF(
		textPage("Tawuniya Medical Insurance Quotation", "Net Premium SAR 5,000"),
		textPage("VAT 15% SAR 750"),
	)

	doc, err := pdf.NewExtractor().ExtractText(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Pages)
	assert.Equal(t, "Tawuniya Medical Insurance Quotation\nNet Premium SAR 5,000\n\nVAT 15% SAR 750", doc.Text)
	assert.Empty(t, doc.Warnings)
}

func TestExtractText_NoText(t *testing.T) {
	data := buildPDF("q 1 0 0 1 0 0 cm Q")

	doc, err := pdf.NewExtractor().ExtractText(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Pages)
	assert.Empty(t, doc.Text)
	assert.Contains(t, doc.Warnings, pdf.WarningNoText)
}

func TestExtractText_Invalid(t *testing.T) {
	extractor := pdf.NewExtractor()

	_, err := extractor.ExtractText(context.Background(), nil)
	require.Error(t, err)

	_, err = extractor.ExtractText(context.Background(), []byte("not a pdf"))
	require.Error(t, err)

	var parseErr *model.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, model.SourcePDF, parseErr.Source)
}

func TestExtractText_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pdf.NewExtractor().ExtractText(ctx, buildPDF(textPage("Premium SAR 5,000")))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPageCount(t *testing.T) {
	extractor := pdf.NewExtractor()

	n, err := extractor.PageCount(buildPDF(textPage("a"), textPage("b"), textPage("c")))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = extractor.PageCount([]byte("not a pdf"))
	require.Error(t, err)
}

func TestTextFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "show text",
			content:  "BT /F1 12 Tf 72 720 Td (Premium SAR 5,000) Tj ET",
			expected: "Premium SAR 5,000",
		},
		{
			name:     "text array with kerning",
			content:  "BT [(V) 80 (A) 80 (T) -250 (included)] TJ ET",
			expected: "VAT included",
		},
		{
			name:     "next line operators",
			content:  "BT (Premium) Tj T* (5,000) Tj 0 -14 TD (VAT) Tj ET",
			expected: "Premium\n5,000\nVAT",
		},
		{
			name:     "quote operators",
			content:  "BT (Line one) Tj (Line two) ' 0 0 (Line three) \" ET",
			expected: "Line one\nLine two\nLine three",
		},
		{
			name:     "escapes",
			content:  `BT (Total \(incl. VAT\)) Tj (\123AR) Tj ET`,
			expected: "Total (incl. VAT)SAR",
		},
		{
			name:     "balanced parens",
			content:  "BT (VAT (15%) applies) Tj ET",
			expected: "VAT (15%) applies",
		},
		{
			name:     "hex string",
			content:  "BT <56415420313525> Tj ET",
			expected: "VAT 15%",
		},
		{
			name:     "utf16 hex string",
			content:  "BT <FEFF0636063106480628> Tj ET",
			expected: "ضروب",
		},
		{
			name:     "comments and inline image",
			content:  "% header\nBI /W 1 /H 1 ID \x00\x01 EI BT (Quote) Tj ET",
			expected: "Quote",
		},
		{
			name:     "separate text objects",
			content:  "BT (First) Tj ET BT (Second) Tj ET",
			expected: "First\nSecond",
		},
		{
			name:     "no text",
			content:  "q 1 0 0 1 0 0 cm Q",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pdf.TextFromContent([]byte(tt.content)))
		})
	}
}

// Benchmark tests

func BenchmarkTextFromContent(b *testing.B) {
	content := []byte(textPage("Net Premium SAR 5,000", "VAT 15% SAR 750", "Total SAR 5,750"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pdf.TextFromContent(content)
	}
}
