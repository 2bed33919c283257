package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/rezonia/quote-vat/internal/model"
)

// WarningNoText is reported when a PDF carries no extractable text
const WarningNoText = "no extractable text in PDF"

// pageSeparator joins the text of consecutive pages
const pageSeparator = "\n\n"

var disableConfigDir sync.Once

// Document is the text extracted from a PDF
type Document struct {
	Text     string
	Pages    int
	Warnings []string
}

// Extractor pulls plain text out of PDF content streams. It is safe for
// concurrent use.
type Extractor struct {
	validationMode int
}

// NewExtractor creates a new PDF text extractor
func NewExtractor() *Extractor {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Extractor{validationMode: pdfmodel.ValidationRelaxed}
}

// config returns a fresh configuration; pdfcpu mutates it during a run
func (e *Extractor) config() *pdfmodel.Configuration {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = e.validationMode
	return conf
}

// ExtractText reads every page of the PDF and returns its full text.
// A PDF without text yields an empty document and a warning, not an error.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, model.NewParseError(model.SourcePDF, "body", "empty PDF", nil)
	}

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), e.config())
	if err != nil {
		return nil, model.NewParseError(model.SourcePDF, "document", "failed to read PDF", err)
	}

	doc := &Document{Pages: pctx.PageCount}
	pages := make([]string, 0, pctx.PageCount)

	for nr := 1; nr <= pctx.PageCount; nr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, err := pdfcpu.ExtractPageContent(pctx, nr)
		if err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: %v", nr, err))
			continue
		}
		if r == nil {
			continue
		}

		content, err := io.ReadAll(r)
		if err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: %v", nr, err))
			continue
		}

		if text := TextFromContent(content); text != "" {
			pages = append(pages, text)
		}
	}

	doc.Text = strings.Join(pages, pageSeparator)
	if strings.TrimSpace(doc.Text) == "" {
		doc.Warnings = append(doc.Warnings, WarningNoText)
	}

	return doc, nil
}

// PageCount returns the number of pages without extracting text
func (e *Extractor) PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), e.config())
	if err != nil {
		return 0, model.NewParseError(model.SourcePDF, "document", "failed to count pages", err)
	}
	return n, nil
}
