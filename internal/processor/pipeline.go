package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/quote-vat/internal/llm"
	"github.com/rezonia/quote-vat/internal/logging"
	"github.com/rezonia/quote-vat/internal/model"
	"github.com/rezonia/quote-vat/internal/parser/pdf"
	"github.com/rezonia/quote-vat/internal/vat"
)

// ExtractionMethod records where the premium figures came from
type ExtractionMethod string

const (
	MethodHints   ExtractionMethod = "hints"   // supplied by the caller
	MethodLLM     ExtractionMethod = "llm"     // extracted by the LLM
	MethodPattern ExtractionMethod = "pattern" // labelled figure found in the text
	MethodNone    ExtractionMethod = "none"    // no premium available
)

// Warnings added by the pipeline
const (
	WarningDuplicate       = "duplicate quote: same insurer, reference and premium as an earlier document"
	WarningInsurerOverride = "extracted insurer replaced by the insurer named in the document"
	WarningNoPremium       = "no premium found; comparison premium not computed"

	warningLLMFigure = "discarded LLM %s %s: not found in document text"
)

// Input is one document to process. Text takes precedence over Data.
type Input struct {
	FileName string
	Data     []byte
	Text      string
	Hints     vat.Hints
	PolicyFee decimal.NullDecimal
}

// Result holds the outcome of processing one document.
// A rejected document has Violation set and no Classification.
type Result struct {
	Quote             *model.Quote
	Classification    *vat.Classification
	Record            *vat.Record
	ComparisonPremium decimal.NullDecimal
	TotalAnnualCost   decimal.NullDecimal
	Violation         *vat.PolicyViolation
	Method            ExtractionMethod
	LLMConfidence     float64
	Warnings          []string
	Error             error
	Fingerprint       string
	Duplicate         bool
}

// Accepted reports whether the document may be ranked and stored
func (r *Result) Accepted() bool {
	return r.Error == nil && r.Violation == nil && r.Classification != nil
}

// Pipeline orchestrates text extraction, hinting and VAT classification
type Pipeline struct {
	llmExtractor *llm.Extractor
	pdfExtractor *pdf.Extractor
	logger       *slog.Logger
	workers      int
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithLLMExtractor sets the LLM field extractor. Nil disables it.
func WithLLMExtractor(e *llm.Extractor) Option {
	return func(p *Pipeline) {
		p.llmExtractor = e
	}
}

// WithPDFExtractor sets the PDF text extractor
func WithPDFExtractor(e *pdf.Extractor) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.pdfExtractor = e
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithWorkers sets the batch concurrency limit
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewPipeline creates a new processing pipeline
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		pdfExtractor: pdf.NewExtractor(),
		logger:       logging.Discard(),
		workers:      runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the batch concurrency limit
func (p *Pipeline) Workers() int {
	return p.workers
}

// HasLLM reports whether an LLM extractor is configured
func (p *Pipeline) HasLLM() bool {
	return p.llmExtractor != nil
}

// ProcessPDF extracts the text of a PDF and classifies it
func (p *Pipeline) ProcessPDF(ctx context.Context, fileName string, data []byte) *Result {
	return p.Process(ctx, Input{FileName: fileName, Data: data})
}

// Process handles one input of any supported format
func (p *Pipeline) Process(ctx context.Context, in Input) *Result {
	if err := ctx.Err(); err != nil {
		return &Result{Method: MethodNone, Error: err}
	}

	quote, warnings, err := p.loadQuote(ctx, in)
	if err != nil {
		p.logger.WarnContext(ctx, "document load failed", "file", in.FileName, "error", err)
		return &Result{Quote: quote, Method: MethodNone, Warnings: warnings, Error: err}
	}
	applyHints(quote, in.Hints)
	setIfMissing(&quote.PolicyFee, in.PolicyFee)

	result := p.ProcessText(ctx, quote)
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

// ProcessText classifies a quote whose text is already known. Missing
// figures are requested from the LLM when one is configured. All hints are
// cross-checked against the text before use.
func (p *Pipeline) ProcessText(ctx context.Context, quote *model.Quote) *Result {
	if quote == nil {
		return &Result{Method: MethodNone, Error: model.NewExtractionError("text", "nil quote", nil)}
	}

	method := MethodNone
	if quote.StatedPremium.Valid {
		method = MethodHints
	}

	var (
		confidence float64
		warnings   []string
	)
	if method == MethodNone && p.llmExtractor != nil && quote.HasText() && ctx.Err() == nil {
		confidence, warnings = p.enrich(ctx, quote)
		if quote.StatedPremium.Valid {
			method = MethodLLM
		} else {
			confidence = 0
		}
	}

	result := p.processQuote(ctx, quote, method)
	result.LLMConfidence = confidence
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

// ProcessBatch processes inputs concurrently. Result order equals input
// order and a failure or violation in one document never affects another.
// Later documents repeating an earlier fingerprint are marked Duplicate.
func (p *Pipeline) ProcessBatch(ctx context.Context, inputs []Input) []*Result {
	results := make([]*Result, len(inputs))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			results[i] = p.Process(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	markDuplicates(results)

	p.logger.InfoContext(ctx, "batch processed",
		"documents", len(inputs),
		"accepted", countAccepted(results),
	)
	return results
}

func (p *Pipeline) loadQuote(ctx context.Context, in Input) (*model.Quote, []string, error) {
	if in.Text != "" {
		return model.NewQuote(in.FileName, model.SourceText, in.Text), nil, nil
	}

	switch DetectFormat(in.Data) {
	case FormatPDF:
		doc, err := p.pdfExtractor.ExtractText(ctx, in.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("PDF text extraction failed: %w", err)
		}
		quote := model.NewQuote(in.FileName, model.SourcePDF, doc.Text)
		quote.Pages = doc.Pages
		p.logger.DebugContext(ctx, "PDF text extracted",
			"file", in.FileName,
			"pages", doc.Pages,
			"chars", utf8.RuneCountInString(doc.Text),
		)
		return quote, doc.Warnings, nil

	case FormatText:
		text := strings.TrimPrefix(string(in.Data), "\ufeff")
		return model.NewQuote(in.FileName, model.SourceText, text), nil, nil

	default:
		return nil, nil, model.NewParseError(model.SourceUnknown, "body", "unsupported file format", nil)
	}
}

// enrich fills missing quote fields from the LLM. Failures are reported as
// warnings; the pattern path still runs.
func (p *Pipeline) enrich(ctx context.Context, quote *model.Quote) (float64, []string) {
	fields, confidence, err := p.llmExtractor.ExtractQuoteFields(ctx, quote.Text)
	if err != nil {
		p.logger.WarnContext(ctx, "LLM extraction failed", "file", quote.FileName, "error", err)
		return 0, []string{fmt.Sprintf("LLM extraction failed: %v", err)}
	}

	if quote.Insurer == "" {
		quote.Insurer = fields.Insurer
	}
	if fields.Currency != "" {
		quote.Currency = fields.Currency
	}
	var warnings []string
	premium, w := literalFigure(quote.Text, "premium", fields.Premium.NullDecimal)
	warnings = append(warnings, w...)
	fee, w := literalFigure(quote.Text, "policy fee", fields.PolicyFee.NullDecimal)
	warnings = append(warnings, w...)
	if len(warnings) > 0 {
		p.logger.WarnContext(ctx, "LLM figures discarded", "file", quote.FileName, "warnings", warnings)
	}

	setIfMissing(&quote.StatedPremium, premium)
	setIfMissing(&quote.VATPercentage, fields.VATPercentage.NullDecimal)
	setIfMissing(&quote.VATAmount, fields.VATAmount.NullDecimal)
	setIfMissing(&quote.PolicyFee, fee)

	return confidence, warnings
}

// literalFigure keeps an LLM figure only when it appears as a number in
// the text. VAT figures are checked later by vat.CrossCheck.
func literalFigure(text, name string, v decimal.NullDecimal) (decimal.NullDecimal, []string) {
	if !v.Valid || vat.ContainsAmount(text, v.Decimal) {
		return v, nil
	}
	return decimal.NullDecimal{}, []string{fmt.Sprintf(warningLLMFigure, name, v.Decimal.String())}
}

func (p *Pipeline) processQuote(ctx context.Context, quote *model.Quote, method ExtractionMethod) *Result {
	result := &Result{Quote: quote, Method: method}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	insurer, overridden := ReconcileInsurer(quote.Insurer, quote.Text)
	if overridden {
		p.logger.WarnContext(ctx, "insurer mismatch", "extracted", quote.Insurer, "detected", insurer)
		result.Warnings = append(result.Warnings, WarningInsurerOverride)
	}
	quote.Insurer = insurer
	if quote.Reference == "" {
		quote.Reference = ExtractReference(quote.Text)
	}

	if !quote.StatedPremium.Valid {
		if premium := ExtractPremium(quote.Text); premium.Valid {
			quote.StatedPremium = premium
			result.Method = MethodPattern
		}
	}
	if !quote.PolicyFee.Valid {
		quote.PolicyFee = ExtractPolicyFee(quote.Text)
	}

	hints := vat.Hints{
		Premium:       quote.StatedPremium,
		VATPercentage: quote.VATPercentage,
		VATAmount:     quote.VATAmount,
	}
	_, notes := vat.CrossCheck(quote.Text, hints)
	result.Warnings = append(result.Warnings, notes...)

	classification, err := vat.Classify(quote.Text, hints)
	if err != nil {
		if v, ok := vat.AsPolicyViolation(err); ok {
			p.logger.WarnContext(ctx, "quote rejected",
				"file", quote.FileName,
				"code", v.Code,
				"vat_class", v.Class,
				"pattern", v.Pattern,
			)
			result.Violation = v
			return result
		}
		result.Error = err
		return result
	}

	record := vat.NewRecord(classification)
	result.Classification = classification
	result.Record = &record
	if classification.Warning != nil {
		result.Warnings = append(result.Warnings, *classification.Warning)
	}

	if quote.StatedPremium.Valid {
		result.ComparisonPremium = decimal.NewNullDecimal(
			vat.ComparisonPremium(classification, quote.StatedPremium.Decimal))
		result.TotalAnnualCost = decimal.NewNullDecimal(
			vat.TotalAnnualCost(classification, quote.StatedPremium.Decimal, quote.PolicyFee))
	} else {
		result.Warnings = append(result.Warnings, WarningNoPremium)
	}
	result.Fingerprint = Fingerprint(quote.Insurer, quote.Reference, quote.StatedPremium)

	p.logger.DebugContext(ctx, "quote classified",
		"file", quote.FileName,
		"vat_class", classification.Class,
		"confidence", classification.Confidence,
		"method", result.Method,
	)
	return result
}

func applyHints(quote *model.Quote, hints vat.Hints) {
	setIfMissing(&quote.StatedPremium, hints.Premium)
	setIfMissing(&quote.VATPercentage, hints.VATPercentage)
	setIfMissing(&quote.VATAmount, hints.VATAmount)
}

func setIfMissing(dst *decimal.NullDecimal, v decimal.NullDecimal) {
	if !dst.Valid && v.Valid {
		*dst = v
	}
}

func markDuplicates(results []*Result) {
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if r == nil || !r.Accepted() || r.Fingerprint == "" {
			continue
		}
		if seen[r.Fingerprint] {
			r.Duplicate = true
			r.Warnings = append(r.Warnings, WarningDuplicate)
			continue
		}
		seen[r.Fingerprint] = true
	}
}

func countAccepted(results []*Result) int {
	n := 0
	for _, r := range results {
		if r != nil && r.Accepted() {
			n++
		}
	}
	return n
}

// IsUnsupportedFormat reports whether err comes from an unrecognised input
func IsUnsupportedFormat(err error) bool {
	var parseErr *model.ParseError
	return errors.As(err, &parseErr) && parseErr.Source == model.SourceUnknown
}
