package quotevat

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/quote-vat/internal/llm"
	"github.com/rezonia/quote-vat/internal/model"
	"github.com/rezonia/quote-vat/internal/processor"
)

// Options configures a Processor
type Options struct {
	// LLM Configuration
	EnableLLM  bool
	LLMAPIKey  string        // API key (env: LLM_API_KEY)
	LLMBaseURL string        // Base URL (env: LLM_BASE_URL)
	LLMModel   string        // Field extraction model (env: LLM_MODEL)
	LLMTimeout time.Duration // Per-request timeout

	// Concurrency of ProcessBatch
	Workers int

	Logger *slog.Logger
}

// DefaultOptions returns default processor options
func DefaultOptions() Options {
	return Options{
		EnableLLM:  true,
		LLMBaseURL: llm.DefaultBaseURL,
		LLMModel:   llm.DefaultModel,
		LLMTimeout: llm.DefaultTimeout,
		Workers:    4,
	}
}

// Document is one quote to process. Text takes precedence over Data.
type Document struct {
	Name      string
	Data      []byte
	Text      string
	Hints     Hints
	PolicyFee decimal.NullDecimal
}

// Result is the outcome for one document. Rejected documents carry a
// Violation and no Classification.
type Result struct {
	Quote             *Quote
	Classification    *Classification
	Record            *Record
	ComparisonPremium decimal.NullDecimal
	TotalAnnualCost   decimal.NullDecimal
	Violation         *PolicyViolation
	Method            string
	Warnings          []string
	Fingerprint       string
	Duplicate         bool
	Error             error
}

// Accepted reports whether the document may be ranked and stored
func (r *Result) Accepted() bool {
	return r.Error == nil && r.Violation == nil && r.Classification != nil
}

// Processor classifies quote documents
type Processor struct {
	pipeline *processor.Pipeline
	options  Options
}

// NewProcessor creates a new quote processor with the given options
func NewProcessor(opts Options) *Processor {
	var llmExtractor *llm.Extractor
	if opts.EnableLLM && opts.LLMAPIKey != "" {
		var clientOpts []llm.ClientOption
		if opts.LLMBaseURL != "" {
			clientOpts = append(clientOpts, llm.WithBaseURL(opts.LLMBaseURL))
		}
		if opts.LLMTimeout > 0 {
			clientOpts = append(clientOpts, llm.WithTimeout(opts.LLMTimeout))
		}

		client := llm.NewClient(opts.LLMAPIKey, clientOpts...)

		var extractorOpts []llm.ExtractorOption
		if opts.LLMModel != "" {
			extractorOpts = append(extractorOpts, llm.WithModel(opts.LLMModel))
		}
		llmExtractor = llm.NewExtractor(client, extractorOpts...)
	}

	pipeline := processor.NewPipeline(
		processor.WithLLMExtractor(llmExtractor),
		processor.WithLogger(opts.Logger),
		processor.WithWorkers(opts.Workers),
	)

	return &Processor{
		pipeline: pipeline,
		options:  opts,
	}
}

// NewDefaultProcessor creates a processor with default options
func NewDefaultProcessor() *Processor {
	return NewProcessor(DefaultOptions())
}

// Process reads a PDF or plain-text quote from r and classifies it.
// The error reports documents that could not be read or extracted; a VAT
// policy violation is not an error and is returned in Result.Violation.
func (p *Processor) Process(ctx context.Context, r io.Reader, hints Hints) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError(model.SourceUnknown, "body", "failed to read input", err)
	}

	result := newResult(p.pipeline.Process(ctx, processor.Input{Data: data, Hints: hints}))
	if result.Error != nil {
		return result, result.Error
	}
	return result, nil
}

// ProcessText classifies quote text that is already extracted
func (p *Processor) ProcessText(ctx context.Context, text string, hints Hints) (*Result, error) {
	if text == "" {
		return nil, model.NewExtractionError("text", "empty text", nil)
	}

	result := newResult(p.pipeline.Process(ctx, processor.Input{Text: text, Hints: hints}))
	if result.Error != nil {
		return result, result.Error
	}
	return result, nil
}

// ProcessBatch processes documents concurrently. Results keep input order
// and each carries its own Error. Repeated quotes are marked Duplicate.
func (p *Processor) ProcessBatch(ctx context.Context, docs []Document) []*Result {
	inputs := make([]processor.Input, len(docs))
	for i, d := range docs {
		inputs[i] = processor.Input{FileName: d.Name, Data: d.Data, Text: d.Text, Hints: d.Hints, PolicyFee: d.PolicyFee}
	}

	results := make([]*Result, len(docs))
	for i, r := range p.pipeline.ProcessBatch(ctx, inputs) {
		results[i] = newResult(r)
	}
	return results
}

func newResult(r *processor.Result) *Result {
	return &Result{
		Quote:             r.Quote,
		Classification:    r.Classification,
		Record:            r.Record,
		ComparisonPremium: r.ComparisonPremium,
		TotalAnnualCost:   r.TotalAnnualCost,
		Violation:         r.Violation,
		Method:            string(r.Method),
		Warnings:          r.Warnings,
		Fingerprint:       r.Fingerprint,
		Duplicate:         r.Duplicate,
		Error:             r.Error,
	}
}
