package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	money "github.com/rezonia/quote-vat/internal/decimal"
	"github.com/rezonia/quote-vat/internal/llm"
	"github.com/rezonia/quote-vat/internal/logging"
	"github.com/rezonia/quote-vat/internal/model"
	"github.com/rezonia/quote-vat/internal/parser/pdf"
	"github.com/rezonia/quote-vat/internal/processor"
	"github.com/rezonia/quote-vat/internal/vat"
)

// MaxBatchDocuments caps the number of documents in one batch request
const MaxBatchDocuments = 100

// Config holds server configuration
type Config struct {
	Address         string
	APIKey          string
	LLMBaseURL      string
	LLMModel        string
	LLMTimeout      time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
	MaxUploadSize   int64
	RateLimit       float64
	RateBurst       int
	CacheTTL        time.Duration
	Workers         int
	Logger          *slog.Logger
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	pdf      *pdf.Extractor
	texts    *cache.Cache
	limiter  *clientLimiter
	logger   *slog.Logger
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 15 * time.Minute
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 20 << 20
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	// Create LLM extractor if API key provided
	var llmExtractor *llm.Extractor
	if config.APIKey != "" {
		var clientOpts []llm.ClientOption
		if config.LLMBaseURL != "" {
			clientOpts = append(clientOpts, llm.WithBaseURL(config.LLMBaseURL))
		}
		if config.LLMTimeout > 0 {
			clientOpts = append(clientOpts, llm.WithTimeout(config.LLMTimeout))
		}
		client := llm.NewClient(config.APIKey, clientOpts...)

		var extractorOpts []llm.ExtractorOption
		if config.LLMModel != "" {
			extractorOpts = append(extractorOpts, llm.WithModel(config.LLMModel))
		}
		llmExtractor = llm.NewExtractor(client, extractorOpts...)
	}

	pdfExtractor := pdf.NewExtractor()
	pipeline := processor.NewPipeline(
		processor.WithLLMExtractor(llmExtractor),
		processor.WithPDFExtractor(pdfExtractor),
		processor.WithLogger(logger),
		processor.WithWorkers(config.Workers),
	)

	s := &Server{
		config:   config,
		router:   router,
		pipeline: pipeline,
		pdf:      pdfExtractor,
		texts:    cache.New(config.CacheTTL, 2*config.CacheTTL),
		limiter:  newClientLimiter(config.RateLimit, config.RateBurst),
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	v1.Use(s.rateLimit(), s.limitBody())
	{
		v1.POST("/classify", s.handleClassify)
		v1.POST("/classify/pdf", s.handleClassifyPDF)
		v1.POST("/classify/batch", s.handleClassifyBatch)
		v1.POST("/info", s.handleInfo)
	}
}

// Run starts the HTTP server and shuts it down gracefully when ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", s.config.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"llm":    s.pipeline.HasLLM(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body", Details: err.Error()})
		return
	}
	if err := validateRequest(&req, req.FileName); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	result := s.pipeline.Process(ctx, toInput(req))
	s.respond(c, result)
}

func (s *Server) handleClassifyPDF(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	if processor.DetectFormat(body) != processor.FormatPDF {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body is not a PDF"})
		return
	}

	premium, err := parseHint(c.Query("premium"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid premium", Details: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	doc, err := s.extractText(ctx, body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "PDF text extraction failed", Details: err.Error()})
		return
	}

	quote := model.NewQuote(c.Query("file_name"), model.SourcePDF, doc.Text)
	quote.Pages = doc.Pages
	quote.StatedPremium = premium

	result := s.pipeline.ProcessText(ctx, quote)
	result.Warnings = append(append([]string{}, doc.Warnings...), result.Warnings...)
	s.respond(c, result)
}

func (s *Server) handleClassifyBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body", Details: err.Error()})
		return
	}
	if len(req.Documents) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no documents"})
		return
	}
	if len(req.Documents) > MaxBatchDocuments {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "too many documents"})
		return
	}

	inputs := make([]processor.Input, len(req.Documents))
	for i := range req.Documents {
		doc := req.Documents[i].FileName
		if doc == "" {
			doc = "#" + strconv.Itoa(i)
		}
		if err := validateRequest(&req.Documents[i], doc); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Details: "document " + strconv.Itoa(i)})
			return
		}
		inputs[i] = toInput(req.Documents[i])
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
	defer cancel()

	results := s.pipeline.ProcessBatch(ctx, inputs)

	resp := BatchResponse{Results: make([]BatchItem, len(results))}
	for i, r := range results {
		item := BatchItem{Index: i, FileName: inputs[i].FileName, Duplicate: r.Duplicate}
		switch {
		case r.Violation != nil:
			item.Violation = violationResponse(r.Violation)
			resp.Rejected++
		case r.Error != nil:
			item.Error = r.Error.Error()
			resp.Failed++
		default:
			item.Result = classifyResponse(r)
			resp.Accepted++
		}
		resp.Results[i] = item
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleInfo(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	format := processor.DetectFormat(body)
	resp := InfoResponse{
		Format:   format.String(),
		MimeType: format.MimeType(),
		Size:     len(body),
	}

	var text string
	switch format {
	case processor.FormatPDF:
		if n, err := s.pdf.PageCount(body); err != nil {
			s.logger.Warn("failed to extract PDF page count", "error", err)
		} else {
			resp.Pages = &n
		}
		if doc, err := s.extractText(c.Request.Context(), body); err == nil {
			text = doc.Text
		}
	case processor.FormatText:
		text = string(body)
	}

	if text != "" {
		resp.Insurer = processor.DetectInsurer(text)
		if classification, err := vat.Classify(text, vat.Hints{}); err == nil {
			resp.VATClass = classification.Class
		} else if v, ok := vat.AsPolicyViolation(err); ok {
			resp.VATClass = v.Class
		}
		resp.Rejected = resp.VATClass.Rejected()
	}

	c.JSON(http.StatusOK, resp)
}

// extractText returns the PDF text, cached by the SHA-256 of the body
func (s *Server) extractText(ctx context.Context, body []byte) (*pdf.Document, error) {
	sum := sha256.Sum256(body)
	key := hex.EncodeToString(sum[:])

	if cached, found := s.texts.Get(key); found {
		return cached.(*pdf.Document), nil
	}

	doc, err := s.pdf.ExtractText(ctx, body)
	if err != nil {
		return nil, err
	}
	s.texts.Set(key, doc, cache.DefaultExpiration)
	return doc, nil
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return nil, false
	}
	return body, true
}

func (s *Server) respond(c *gin.Context, result *processor.Result) {
	switch {
	case result.Violation != nil:
		c.JSON(http.StatusUnprocessableEntity, violationResponse(result.Violation))
	case result.Error != nil:
		status := http.StatusUnprocessableEntity
		if processor.IsUnsupportedFormat(result.Error) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: result.Error.Error(), Warnings: result.Warnings})
	default:
		c.JSON(http.StatusOK, classifyResponse(result))
	}
}

// Helper functions

func toInput(req ClassifyRequest) processor.Input {
	return processor.Input{
		FileName:  req.FileName,
		Text:      req.Text,
		PolicyFee: req.PolicyFee,
		Hints: vat.Hints{
			Premium:       req.Premium,
			VATPercentage: req.VATPercentage,
			VATAmount:     req.VATAmount,
		},
	}
}

// validateRequest checks caller-supplied figures. doc names the quote in
// the error and may be empty.
func validateRequest(req *ClassifyRequest, doc string) error {
	if req.Text == "" {
		return model.NewValidationError("text", nil, "required", "text is required").ForDocument(doc)
	}
	if req.Premium.Valid && !money.IsPositive(req.Premium.Decimal) {
		return model.NewValidationError("premium", req.Premium.Decimal.String(), "min", "premium must be positive").ForDocument(doc)
	}
	if req.PolicyFee.Valid && !money.IsNonNegative(req.PolicyFee.Decimal) {
		return model.NewValidationError("policy_fee", req.PolicyFee.Decimal.String(), "min", "policy fee must not be negative").ForDocument(doc)
	}
	return nil
}

func parseHint(raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := money.ParseAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return money.Null(d), nil
}

func classifyResponse(r *processor.Result) *ClassifyResponse {
	resp := &ClassifyResponse{
		ID:                r.Quote.ID,
		FileName:          r.Quote.FileName,
		Insurer:           r.Quote.Insurer,
		Reference:         r.Quote.Reference,
		Pages:             r.Quote.Pages,
		StatedPremium:     money.Float(r.Quote.StatedPremium),
		ComparisonPremium: money.Float(r.ComparisonPremium),
		PolicyFee:         money.Float(r.Quote.PolicyFee),
		TotalAnnualCost:   money.Float(r.TotalAnnualCost),
		Method:            string(r.Method),
		Warnings:          r.Warnings,
	}
	if r.Record != nil {
		resp.Record = *r.Record
	}
	return resp
}

func violationResponse(v *vat.PolicyViolation) *ViolationResponse {
	return &ViolationResponse{
		Error:        "VAT policy violation",
		Code:         v.Code,
		VATClass:     v.Class,
		Message:      v.Message,
		DetectedRate: v.Rate(),
		Pattern:      v.Pattern,
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
