package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rezonia/quote-vat/internal/server"
)

var (
	serverAddr  string
	serverDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for classifying quotes.

The API provides endpoints for:
  - POST /api/v1/classify        - Classify quote text (JSON)
  - POST /api/v1/classify/pdf    - Classify a PDF body
  - POST /api/v1/classify/batch  - Classify up to 100 documents
  - POST /api/v1/info            - Format, pages and VAT preview
  - GET  /health                 - Health check

Timeouts, upload size, rate limit and cache TTL come from the [server]
section of the config file or QUOTE_VAT_SERVER_* variables.

Examples:
  # Start server on the configured address
  quote-vat serve

  # Start on custom port with API key
  quote-vat serve --address :8080 --api-key <key>

  # Start in debug mode
  quote-vat serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default: server.address)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	srv := server.NewServer(serverConfig())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LLM.Enabled() {
		logger.Info("LLM extraction enabled", "model", cfg.LLM.Model)
	} else {
		logger.Info("LLM extraction disabled (no API key)")
	}

	return srv.Run(ctx)
}

func serverConfig() *server.Config {
	sc := cfg.Server
	if serverAddr != "" {
		sc.Address = serverAddr
	}

	return &server.Config{
		Address:         sc.Address,
		APIKey:          cfg.LLM.APIKey,
		LLMBaseURL:      cfg.LLM.BaseURL,
		LLMModel:        cfg.LLM.Model,
		LLMTimeout:      cfg.LLM.TimeoutDuration(),
		ReadTimeout:     sc.ReadTimeoutDuration(),
		WriteTimeout:    sc.WriteTimeoutDuration(),
		ShutdownTimeout: sc.ShutdownTimeoutDuration(),
		Debug:           sc.Debug || serverDebug,
		MaxUploadSize:   sc.MaxUploadSize,
		RateLimit:       sc.RateLimit,
		RateBurst:       sc.RateBurst,
		CacheTTL:        sc.CacheTTLDuration(),
		Workers:         cfg.Classifier.Workers,
		Logger:          logger,
	}
}
