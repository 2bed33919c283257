package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/quote-vat/internal/config"
	"github.com/rezonia/quote-vat/internal/llm"
	"github.com/rezonia/quote-vat/internal/logging"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configPath   string
	logLevel     string
	apiKey       string
	llmBaseURL   string
	llmModel     string

	// Resolved in initConfig
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "quote-vat",
	Short: "Classify the VAT presentation of Saudi insurance quotes",
	Long: `Quote VAT reads insurance quotations (PDF or plain text) and decides
whether the quoted premium includes VAT, excludes it, or states a rate
that must be rejected.

Classes:
  - P1: VAT inclusive
  - P2: VAT exclusive (also the 15% default when nothing is stated)
  - P5: zero VAT stated, rejected
  - P6: non-standard VAT rate stated, rejected

Examples:
  # Classify a single quote
  quote-vat classify quote.pdf

  # Classify a folder and write a table
  quote-vat classify quotes/ -f table

  # Supply the premium when the document does not label it
  quote-vat classify quote.txt --premium 5000

  # Use an LLM to pull the premium and insurer from the text
  quote-vat classify quote.pdf --api-key <key>`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, csv, table)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: quote-vat.toml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env: QUOTE_VAT_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for LLM provider (env: LLM_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&llmBaseURL, "llm-base-url", "", "LLM API base URL (env: LLM_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&llmModel, "llm-model", "", "LLM model for field extraction (env: LLM_MODEL)")
}

// initConfig resolves settings as flags > environment > config file > defaults
func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if apiKey != "" {
		loaded.LLM.APIKey = apiKey
	}
	if llmBaseURL != "" {
		loaded.LLM.BaseURL = llmBaseURL
	}
	if llmModel != "" {
		loaded.LLM.Model = llmModel
	}
	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return err
		}
		loaded.LogLevel = logLevel
	}

	cfg = loaded
	logger = logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

// newLLMExtractor returns nil when no API key is configured
func newLLMExtractor() *llm.Extractor {
	if !cfg.LLM.Enabled() {
		return nil
	}
	client := newLLMClient()
	return llm.NewExtractor(client, llm.WithModel(cfg.LLM.Model))
}

func newLLMClient() *llm.Client {
	return llm.NewClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithTimeout(cfg.LLM.TimeoutDuration()),
		llm.WithDefaultModel(cfg.LLM.Model),
	)
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
