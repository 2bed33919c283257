package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	money "github.com/rezonia/quote-vat/internal/decimal"
	"github.com/rezonia/quote-vat/internal/processor"
	"github.com/rezonia/quote-vat/internal/vat"
)

var (
	outputFile string
	timeout    time.Duration
	premium    string
	policyFee  string
	workers    int
	strict     bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [files...]",
	Short: "Classify the VAT presentation of quote files",
	Long: `Classify one or more quotation files and print their VAT record.

Supported formats:
  - PDF: .pdf
  - Plain text: .txt

The classification flow:
  1. Extract text (PDF content streams or the file itself)
  2. Premium from --premium, then the LLM (if an API key is set), then labelled figures
  3. Reject zero or non-standard VAT rates (P5, P6)
  4. Classify the rest as inclusive (P1) or exclusive (P2)
  5. Total annual cost: comparison premium plus the policy fee


Rejected documents are reported with their violation. The command only
fails on rejections when --strict is set.

Examples:
  quote-vat classify quote.pdf
  quote-vat classify quote.txt --premium 5000
  quote-vat classify quote.txt --policy-fee 150
  quote-vat classify quotes/ -f table
  quote-vat classify *.pdf -o results.json --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	classifyCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Processing timeout for the whole run")
	classifyCmd.Flags().StringVar(&premium, "premium", "", "Stated premium applied to every file, e.g. 5000 or \"SAR 5,000\"")
	classifyCmd.Flags().StringVar(&policyFee, "policy-fee", "", "Policy fee applied to files that state none")
	classifyCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent documents (default: classifier.workers)")
	classifyCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any document is rejected")
}

func runClassify(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to process")
	}

	hints, err := premiumHints(premium)
	if err != nil {
		return err
	}
	fee, err := parsePolicyFee(policyFee)
	if err != nil {
		return err
	}

	printVerbose("Found %d files to process\n", len(files))

	n := workers
	if n <= 0 {
		n = cfg.Classifier.Workers
	}

	llmExtractor := newLLMExtractor()
	if llmExtractor != nil {
		printVerbose("LLM extraction enabled (model: %s)\n", cfg.LLM.Model)
	}

	pipeline := processor.NewPipeline(
		processor.WithLLMExtractor(llmExtractor),
		processor.WithLogger(logger),
		processor.WithWorkers(n),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	results := classifyFiles(ctx, pipeline, files, hints, fee)
	for _, r := range results {
		switch {
		case r.Error != "":
			printVerbose("%s: error: %s\n", r.File, r.Error)
		case r.Violation != nil:
			printVerbose("%s: rejected %s (%s)\n", r.File, r.Violation.Class, r.Violation.Code)
		case r.Record != nil:
			printVerbose("%s: %s via %s\n", r.File, r.Record.VATClass, r.Method)
		}
	}

	if err := outputResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if strict {
		if rejected := countRejected(results); rejected > 0 {
			return fmt.Errorf("%d of %d documents rejected", rejected, len(results))
		}
	}
	return nil
}

// classifyFiles reads every file and classifies them as one batch.
// Files that cannot be read are reported without reaching the pipeline.
func classifyFiles(ctx context.Context, pipeline *processor.Pipeline, files []string, hints vat.Hints, fee decimal.NullDecimal) []*ClassifyResult {
	results := make([]*ClassifyResult, len(files))
	inputs := make([]processor.Input, 0, len(files))
	index := make([]int, 0, len(files))

	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			results[i] = &ClassifyResult{File: file, Error: fmt.Sprintf("failed to read file: %v", err)}
			continue
		}
		inputs = append(inputs, processor.Input{
			FileName:  filepath.Base(file),
			Data:      data,
			Hints:     hints,
			PolicyFee: fee,
		})
		index = append(index, i)
	}

	for j, r := range pipeline.ProcessBatch(ctx, inputs) {
		results[index[j]] = newClassifyResult(files[index[j]], r)
	}
	return results
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if info.IsDir() {
				found, err := walkDir(match)
				if err != nil {
					return nil, err
				}
				files = append(files, found...)
				continue
			}
			// Explicit file names are kept whatever their extension
			if isSupportedFile(match) || match == arg {
				files = append(files, match)
			}
		}
	}

	return files, nil
}

func walkDir(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && isSupportedFile(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt":
		return true
	default:
		return false
	}
}

func premiumHints(s string) (vat.Hints, error) {
	if strings.TrimSpace(s) == "" {
		return vat.Hints{}, nil
	}
	d, err := money.ParseAmount(s)
	if err != nil {
		return vat.Hints{}, fmt.Errorf("invalid --premium: %w", err)
	}
	return vat.Hints{Premium: decimal.NewNullDecimal(d)}, nil
}

func parsePolicyFee(s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := money.ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid --policy-fee: %w", err)
	}
	return money.Null(d), nil
}

func countRejected(results []*ClassifyResult) int {
	n := 0
	for _, r := range results {
		if r.Violation != nil && r.Violation.Class.Rejected() {
			n++
		}
	}
	return n
}

func outputResults(stdout io.Writer, results []*ClassifyResult) error {
	w := stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch outputFormat {
	case "json":
		return outputJSON(w, results)
	case "table":
		return outputTable(w, results)
	case "csv":
		return outputCSV(w, results)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputJSON(w io.Writer, results []*ClassifyResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func outputTable(w io.Writer, results []*ClassifyResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tINSURER\tCLASS\tVAT %\tVAT\tPREMIUM\tCOMPARISON\tTOTAL\tMETHOD\tCONFIDENCE")
	fmt.Fprintln(tw, "----\t-------\t-----\t-----\t---\t-------\t----------\t-----\t------\t----------")

	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\t\t\t\n", r.File, r.Error)
		case r.Violation != nil:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\t\t\t\tREJECTED: %s\t\n",
				r.File, r.Insurer, r.Violation.Class, formatFloat(r.Violation.DetectedRate), r.Violation.Code)
		case r.Record != nil:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.File,
				r.Insurer,
				r.Record.VATClass,
				formatFloat(r.Record.VATPercentage),
				formatFloat(r.Record.VATAmount),
				formatFloat(r.StatedPremium),
				formatFloat(r.ComparisonPremium),
				formatFloat(r.TotalAnnualCost),
				r.Method,
				r.Record.VATClassification.Confidence,
			)
		}
	}

	return tw.Flush()
}

func outputCSV(w io.Writer, results []*ClassifyResult) error {
	fmt.Fprintln(w, "file,insurer,reference,vat_class,vat_percentage,vat_amount,stated_premium,comparison_premium,total_annual_cost,method,confidence,duplicate,violation,error")

	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "%s,,,,,,,,,,,,,%s\n", escapeCSV(r.File), escapeCSV(r.Error))
		case r.Violation != nil:
			fmt.Fprintf(w, "%s,%s,%s,%s,%s,,,,,,,,%s,\n",
				escapeCSV(r.File),
				escapeCSV(r.Insurer),
				escapeCSV(r.Reference),
				r.Violation.Class,
				formatFloat(r.Violation.DetectedRate),
				r.Violation.Code,
			)
		case r.Record != nil:
			fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%t,,\n",
				escapeCSV(r.File),
				escapeCSV(r.Insurer),
				escapeCSV(r.Reference),
				r.Record.VATClass,
				formatFloat(r.Record.VATPercentage),
				formatFloat(r.Record.VATAmount),
				formatFloat(r.StatedPremium),
				formatFloat(r.ComparisonPremium),
				formatFloat(r.TotalAnnualCost),
				r.Method,
				r.Record.VATClassification.Confidence,
				r.Duplicate,
			)
		}
	}

	return nil
}

func escapeCSV(s string) string {
	if strings.Contains(s, ",") || strings.Contains(s, "\"") || strings.Contains(s, "\n") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return decimal.NewFromFloat(*f).StringFixed(2)
}

// ClassifyResult holds the result of classifying a single file
type ClassifyResult struct {
	File              string           `json:"file"`
	Insurer           string           `json:"insurer,omitempty"`
	Reference         string           `json:"reference,omitempty"`
	Record            *vat.Record      `json:"record,omitempty"`
	StatedPremium     *float64         `json:"stated_premium,omitempty"`
	ComparisonPremium *float64         `json:"comparison_premium,omitempty"`
	PolicyFee         *float64         `json:"policy_fee,omitempty"`
	TotalAnnualCost   *float64         `json:"total_annual_cost,omitempty"`
	Method            string           `json:"method,omitempty"`
	Violation         *ViolationResult `json:"violation,omitempty"`
	Duplicate         bool             `json:"duplicate,omitempty"`
	Warnings          []string         `json:"warnings,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// ViolationResult describes why a document was rejected
type ViolationResult struct {
	Code         string    `json:"code"`
	Class        vat.Class `json:"vat_class"`
	Message      string    `json:"message"`
	DetectedRate *float64  `json:"detected_rate"`
}

func newClassifyResult(file string, r *processor.Result) *ClassifyResult {
	result := &ClassifyResult{
		File:      file,
		Method:    string(r.Method),
		Duplicate: r.Duplicate,
		Warnings:  r.Warnings,
	}
	if r.Quote != nil {
		result.Insurer = r.Quote.Insurer
		result.Reference = r.Quote.Reference
		result.StatedPremium = money.Float(r.Quote.StatedPremium)
		result.PolicyFee = money.Float(r.Quote.PolicyFee)
	}

	switch {
	case r.Error != nil:
		result.Error = r.Error.Error()
	case r.Violation != nil:
		result.Violation = &ViolationResult{
			Code:         r.Violation.Code,
			Class:        r.Violation.Class,
			Message:      r.Violation.Message,
			DetectedRate: r.Violation.Rate(),
		}
	default:
		result.Record = r.Record
		result.ComparisonPremium = money.Float(r.ComparisonPremium)
		result.TotalAnnualCost = money.Float(r.TotalAnnualCost)
	}
	return result
}
