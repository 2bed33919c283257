package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/quote-vat/internal/parser/pdf"
	"github.com/rezonia/quote-vat/internal/processor"
	"github.com/rezonia/quote-vat/internal/vat"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about quote files",
	Long: `Display information about quote files without full processing.

Shows:
  - Detected file format (PDF, plain text)
  - Page count for PDFs
  - Insurer named in the document
  - VAT class preview, or the violation that would reject it

Examples:
  quote-vat info quote.pdf
  quote-vat info quotes/*.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	extractor := pdf.NewExtractor()
	out := cmd.OutOrStdout()
	for _, file := range files {
		printFileInfo(cmd, out, extractor, file)
		fmt.Fprintln(out)
	}

	return nil
}

func printFileInfo(cmd *cobra.Command, w io.Writer, extractor *pdf.Extractor, filePath string) {
	fmt.Fprintf(w, "File: %s\n", filePath)

	info, err := os.Stat(filePath)
	if err != nil {
		fmt.Fprintf(w, "  Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "  Size: %d bytes\n", info.Size())
	fmt.Fprintf(w, "  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(w, "  Error reading file: %v\n", err)
		return
	}

	format := processor.DetectFormat(data)
	fmt.Fprintf(w, "  Format: %s\n", formatName(format))

	var text string
	switch format {
	case processor.FormatPDF:
		doc, err := extractor.ExtractText(cmd.Context(), data)
		if err != nil {
			fmt.Fprintf(w, "  Error extracting text: %v\n", err)
			return
		}
		fmt.Fprintf(w, "  Pages: %d\n", doc.Pages)
		for _, warning := range doc.Warnings {
			fmt.Fprintf(w, "  Warning: %s\n", warning)
		}
		text = doc.Text
	case processor.FormatText:
		text = strings.TrimPrefix(string(data), "\ufeff")
	default:
		return
	}

	if insurer := processor.DetectInsurer(text); insurer != "" {
		fmt.Fprintf(w, "  Insurer: %s\n", insurer)
	}

	classification, err := vat.Classify(text, vat.Hints{})
	if v, ok := vat.AsPolicyViolation(err); ok {
		fmt.Fprintf(w, "  VAT: REJECTED %s (%s)\n", v.Class, v.Message)
	} else if err == nil {
		fmt.Fprintf(w, "  VAT: %s (%s confidence)\n", classification.Class, classification.Confidence)
	}

	if preview := getPreview(text, 200); preview != "" {
		fmt.Fprintf(w, "  Preview: %s\n", preview)
	}
}

func formatName(f processor.Format) string {
	switch f {
	case processor.FormatPDF:
		return "PDF"
	case processor.FormatText:
		return "Plain text"
	default:
		return "Unknown"
	}
}

func getPreview(content string, maxLen int) string {
	content = strings.Join(strings.Fields(content), " ")

	runes := []rune(content)
	if len(runes) > maxLen {
		content = string(runes[:maxLen]) + "..."
	}

	return content
}
