package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available LLM models from API",
	Long: `Fetch and list available LLM models from the configured API endpoint.

This command queries the /models endpoint of your LLM provider to show
all available models. Requires LLM_API_KEY to be set; LLM_BASE_URL
defaults to OpenRouter.

To use a specific model, set the environment variable:
  LLM_MODEL=<model-id>

Or use the CLI flag:
  --llm-model <model-id>`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")

	apiKeyStatus := "Not set"
	if key := cfg.LLM.APIKey; key != "" {
		if len(key) > 8 {
			apiKeyStatus = "Set (" + key[:8] + "...)"
		} else {
			apiKeyStatus = "Set"
		}
	}

	fmt.Fprintf(out, "  LLM_BASE_URL: %s\n", cfg.LLM.BaseURL)
	fmt.Fprintf(out, "  LLM_MODEL:    %s\n", cfg.LLM.Model)
	fmt.Fprintf(out, "  LLM_TIMEOUT:  %s\n", cfg.LLM.Timeout)
	fmt.Fprintf(out, "  LLM_API_KEY:  %s\n", apiKeyStatus)
	fmt.Fprintln(out)

	if !cfg.LLM.Enabled() {
		fmt.Fprintln(out, "LLM_API_KEY is required. Set it via environment variable or --api-key flag.")
		return nil
	}

	fmt.Fprintf(out, "Fetching models from %s/models...\n\n", strings.TrimSuffix(cfg.LLM.BaseURL, "/"))

	models, err := newLLMClient().ListModels(cmd.Context())
	if err != nil {
		logger.Warn("model listing failed", "error", err)
		fmt.Fprintf(out, "Could not fetch models: %v\n\n", err)
		fmt.Fprintln(out, "Tip: Your API provider may not support the /models endpoint.")
		fmt.Fprintln(out, "     You can still use a model by setting LLM_MODEL directly.")
		return nil
	}

	if len(models) == 0 {
		fmt.Fprintln(out, "No models returned from API.")
		return nil
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	fmt.Fprintf(out, "Available Models (%d):\n", len(models))
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL ID\tOWNER\tCREATED")
	fmt.Fprintln(w, "--------\t-----\t-------")

	for _, m := range models {
		created := ""
		if m.Created > 0 {
			created = time.Unix(m.Created, 0).Format("2006-01-02")
		}
		owner := m.OwnedBy
		if owner == "" {
			owner = inferProvider(m.ID)
		}
		marker := ""
		if m.ID == cfg.LLM.Model {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\n", m.ID, marker, owner, created)
	}

	return w.Flush()
}

// inferProvider tries to infer the provider from model ID
func inferProvider(modelID string) string {
	modelID = strings.ToLower(modelID)

	switch {
	case strings.Contains(modelID, "claude") || strings.Contains(modelID, "anthropic"):
		return "anthropic"
	case strings.Contains(modelID, "gpt") || strings.Contains(modelID, "openai") || strings.Contains(modelID, "o1"):
		return "openai"
	case strings.Contains(modelID, "gemini") || strings.Contains(modelID, "google"):
		return "google"
	case strings.Contains(modelID, "llama") || strings.Contains(modelID, "meta"):
		return "meta"
	case strings.Contains(modelID, "mistral") || strings.Contains(modelID, "mixtral"):
		return "mistral"
	case strings.Contains(modelID, "qwen"):
		return "alibaba"
	case strings.Contains(modelID, "deepseek"):
		return "deepseek"
	}

	return "-"
}
