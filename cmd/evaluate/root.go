package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/yanqian/emotion-api/internal/domain/evaluation"
	"github.com/yanqian/emotion-api/internal/infra/config"
	"github.com/yanqian/emotion-api/internal/infra/dataset"
	"github.com/yanqian/emotion-api/internal/infra/llm/ollama"
)

type evaluateOptions struct {
	datasetPath string
	mode        string
	limit       int
	blocks      int
	model       string
	baseURL     string
	format      string
}

func newRootCmd() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:          "evaluate",
		Short:        "Evaluate the emotion classifier against a labeled dataset",
		Long:         "Runs the model over a local export of the emotion dataset and reports accuracy.\nSingle mode issues one call per sentence; blocks mode batches 10 sentences per call.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "path to the dataset file (.jsonl or .csv)")
	cmd.Flags().StringVar(&opts.mode, "mode", "single", "evaluation mode: single or blocks")
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "number of samples to evaluate in single mode")
	cmd.Flags().IntVar(&opts.blocks, "blocks", 1, "number of 10-sample blocks to process in blocks mode")
	cmd.Flags().StringVar(&opts.model, "model", "", "model to invoke (defaults to the configured model)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "model server base URL (defaults to the configured URL)")
	cmd.Flags().StringVar(&opts.format, "format", "json", "output format: json or table")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.model != "" {
		cfg.Ollama.Model = opts.model
	}
	if opts.baseURL != "" {
		cfg.Ollama.BaseURL = opts.baseURL
	}

	// The summary goes to stdout; keep logs on stderr so piping the JSON
	// output stays clean.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("service", "emotion-eval")

	samples, split, err := loadSamples(opts)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return errors.New("no samples found for the requested configuration")
	}

	evaluator := evaluation.NewEvaluator(evaluation.Config{
		Model:           cfg.Ollama.Model,
		Split:           split,
		SingleMaxTokens: cfg.Evaluation.SingleMaxTokens,
		BlockMaxTokens:  cfg.Evaluation.BlockMaxTokens,
		RetryAttempts:   cfg.Evaluation.RetryAttempts,
	}, ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Timeout), logger)

	var summary evaluation.Summary
	switch opts.mode {
	case "single":
		summary, err = evaluator.RunSingles(cmd.Context(), samples)
	case "blocks":
		summary, err = evaluator.RunBlocks(cmd.Context(), samples, opts.blocks)
	default:
		return fmt.Errorf("unknown mode %q (expected single or blocks)", opts.mode)
	}
	if err != nil {
		return err
	}

	return render(summary, opts.format)
}

func loadSamples(opts *evaluateOptions) ([]evaluation.Sample, string, error) {
	limit := opts.limit
	if opts.mode == "blocks" {
		// Load just enough full blocks; ChunkSamples drops any trailing
		// remainder anyway.
		limit = 0
		if opts.blocks > 0 {
			limit = opts.blocks * evaluation.BlockSize
		}
	}

	samples, err := dataset.Load(opts.datasetPath, limit)
	if err != nil {
		return nil, "", err
	}

	split := filepath.Base(opts.datasetPath)
	if limit > 0 {
		split = fmt.Sprintf("%s[:%d]", split, limit)
	}
	return samples, split, nil
}

func render(summary evaluation.Summary, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(summary)
	case "table":
		renderTable(summary)
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected json or table)", format)
	}
}

func renderTable(summary evaluation.Summary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Index", "Sentence", "Gold", "Predicted", "Match"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, detail := range summary.Results {
		table.Append([]string{
			strconv.Itoa(detail.DatasetIndex),
			truncateSentence(detail.Sentence, 60),
			detail.GoldEmotion,
			detail.PredictedEmotion,
			strconv.FormatBool(detail.Match),
		})
	}
	table.Render()

	fmt.Printf("\naccuracy: %.2f%% (%d/%d)\n", summary.Accuracy, summary.Correct, summary.Total)
	if summary.TokenUsage != nil {
		fmt.Printf("tokens: prompt=%d completion=%d\n", summary.TokenUsage.PromptTokens, summary.TokenUsage.CompletionTokens)
	}
}

// truncateSentence shortens table cells without splitting a rune.
func truncateSentence(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
