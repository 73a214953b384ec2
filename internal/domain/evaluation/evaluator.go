package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/samber/lo"

	"github.com/yanqian/emotion-api/internal/domain/emotion"
	"github.com/yanqian/emotion-api/internal/infra/llm/ollama"
	apperrors "github.com/yanqian/emotion-api/pkg/errors"
	"github.com/yanqian/emotion-api/pkg/metrics"
)

// GenerateClient is the non-streaming transport contract the evaluator
// drives: one whole-body completion per call.
type GenerateClient interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (ollama.GenerateChunk, error)
}

// Evaluator measures model accuracy against gold-labeled samples.
type Evaluator struct {
	cfg    Config
	client GenerateClient
	logger *slog.Logger
}

// NewEvaluator constructs the offline evaluation driver.
func NewEvaluator(cfg Config, client GenerateClient, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "evaluation.evaluator"),
	}
}

// RunBlocks evaluates samples in blocks of BlockSize, one model call per
// block. A transport failure or an unparsable block response aborts the
// run: there is no partial-credit recovery inside a block, and continuing
// would corrupt the accuracy accounting.
func (e *Evaluator) RunBlocks(ctx context.Context, samples []Sample, blockLimit int) (Summary, error) {
	blocks := ChunkSamples(samples, blockLimit)

	var (
		details []Detail
		usage   metrics.TokenUsage
	)

	for i, block := range blocks {
		blockID := i + 1
		prompt := emotion.BuildBlockPrompt(blockID, toBlockSamples(block))

		resp, err := e.client.Generate(ctx, ollama.GenerateRequest{
			Model:  e.cfg.Model,
			Prompt: prompt,
			Options: ollama.Options{
				Temperature: 0,
				NumPredict:  e.cfg.BlockMaxTokens,
			},
		})
		if err != nil {
			return Summary{}, apperrors.Wrap("llm_error", fmt.Sprintf("model request failed for block %d", blockID), err)
		}
		usage.Add(chunkUsage(resp))

		predictions, err := emotion.ParseBlockResponse(resp.Response)
		if err != nil {
			return Summary{}, err
		}

		// Every sample in the block is scored; local ids the model
		// omitted count as unresolved mismatches, not dropped rows.
		for _, sample := range block {
			predicted := predictions[sample.LocalID]
			details = append(details, Detail{
				Block:            blockID,
				DatasetIndex:     sample.DatasetIndex,
				Sentence:         sample.Sentence,
				GoldEmotion:      sample.GoldEmotion,
				PredictedEmotion: predicted,
				Match:            predicted == sample.GoldEmotion,
			})
		}

		e.logger.Info("block evaluated", "block", blockID, "samples", len(block))
	}

	return e.summarize(details, len(blocks), usage), nil
}

// RunSingles evaluates samples one sentence per model call, the way the
// live path classifies but without streaming. Transient transport failures
// are retried; exhausting the retries aborts the run.
func (e *Evaluator) RunSingles(ctx context.Context, samples []Sample) (Summary, error) {
	var (
		details []Detail
		usage   metrics.TokenUsage
	)

	for _, sample := range samples {
		resp, err := e.generateWithRetry(ctx, ollama.GenerateRequest{
			Model:  e.cfg.Model,
			Prompt: emotion.BuildSinglePrompt(sample.Sentence),
			Options: ollama.Options{
				Temperature: 0,
				NumPredict:  e.cfg.SingleMaxTokens,
			},
		})
		if err != nil {
			return Summary{}, apperrors.Wrap("llm_error", fmt.Sprintf("model request failed for sample %d", sample.DatasetIndex), err)
		}
		usage.Add(chunkUsage(resp))

		raw := resp.Response
		extracted := emotion.ExtractLabel(raw)
		if extracted == "" {
			extracted = raw
		}
		predicted := emotion.Normalize(extracted)
		if predicted == emotion.Unresolved {
			e.logger.Warn("empty prediction",
				"dataset_index", sample.DatasetIndex,
				"done_reason", resp.DoneReason,
				"raw_response", raw)
		}

		details = append(details, Detail{
			DatasetIndex:     sample.DatasetIndex,
			Sentence:         sample.Sentence,
			GoldEmotion:      sample.GoldEmotion,
			PredictedEmotion: predicted,
			Match:            predicted == sample.GoldEmotion,
		})
	}

	return e.summarize(details, 0, usage), nil
}

func (e *Evaluator) generateWithRetry(ctx context.Context, req ollama.GenerateRequest) (ollama.GenerateChunk, error) {
	attempts := e.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return retry.DoWithData(
		func() (ollama.GenerateChunk, error) {
			return e.client.Generate(ctx, req)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Warn("retrying model call", "attempt", n+1, "error", err)
		}),
	)
}

func (e *Evaluator) summarize(details []Detail, blocksProcessed int, usage metrics.TokenUsage) Summary {
	correct := lo.CountBy(details, func(d Detail) bool { return d.Match })

	summary := Summary{
		Model:           e.cfg.Model,
		Split:           e.cfg.Split,
		BlocksProcessed: blocksProcessed,
		Accuracy:        roundAccuracy(correct, len(details)),
		Correct:         correct,
		Total:           len(details),
		Results:         details,
	}
	if blocksProcessed > 0 {
		summary.BlockSize = BlockSize
	}
	if !usage.IsZero() {
		summary.TokenUsage = &usage
	}
	return summary
}

func toBlockSamples(block []Sample) []emotion.BlockSample {
	return lo.Map(block, func(s Sample, _ int) emotion.BlockSample {
		return emotion.BlockSample{
			LocalID:      s.LocalID,
			DatasetIndex: s.DatasetIndex,
			Sentence:     s.Sentence,
		}
	})
}

func chunkUsage(chunk ollama.GenerateChunk) metrics.TokenUsage {
	return metrics.TokenUsage{
		PromptTokens:     chunk.PromptEvalCount,
		CompletionTokens: chunk.EvalCount,
		TotalTokens:      chunk.PromptEvalCount + chunk.EvalCount,
	}
}
