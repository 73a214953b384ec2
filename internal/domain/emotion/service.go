package emotion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/yanqian/emotion-api/internal/infra/llm/ollama"
	apperrors "github.com/yanqian/emotion-api/pkg/errors"
)

// Service exposes classification capabilities.
type Service interface {
	Classify(ctx context.Context, req Request) (Response, error)
	ClassifyStream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// StreamClient is the transport contract the classifier needs: one
// streaming generate call whose connection it can abandon mid-flight.
type StreamClient interface {
	GenerateStream(ctx context.Context, req ollama.GenerateRequest) (ollama.Stream, error)
}

type service struct {
	cfg    Config
	client StreamClient
	store  Store
	logger *slog.Logger
}

// NewService is a wire provider for the classifier domain. store may be
// nil when caching is disabled.
func NewService(cfg Config, client StreamClient, store Store, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger.With("component", "emotion.service"),
	}
}

// Classify runs one streaming classification with early stop: the
// transport call is abandoned the moment the accumulated output yields a
// canonical label, without waiting for the model to finish.
func (s *service) Classify(ctx context.Context, req Request) (Response, error) {
	sentence := strings.TrimSpace(req.Sentence)
	if sentence == "" {
		return Response{}, apperrors.Wrap("invalid_input", "sentence cannot be empty", nil)
	}

	if s.store != nil {
		label, hit, err := s.store.GetLabel(ctx, sentence)
		if err != nil {
			s.logger.Warn("label cache lookup failed", "error", err)
		} else if hit {
			return Response{Sentence: sentence, PredictedEmotion: label, DoneReason: "cached", Cached: true}, nil
		}
	}

	stream, err := s.client.GenerateStream(ctx, s.generateRequest(sentence))
	if err != nil {
		return Response{}, apperrors.Wrap("llm_error", "model stream request failed", err)
	}

	outcome, err := s.consume(stream, s.cfg.EarlyStop, nil)
	if err != nil {
		return Response{}, err
	}

	if s.store != nil && IsCanonical(outcome.label) {
		if err := s.store.SaveLabel(ctx, sentence, outcome.label, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("label cache save failed", "error", err)
		}
	}

	return Response{
		Sentence:         sentence,
		PredictedEmotion: outcome.label,
		DoneReason:       outcome.doneReason,
	}, nil
}

// ClassifyStream runs the observation variant: every token is forwarded to
// the caller as it arrives and exactly one final event carries the label.
// This path never stops early; it exists to give a live consumer
// incremental visibility while deriving the same final label.
func (s *service) ClassifyStream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	sentence := strings.TrimSpace(req.Sentence)
	if sentence == "" {
		return nil, apperrors.Wrap("invalid_input", "sentence cannot be empty", nil)
	}

	stream, err := s.client.GenerateStream(ctx, s.generateRequest(sentence))
	if err != nil {
		return nil, apperrors.Wrap("llm_error", "model stream request failed", err)
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)

		// Every send races the request context so an abandoned consumer
		// never leaves this goroutine blocked on the channel.
		emit := func(event StreamEvent) bool {
			select {
			case out <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		outcome, err := s.consume(stream, false, func(token string) bool {
			return emit(StreamEvent{Token: token})
		})
		if err != nil {
			if apperrors.IsCode(err, "stream_abandoned") {
				s.logger.Debug("stream consumer left", "error", err)
			} else {
				s.logger.Error("model stream failed mid-flight", "error", err)
			}
			return
		}

		emit(StreamEvent{
			Done:             true,
			Sentence:         sentence,
			PredictedEmotion: outcome.label,
			DoneReason:       outcome.doneReason,
		})
	}()

	return out, nil
}

func (s *service) generateRequest(sentence string) ollama.GenerateRequest {
	return ollama.GenerateRequest{
		Model:  s.cfg.Model,
		Prompt: BuildSinglePrompt(sentence),
		Options: ollama.Options{
			Temperature: 0,
			NumPredict:  s.cfg.StreamMaxTokens,
		},
	}
}

type streamOutcome struct {
	label      string
	doneReason string
}

// consume is the one chunk-accumulate-extract loop behind both variants.
// earlyStop decides whether a canonical candidate terminates the stream;
// onToken, when set, observes every text payload as it arrives and returns
// false once the observer is gone. The stream is closed on every exit path.
func (s *service) consume(stream ollama.Stream, earlyStop bool, onToken func(string) bool) (streamOutcome, error) {
	defer stream.Close()

	var (
		buffer     strings.Builder
		doneReason string
		received   bool
	)

	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return streamOutcome{}, apperrors.Wrap("llm_error", "model stream receive failed", err)
		}
		received = true

		if chunk.DoneReason != "" {
			doneReason = chunk.DoneReason
		}
		if chunk.Response != "" {
			buffer.WriteString(chunk.Response)
			if onToken != nil && !onToken(chunk.Response) {
				return streamOutcome{}, apperrors.Wrap("stream_abandoned", "consumer left before stream completion", nil)
			}
		}

		candidate := labelCandidate(buffer.String())

		if earlyStop && IsCanonical(candidate) {
			return streamOutcome{label: candidate, doneReason: reasonOr(doneReason, "stopped_early")}, nil
		}

		if chunk.Done {
			if !IsCanonical(candidate) {
				candidate = Unresolved
			}
			return streamOutcome{label: candidate, doneReason: reasonOr(doneReason, "done")}, nil
		}
	}

	if !received {
		return streamOutcome{}, apperrors.Wrap("llm_no_response", "no response from model stream", nil)
	}
	return streamOutcome{}, apperrors.Wrap("llm_no_response", "model stream ended before completion", nil)
}

// labelCandidate prefers an embedded JSON label but falls back to the raw
// buffer for models that answer with a bare word instead of JSON.
func labelCandidate(buffer string) string {
	extracted := ExtractLabel(buffer)
	if extracted == "" {
		extracted = buffer
	}
	return Normalize(extracted)
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}
