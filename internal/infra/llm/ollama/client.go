package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:11434"

// Options mirrors the Ollama generation options payload.
type Options struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// GenerateRequest is the payload sent to the Ollama generate API.
type GenerateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

// GenerateChunk captures one frame of an Ollama generate response. The
// non-streaming API returns a single frame with Done set; the streaming
// API returns one frame per line of NDJSON.
type GenerateChunk struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// Client performs HTTP requests against an Ollama-compatible server. It
// holds one reusable http.Client so concurrent classifications share the
// connection pool without sharing any per-call state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs an Ollama client. The timeout bounds the total
// duration of a call, streaming included.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate performs a single non-streaming generate call.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateChunk, error) {
	req.Stream = false

	var out GenerateChunk
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return out, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return out, fmt.Errorf("request generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return out, fmt.Errorf("ollama request failed: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("read generate response: %w", err)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode generate response: %w", err)
	}
	return out, nil
}

// GenerateStream starts a streaming generate call. The caller owns the
// returned stream and must Close it on every path.
func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest) (Stream, error) {
	req.Stream = true

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request generate stream: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("ollama stream failed: status=%d body=%s", resp.StatusCode, string(payload))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 1024), 1<<20)

	return &GenerateStream{
		scanner: scanner,
		closer:  resp.Body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req GenerateRequest) (*http.Request, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	endpoint := c.baseURL + "/api/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

// Stream defines the interface for incremental generate responses.
type Stream interface {
	Recv() (GenerateChunk, error)
	Close() error
}

// GenerateStream wraps a streaming NDJSON HTTP response.
type GenerateStream struct {
	scanner *bufio.Scanner
	closer  io.Closer
	closed  bool
}

// Recv reads the next chunk. It returns io.EOF once the server closes the
// stream.
func (s *GenerateStream) Recv() (GenerateChunk, error) {
	if s.closed {
		return GenerateChunk{}, io.EOF
	}
	for {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
				s.Close()
				return GenerateChunk{}, err
			}
			s.Close()
			return GenerateChunk{}, io.EOF
		}
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var chunk GenerateChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			s.Close()
			return GenerateChunk{}, fmt.Errorf("decode stream chunk: %w", err)
		}
		return chunk, nil
	}
}

// Close closes the underlying connection. Closing mid-stream is how the
// early-stop path abandons a call.
func (s *GenerateStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
