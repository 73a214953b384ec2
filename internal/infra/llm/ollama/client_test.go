package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func decodeRequest(t *testing.T, r *http.Request) GenerateRequest {
	t.Helper()
	var req GenerateRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := decodeRequest(t, r)
		require.Equal(t, "test-model", req.Model)
		require.False(t, req.Stream)
		require.Equal(t, 128, req.Options.NumPredict)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "{\"label\": \"joy\"}", "done": true, "done_reason": "stop", "prompt_eval_count": 42, "eval_count": 7}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	chunk, err := client.Generate(context.Background(), GenerateRequest{
		Model:   "test-model",
		Prompt:  "classify this",
		Options: Options{NumPredict: 128},
	})
	require.NoError(t, err)
	require.Equal(t, `{"label": "joy"}`, chunk.Response)
	require.True(t, chunk.Done)
	require.Equal(t, "stop", chunk.DoneReason)
	require.Equal(t, 42, chunk.PromptEvalCount)
	require.Equal(t, 7, chunk.EvalCount)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	_, err := client.Generate(context.Background(), GenerateRequest{Model: "missing"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=404")
	require.Contains(t, err.Error(), "model not found")
}

func TestGenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		require.True(t, req.Stream)

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"response": "{\"label\": "}
{"response": "\"fear\"}"}

{"done": true, "done_reason": "stop", "eval_count": 9}
`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	stream, err := client.GenerateStream(context.Background(), GenerateRequest{Model: "test-model", Prompt: "p"})
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, `{"label": `, first.Response)
	require.False(t, first.Done)

	second, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, `"fear"}`, second.Response)

	// The blank line between frames is skipped, not surfaced.
	final, err := stream.Recv()
	require.NoError(t, err)
	require.True(t, final.Done)
	require.Equal(t, "stop", final.DoneReason)
	require.Equal(t, 9, final.EvalCount)

	_, err = stream.Recv()
	require.ErrorIs(t, err, io.EOF)
}

func TestGenerateStreamRecvAfterClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response": "token"}` + "\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	stream, err := client.GenerateStream(context.Background(), GenerateRequest{Model: "m"})
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())

	_, err = stream.Recv()
	require.ErrorIs(t, err, io.EOF)
}

func TestGenerateStreamServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	_, err := client.GenerateStream(context.Background(), GenerateRequest{Model: "m"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=503")
}

func TestGenerateStreamBadChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	stream, err := client.GenerateStream(context.Background(), GenerateRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Recv()
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode stream chunk")
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", 0)
	require.Equal(t, defaultBaseURL, client.baseURL)
	require.Equal(t, 180*time.Second, client.httpClient.Timeout)

	client = NewClient("http://example.com/", time.Second)
	require.Equal(t, "http://example.com", client.baseURL)
}
