package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/emotion-api/internal/domain/emotion"
	"github.com/yanqian/emotion-api/internal/infra/config"
	apperrors "github.com/yanqian/emotion-api/pkg/errors"
)

type stubService struct {
	resp      emotion.Response
	err       error
	events    []emotion.StreamEvent
	streamErr error
}

func (s *stubService) Classify(_ context.Context, req emotion.Request) (emotion.Response, error) {
	return s.resp, s.err
}

func (s *stubService) ClassifyStream(_ context.Context, req emotion.Request) (<-chan emotion.StreamEvent, error) {
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	out := make(chan emotion.StreamEvent, len(s.events))
	for _, event := range s.events {
		out <- event
	}
	close(out)
	return out, nil
}

func newTestServer(svc emotion.Service) http.Handler {
	cfg := config.Default()
	handler := NewClassifyHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(cfg, handler).Handler
}

func performRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(&stubService{})

	resp := performRequest(handler, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"status": "ok"}`, resp.Body.String())
	require.NotEmpty(t, resp.Header().Get("X-Request-Id"))
}

func TestClassifyEndpoint(t *testing.T) {
	svc := &stubService{resp: emotion.Response{
		Sentence:         "i miss my dog",
		PredictedEmotion: "sadness",
		DoneReason:       "stopped_early",
	}}
	handler := newTestServer(svc)

	resp := performRequest(handler, http.MethodPost, "/classify", `{"sentence": "i miss my dog"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var body emotion.Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "sadness", body.PredictedEmotion)
	require.Equal(t, "stopped_early", body.DoneReason)
	require.False(t, body.Cached)
}

func TestClassifyEndpointRejectsBadBody(t *testing.T) {
	handler := newTestServer(&stubService{})

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not json"},
		{name: "missing sentence", body: `{}`},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(handler, http.MethodPost, "/classify", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			require.Contains(t, resp.Body.String(), "invalid_request")
		})
	}
}

func TestClassifyEndpointInvalidInput(t *testing.T) {
	svc := &stubService{err: apperrors.Wrap("invalid_input", "sentence cannot be empty", nil)}
	handler := newTestServer(svc)

	resp := performRequest(handler, http.MethodPost, "/classify", `{"sentence": "   "}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestClassifyEndpointUpstreamFailure(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "transport failure", code: "llm_error"},
		{name: "empty stream", code: "llm_no_response"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: apperrors.Wrap(tt.code, "model unavailable", nil)}
			handler := newTestServer(svc)

			resp := performRequest(handler, http.MethodPost, "/classify", `{"sentence": "hello"}`)
			require.Equal(t, http.StatusBadGateway, resp.Code)
			require.Contains(t, resp.Body.String(), tt.code)
		})
	}
}

func TestClassifyStreamEndpoint(t *testing.T) {
	svc := &stubService{events: []emotion.StreamEvent{
		{Token: `{"label": `},
		{Token: `"joy"}`},
		{Done: true, Sentence: "great day", PredictedEmotion: "joy", DoneReason: "done"},
	}}
	handler := newTestServer(svc)

	resp := performRequest(handler, http.MethodPost, "/classify/stream", `{"sentence": "great day"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))

	body := resp.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.Len(t, frames, 3)

	require.Equal(t, `data: {"token":"{\"label\": "}`, frames[0])
	require.Equal(t, `data: {"token":"\"joy\"}"}`, frames[1])

	require.True(t, strings.HasPrefix(frames[2], "event: done\n"))
	var final struct {
		Sentence         string `json:"sentence"`
		PredictedEmotion string `json:"predicted_emotion"`
		DoneReason       string `json:"done_reason"`
	}
	payload := strings.TrimPrefix(frames[2], "event: done\ndata: ")
	require.NoError(t, json.Unmarshal([]byte(payload), &final))
	require.Equal(t, "great day", final.Sentence)
	require.Equal(t, "joy", final.PredictedEmotion)
	require.Equal(t, "done", final.DoneReason)
}

func TestClassifyStreamEndpointUnresolvedLabel(t *testing.T) {
	svc := &stubService{events: []emotion.StreamEvent{
		{Done: true, Sentence: "hmm", PredictedEmotion: emotion.Unresolved, DoneReason: "length"},
	}}
	handler := newTestServer(svc)

	resp := performRequest(handler, http.MethodPost, "/classify/stream", `{"sentence": "hmm"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	// The done frame always carries the field, even when unresolved.
	require.Contains(t, resp.Body.String(), `"predicted_emotion":""`)
}

func TestClassifyStreamEndpointUpstreamFailure(t *testing.T) {
	svc := &stubService{streamErr: apperrors.Wrap("llm_error", "model stream request failed", nil)}
	handler := newTestServer(svc)

	resp := performRequest(handler, http.MethodPost, "/classify/stream", `{"sentence": "hello"}`)
	require.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.RateLimit.Enabled = true
	cfg.HTTP.RateLimit.RequestsPerMinute = 1
	cfg.HTTP.RateLimit.Burst = 2
	handler := NewRouter(cfg, NewClassifyHandler(&stubService{}, slog.New(slog.NewTextHandler(io.Discard, nil)))).Handler

	for i := 0; i < 2; i++ {
		resp := performRequest(handler, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := performRequest(handler, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	require.Contains(t, resp.Body.String(), "rate_limit_exceeded")
}

func TestRequestIDPassthrough(t *testing.T) {
	handler := newTestServer(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, "fixed-id", recorder.Header().Get("X-Request-Id"))
}
