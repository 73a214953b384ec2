package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/emotion-api/internal/domain/emotion"
	apperrors "github.com/yanqian/emotion-api/pkg/errors"
)

// ClassifyHandler wires the HTTP transport to the classifier domain.
type ClassifyHandler struct {
	svc    emotion.Service
	logger *slog.Logger
}

// NewClassifyHandler constructs the root HTTP handler.
func NewClassifyHandler(svc emotion.Service, logger *slog.Logger) *ClassifyHandler {
	return &ClassifyHandler{
		svc:    svc,
		logger: logger.With("component", "http.handler"),
	}
}

// Health reports service liveness.
func (h *ClassifyHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Classify handles the sync classification endpoint.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req emotion.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.svc.Classify(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, classifyError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ClassifyStream streams model tokens using Server-Sent Events and closes
// with one done event carrying the final label.
func (h *ClassifyHandler) ClassifyStream(c *gin.Context) {
	var req emotion.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	stream, err := h.svc.ClassifyStream(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, classifyError(err))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	for event := range stream {
		payload, err := h.encodeEvent(event)
		if err != nil {
			h.logger.Error("marshal stream event failed", "error", err)
			continue
		}
		if event.Done {
			c.Writer.Write([]byte("event: done\n"))
		}
		c.Writer.Write([]byte("data: "))
		c.Writer.Write(payload)
		c.Writer.Write([]byte("\n\n"))
		flusher.Flush()
	}
}

type doneEvent struct {
	Sentence         string `json:"sentence"`
	PredictedEmotion string `json:"predicted_emotion"`
	DoneReason       string `json:"done_reason"`
}

func (h *ClassifyHandler) encodeEvent(event emotion.StreamEvent) ([]byte, error) {
	if event.Done {
		return json.Marshal(doneEvent{
			Sentence:         event.Sentence,
			PredictedEmotion: event.PredictedEmotion,
			DoneReason:       event.DoneReason,
		})
	}
	return json.Marshal(gin.H{"token": event.Token})
}

func classifyError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "classify_failed"
	switch apperrors.CodeOf(err) {
	case "invalid_input":
		status = http.StatusBadRequest
	case "llm_error", "llm_no_response":
		status = http.StatusBadGateway
		code = apperrors.CodeOf(err)
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
