package emotion

import "time"

// Config tunes the live classification path.
type Config struct {
	Model           string
	StreamMaxTokens int
	EarlyStop       bool
	CacheTTL        time.Duration
}

// Request represents the incoming classification payload.
type Request struct {
	Sentence string `json:"sentence" binding:"required"`
}

// Response is returned by the sync endpoint. PredictedEmotion is empty
// when the model finished without a usable label.
type Response struct {
	Sentence         string `json:"sentence"`
	PredictedEmotion string `json:"predicted_emotion"`
	DoneReason       string `json:"done_reason,omitempty"`
	Cached           bool   `json:"cached,omitempty"`
}

// StreamEvent is one update on the observation stream: token events carry
// incremental text, the final event carries the classification outcome.
type StreamEvent struct {
	Token            string `json:"token,omitempty"`
	Done             bool   `json:"-"`
	Sentence         string `json:"sentence,omitempty"`
	PredictedEmotion string `json:"predicted_emotion,omitempty"`
	DoneReason       string `json:"done_reason,omitempty"`
}
