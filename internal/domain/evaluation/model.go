package evaluation

import (
	"math"

	"github.com/yanqian/emotion-api/pkg/metrics"
)

// Config tunes the offline evaluation driver.
type Config struct {
	Model string
	// Split names the dataset slice under evaluation, echoed into the
	// summary for reporting.
	Split           string
	SingleMaxTokens int
	BlockMaxTokens  int
	RetryAttempts   int
}

// Sample is one labeled sentence from the reference dataset. LocalID is
// the 1-based position inside a block and is only set once the sample has
// been chunked.
type Sample struct {
	DatasetIndex int
	Sentence     string
	GoldEmotion  string
	LocalID      int
}

// Detail records the outcome for one sample.
type Detail struct {
	Block            int    `json:"block,omitempty"`
	DatasetIndex     int    `json:"dataset_index"`
	Sentence         string `json:"sentence"`
	GoldEmotion      string `json:"gold_emotion"`
	PredictedEmotion string `json:"predicted_emotion"`
	Match            bool   `json:"match"`
}

// Summary aggregates an evaluation run.
type Summary struct {
	Model           string              `json:"model,omitempty"`
	Split           string              `json:"split,omitempty"`
	BlockSize       int                 `json:"block_size,omitempty"`
	BlocksProcessed int                 `json:"blocks_processed,omitempty"`
	Accuracy        float64             `json:"accuracy"`
	Correct         int                 `json:"correct"`
	Total           int                 `json:"total"`
	TokenUsage      *metrics.TokenUsage `json:"tokenUsage,omitempty"`
	Results         []Detail            `json:"results"`
}

// roundAccuracy yields 100*correct/total rounded to two decimals, and zero
// (not a division error) for an empty run.
func roundAccuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(10000*float64(correct)/float64(total)) / 100
}
