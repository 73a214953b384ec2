package emotion

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/yanqian/emotion-api/pkg/errors"
)

// ExtractLabel finds the first {...} object embedded in free-form model
// text and returns its "label" field as text. A missing object or a parse
// failure yields an empty string, never an error: models frequently wrap
// JSON in explanatory prose or stop mid-object, and both are expected.
func ExtractLabel(text string) string {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return ""
	}
	end := strings.IndexByte(text[start:], '}')
	if end == -1 {
		return ""
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text[start:start+end+1]), &parsed); err != nil {
		return ""
	}
	return coerceString(parsed["label"])
}

// BlockPredictions maps a block-local sample id to its normalized label.
// Ids the model omitted are simply absent and read back as unresolved.
type BlockPredictions map[int]string

// The wire fields stay loosely typed: models return local_ids as numbers
// or quoted numbers, and occasionally put junk in either field.
type blockWire struct {
	Results []blockWireEntry `json:"results"`
}

type blockWireEntry struct {
	LocalID          any `json:"local_id"`
	PredictedEmotion any `json:"predicted_emotion"`
}

var fenceMarker = regexp.MustCompile("(?i)```(?:json)?")

// ParseBlockResponse parses a whole batch response into per-sample
// predictions. Unlike ExtractLabel, a malformed body is a hard error
// carrying the raw text: the entire block call is wasted and silent
// continuation would corrupt accuracy accounting downstream.
func ParseBlockResponse(raw string) (BlockPredictions, error) {
	cleaned := strings.TrimSpace(fenceMarker.ReplaceAllString(raw, ""))

	var wire blockWire
	decoder := json.NewDecoder(strings.NewReader(cleaned))
	decoder.UseNumber()
	if err := decoder.Decode(&wire); err != nil {
		return nil, apperrors.Wrap("bad_block_response", fmt.Sprintf("failed to parse model JSON: %q", raw), err)
	}

	predictions := make(BlockPredictions, len(wire.Results))
	for _, entry := range wire.Results {
		localID, ok := coerceInt(entry.LocalID)
		if !ok {
			// Entries without a usable local_id cannot be attributed
			// to a sample; skip them.
			continue
		}
		predictions[localID] = Normalize(coerceString(entry.PredictedEmotion))
	}
	return predictions, nil
}

func coerceInt(v any) (int, bool) {
	switch value := v.(type) {
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return int(i), true
		}
		if f, err := value.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
