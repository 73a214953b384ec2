package emotion

import (
	"fmt"
	"strings"
)

// BuildSinglePrompt renders the instruction for classifying one sentence.
// Kept terse: fewer prompt tokens means the first response tokens, and
// with them the early-stop point, arrive sooner.
func BuildSinglePrompt(sentence string) string {
	return "Classify the emotion of the sentence. Allowed labels: " + strings.Join(Labels, ", ") + ".\n" +
		"Reply ONLY JSON: {\"label\": \"<label>\"}.\n" +
		"Sentence: " + sentence
}

// BlockSample is one sentence inside a block prompt, tagged with its
// 1-based position so the response can be demultiplexed.
type BlockSample struct {
	LocalID      int
	DatasetIndex int
	Sentence     string
}

// BuildBlockPrompt renders the instruction for classifying a block of
// sentences in one call. The schema echo and the verbatim-sentence demand
// are robustness aids for the model; nothing downstream enforces them.
func BuildBlockPrompt(blockID int, samples []BlockSample) string {
	var b strings.Builder
	b.WriteString("You are an emotion classifier. Classify each sentence independently and respond with JSON only.\n")
	b.WriteString("Allowed labels: " + strings.Join(Labels, ", ") + ".\n")
	b.WriteString("Required JSON schema:\n")
	b.WriteString("{\n")
	b.WriteString("  \"block\": <block_id>,\n")
	b.WriteString("  \"results\": [\n")
	b.WriteString("    {\"local_id\": <1-10>, \"dataset_index\": <int>, \"sentence\": \"<original text>\", \"predicted_emotion\": \"<label>\"}\n")
	b.WriteString("  ]\n")
	b.WriteString("}\n")
	b.WriteString("Do not omit any sentences and keep the sentence text verbatim.\n")
	fmt.Fprintf(&b, "Block #%d sentences:", blockID)
	for _, sample := range samples {
		fmt.Fprintf(&b, "\n%d. dataset_index=%d :: %s", sample.LocalID, sample.DatasetIndex, sample.Sentence)
	}
	return b.String()
}
