package emotion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSinglePrompt(t *testing.T) {
	prompt := BuildSinglePrompt("i am so glad you came")

	for _, label := range Labels {
		require.Contains(t, prompt, label)
	}
	require.Contains(t, prompt, `{"label": "<label>"}`)
	require.True(t, strings.HasSuffix(prompt, "Sentence: i am so glad you came"))
}

func TestBuildBlockPrompt(t *testing.T) {
	samples := []BlockSample{
		{LocalID: 1, DatasetIndex: 40, Sentence: "first sentence"},
		{LocalID: 2, DatasetIndex: 41, Sentence: "second sentence"},
	}

	prompt := BuildBlockPrompt(5, samples)

	require.Contains(t, prompt, "Block #5 sentences:")
	require.Contains(t, prompt, "1. dataset_index=40 :: first sentence")
	require.Contains(t, prompt, "2. dataset_index=41 :: second sentence")
	require.Contains(t, prompt, `"results"`)
	require.Contains(t, prompt, "Do not omit any sentences")
	for _, label := range Labels {
		require.Contains(t, prompt, label)
	}
}
