package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSONL(t *testing.T) {
	path := writeDataset(t, "test.jsonl", `{"text": "i miss my dog", "label": 0}
{"text": "what a great day", "label": "joy"}

{"text": "i adore you", "label": "LOVE"}
`)

	samples, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	require.Equal(t, 0, samples[0].DatasetIndex)
	require.Equal(t, "i miss my dog", samples[0].Sentence)
	require.Equal(t, "sadness", samples[0].GoldEmotion)
	require.Equal(t, "joy", samples[1].GoldEmotion)
	require.Equal(t, "love", samples[2].GoldEmotion)
}

func TestLoadJSONLHonorsLimit(t *testing.T) {
	path := writeDataset(t, "test.jsonl", `{"text": "a", "label": 1}
{"text": "b", "label": 1}
{"text": "c", "label": 1}
`)

	samples, err := Load(path, 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
}

func TestLoadCSV(t *testing.T) {
	path := writeDataset(t, "test.csv", "text,label\ni miss my dog,0\n\"hello, world\",joy\n")

	samples, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Equal(t, "sadness", samples[0].GoldEmotion)
	require.Equal(t, "hello, world", samples[1].Sentence)
	require.Equal(t, "joy", samples[1].GoldEmotion)
}

func TestLoadCSVRejectsBadHeader(t *testing.T) {
	path := writeDataset(t, "test.csv", "sentence,emotion\na,0\n")

	_, err := Load(path, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected dataset header")
}

func TestLoadRejectsBadLabels(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "index out of range", content: `{"text": "a", "label": 6}`},
		{name: "negative index", content: `{"text": "a", "label": -1}`},
		{name: "unknown name", content: `{"text": "a", "label": "confused"}`},
		{name: "missing label", content: `{"text": "a"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			path := writeDataset(t, "test.jsonl", tt.content+"\n")
			_, err := Load(path, 0)
			require.Error(t, err)
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeDataset(t, "test.parquet", "binary junk")

	_, err := Load(path, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported dataset format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jsonl"), 0)
	require.Error(t, err)
}
