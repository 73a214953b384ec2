package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yanqian/emotion-api/internal/domain/emotion"
	"github.com/yanqian/emotion-api/internal/domain/evaluation"
)

// Load reads gold-labeled samples from a local export of the reference
// dataset. JSONL files carry one {"text": ..., "label": ...} object per
// line; CSV files carry text,label columns with a header row. Labels may
// be class indices (the dataset's native encoding) or label names. limit
// caps the number of samples when positive.
func Load(path string, limit int) ([]evaluation.Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(file, limit)
	case ".jsonl", ".json", ".ndjson":
		return loadJSONL(file, limit)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", filepath.Ext(path))
	}
}

type jsonlRow struct {
	Text  string          `json:"text"`
	Label json.RawMessage `json:"label"`
}

func loadJSONL(r io.Reader, limit int) ([]evaluation.Sample, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var samples []evaluation.Sample
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row jsonlRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("parse dataset line %d: %w", len(samples)+1, err)
		}
		gold, err := resolveGold(string(row.Label))
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", len(samples)+1, err)
		}
		samples = append(samples, evaluation.Sample{
			DatasetIndex: len(samples),
			Sentence:     row.Text,
			GoldEmotion:  gold,
		})
		if limit > 0 && len(samples) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return samples, nil
}

func loadCSV(r io.Reader, limit int) ([]evaluation.Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "text") || !strings.EqualFold(strings.TrimSpace(header[1]), "label") {
		return nil, fmt.Errorf("unexpected dataset header: %v", header)
	}

	var samples []evaluation.Sample
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", len(samples)+2, err)
		}
		gold, err := resolveGold(record[1])
		if err != nil {
			return nil, fmt.Errorf("dataset row %d: %w", len(samples)+2, err)
		}
		samples = append(samples, evaluation.Sample{
			DatasetIndex: len(samples),
			Sentence:     record[0],
			GoldEmotion:  gold,
		})
		if limit > 0 && len(samples) >= limit {
			break
		}
	}
	return samples, nil
}

// resolveGold accepts either a class index into the label vocabulary or a
// canonical label name, quoted or bare.
func resolveGold(raw string) (string, error) {
	cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if cleaned == "" {
		return "", fmt.Errorf("missing label")
	}

	if idx, err := strconv.Atoi(cleaned); err == nil {
		if idx < 0 || idx >= len(emotion.Labels) {
			return "", fmt.Errorf("label index %d out of range", idx)
		}
		return emotion.Labels[idx], nil
	}

	lowered := strings.ToLower(cleaned)
	if !emotion.IsCanonical(lowered) {
		return "", fmt.Errorf("unknown label %q", cleaned)
	}
	return lowered, nil
}
