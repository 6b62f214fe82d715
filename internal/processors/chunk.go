package processors

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kingrea/flowbench/internal/feature"
)

const (
	defaultChunkSize = 500
	defaultOverlap   = 50
)

var textChunkerDescriptor = feature.Descriptor{
	ID:          "text_chunker",
	Name:        "Text Chunker",
	Description: "Splits text into overlapping chunks of roughly chunk_size characters.",
	Category:    "Processing",
	Inputs: []feature.Port{
		{Name: "text", Type: "string"},
		{Name: "chunk_size", Type: "number", Optional: true},
		{Name: "overlap", Type: "number", Optional: true},
	},
	Outputs:   []feature.Port{{Name: "chunks", Type: "list"}},
	Processor: "TextChunker",
}

func chunkText(_ context.Context, inputs map[string]any) (any, error) {
	text, _ := inputs["text"].(string)
	size, err := intInput(inputs, "chunk_size", defaultChunkSize)
	if err != nil {
		return nil, err
	}
	overlap, err := intInput(inputs, "overlap", defaultOverlap)
	if err != nil {
		return nil, err
	}
	pieces := splitWords(strings.Join(strings.Fields(text), " "), size, overlap)
	chunks := make([]map[string]any, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, map[string]any{"chunk_id": i, "text": piece})
	}
	return chunks, nil
}

// splitWords groups words until a chunk reaches size characters, carrying
// overlap/10 trailing words into the next chunk.
func splitWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	keep := overlap / 10
	var (
		chunks  []string
		current []string
		length  int
	)
	for _, word := range words {
		current = append(current, word)
		length += len(word) + 1
		if length < size {
			continue
		}
		chunks = append(chunks, strings.Join(current, " "))
		if keep > 0 && keep < len(current) {
			current = append([]string(nil), current[len(current)-keep:]...)
		} else if keep <= 0 {
			current = nil
		}
		length = 0
		for _, w := range current {
			length += len(w) + 1
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

func intInput(inputs map[string]any, name string, fallback int) (int, error) {
	var n int
	switch v := inputs[name].(type) {
	case nil:
		return fallback, nil
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", name, err)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", name, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	if n == 0 && name == "chunk_size" {
		return fallback, nil
	}
	return n, nil
}
