package processors

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/kingrea/flowbench/internal/feature"
)

var textExtractionDescriptor = feature.Descriptor{
	ID:          "text_extraction",
	Name:        "Text Extraction",
	Description: "Converts a document into Markdown text.",
	Category:    "Processing",
	Inputs:      []feature.Port{{Name: "file_path", Type: "file", Label: "Document"}},
	Outputs:     []feature.Port{{Name: "text", Type: "string"}},
	Processor:   "TextExtractor",
}

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

func extractText(_ context.Context, inputs map[string]any) (any, error) {
	path, err := stringInput(inputs, "file_path")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return "> Error: File not found.", nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	var text string
	switch ext {
	case "txt", "md", "markdown":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text = string(raw)
	case "html", "htm":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text, err = htmltomarkdown.ConvertString(string(raw))
		if err != nil {
			return fmt.Sprintf("> Error reading HTML: %v", err), nil
		}
	case "csv":
		text, err = csvToMarkdown(path)
		if err != nil {
			return fmt.Sprintf("> Error reading Spreadsheet: %v", err), nil
		}
	default:
		return fmt.Sprintf("> Warning: Format '.%s' is not supported for rich extraction.", ext), nil
	}
	return cleanMarkdown(text), nil
}

func cleanMarkdown(text string) string {
	return extraBlankLines.ReplaceAllString(strings.TrimSpace(text), "\n\n")
}

func csvToMarkdown(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	header := rows[0]
	lines := []string{markdownRow(header)}
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, markdownRow(sep))
	for _, row := range rows[1:] {
		for len(row) < len(header) {
			row = append(row, "")
		}
		lines = append(lines, markdownRow(row))
	}
	return strings.Join(lines, "\n"), nil
}

func markdownRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
