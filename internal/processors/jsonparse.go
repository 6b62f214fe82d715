package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/kingrea/flowbench/internal/feature"
)

var jsonParseDescriptor = feature.Descriptor{
	ID:          "json_parse",
	Name:        "JSON Parse",
	Description: "Decodes JSON text, repairing common mistakes such as trailing commas or single quotes.",
	Category:    "Processing",
	Inputs:      []feature.Port{{Name: "text", Type: "string"}},
	Outputs:     []feature.Port{{Name: "value", Type: "any"}},
	Processor:   "JSONParser",
}

func parseJSON(_ context.Context, inputs map[string]any) (any, error) {
	text, err := stringInput(inputs, "text")
	if err != nil {
		return nil, err
	}
	return DecodeValue(text)
}

// DecodeValue decodes JSON text. Text that looks like an object or array is
// repaired before a second attempt.
func DecodeValue(text string) (any, error) {
	var value any
	err := json.Unmarshal([]byte(text), &value)
	if err == nil {
		return value, nil
	}
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("not JSON: %w", err)
	}
	repaired, repairErr := jsonrepair.JSONRepair(trimmed)
	if repairErr != nil {
		return nil, fmt.Errorf("invalid JSON: %w (repair failed: %v)", err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		return nil, fmt.Errorf("invalid JSON after repair: %w", err)
	}
	return value, nil
}
