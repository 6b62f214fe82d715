package processors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/processor"
)

var fileReaderDescriptor = feature.Descriptor{
	ID:          "file_reader",
	Name:        "File Reader",
	Description: "Reads a UTF-8 text file from disk.",
	Category:    "Input",
	Inputs:      []feature.Port{{Name: "file_path", Type: "file", Label: "File"}},
	Outputs:     []feature.Port{{Name: "content", Type: "string"}},
	Processor:   "FileReader",
}

var fileUploadDescriptor = feature.Descriptor{
	ID:          "file_upload",
	Name:        "File Upload",
	Description: "Moves an uploaded file into permanent storage.",
	Category:    "Input",
	Inputs:      []feature.Port{{Name: "file_path", Type: "file", Label: "File"}},
	Outputs:     []feature.Port{{Name: "stored_path", Type: "file"}},
	Processor:   "FileUploader",
}

func readFile(_ context.Context, inputs map[string]any) (any, error) {
	path, err := stringInput(inputs, "file_path")
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("the file %s does not exist", path)
		}
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("the file %s is not valid UTF-8", path)
	}
	return string(content), nil
}

func newFileUpload(deps Deps) (processor.Processor, error) {
	if deps.Storage == nil {
		return nil, fmt.Errorf("file_upload needs storage")
	}
	store := deps.Storage
	return processor.Simple(func(_ context.Context, inputs map[string]any) (any, error) {
		path, err := stringInput(inputs, "file_path")
		if err != nil || path == "" {
			return nil, fmt.Errorf("no file provided")
		}
		// Uploads land in <uploads>/<session>/<name>.
		sessionID := filepath.Base(filepath.Dir(path))
		return store.Persist(path, sessionID, "")
	}), nil
}
