package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONWriter encodes a value as JSON to a stream or file.
type JSONWriter[T any] struct {
	// Indent is the per-level indentation; empty means compact output.
	Indent string
}

// NewJSONWriter creates a compact-output JSON writer.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a JSON writer with two-space indentation.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write encodes data onto writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	enc := json.NewEncoder(writer)
	if w.Indent != "" {
		enc.SetIndent("", w.Indent)
	}
	return enc.Encode(data)
}

// WriteToFile encodes data into a newly created file at path.
func (w *JSONWriter[T]) WriteToFile(data T, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	return w.Write(data, f)
}
