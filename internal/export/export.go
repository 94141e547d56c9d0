// Package export writes the pipeline's one durable artifact: a UTF-8,
// indented, human-readable JSON document. Non-ASCII review text is
// written as-is, never escaped.
package export

import (
	"encoding/json"
	"io"
	"os"
)

// Write encodes v onto w.
func Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFile writes v to path, replacing any previous export.
func WriteFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
