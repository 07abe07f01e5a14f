package cors

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Indent is the indentation used for the CORS JSON file
const Indent = "  "

// Marshal serializes the configuration as indented JSON without a trailing newline.
// The same bytes are used for the file and the console so the two never drift.
func Marshal(c Configuration) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(c.normalize()); err != nil {
		return nil, fmt.Errorf("failed to encode CORS configuration: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal parses a CORS JSON document
func Unmarshal(data []byte) (Configuration, error) {
	var c Configuration
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode CORS configuration: %w", err)
	}
	return c, nil
}
