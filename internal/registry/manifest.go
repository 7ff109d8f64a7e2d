package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ManifestParser turns manifest text into a key/value mapping.
type ManifestParser interface {
	Parse(data []byte) (map[string]any, error)
}

// JSONManifestParser parses package.json documents. A top-level null is
// malformed; any other non-object document has no keys.
type JSONManifestParser struct{}

// Parse decodes data as JSON.
func (JSONManifestParser) Parse(data []byte) (map[string]any, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	if doc == nil {
		return nil, fmt.Errorf("top-level value is null")
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return m, nil
}

// mainEntry extracts the "main" field. Falsy values (absent, null, false, 0,
// "") mean none; any other non-string is an error.
func mainEntry(fields map[string]any) (string, bool, error) {
	raw, ok := fields["main"]
	if !ok || raw == nil {
		return "", false, nil
	}
	switch v := raw.(type) {
	case string:
		return v, v != "", nil
	case bool:
		if !v {
			return "", false, nil
		}
	case float64:
		if v == 0 {
			return "", false, nil
		}
	}
	return "", false, fmt.Errorf(`"main" must be a string, got %T`, raw)
}
