package persist

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mydraft/mydraft/backend-go/internal/document"
)

// Marshal encodes d as JSON.
func Marshal(d document.Diagram) ([]byte, error) {
	data, err := json.Marshal(Encode(d))
	if err != nil {
		return nil, fmt.Errorf("marshal diagram: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON diagram. Malformed input is ErrCorrupt.
func Unmarshal(data []byte) (document.Diagram, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return document.Diagram{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return Decode(doc)
}

// MarshalYAML encodes d as YAML, the format used for fixtures and exports.
func MarshalYAML(d document.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Encode(d)); err != nil {
		return nil, fmt.Errorf("marshal diagram yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal diagram yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML diagram. Malformed input is ErrCorrupt.
func UnmarshalYAML(data []byte) (document.Diagram, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return document.Diagram{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return Decode(doc)
}
