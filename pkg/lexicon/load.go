package lexicon

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes and compiles a pattern table.
func ParseYAML(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML pattern table: %w", err)
	}
	if err := t.Compile(); err != nil {
		return nil, fmt.Errorf("invalid pattern table: %w", err)
	}
	return &t, nil
}

// ParseJSON decodes and compiles a pattern table.
func ParseJSON(data []byte) (*Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse JSON pattern table: %w", err)
	}
	if err := t.Compile(); err != nil {
		return nil, fmt.Errorf("invalid pattern table: %w", err)
	}
	return &t, nil
}

// EncodeYAML renders the table in its file form.
func (t *Table) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(t)
}
