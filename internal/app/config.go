package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
)

// LoadPatternTable loads a pattern table from a file, or the built-in table
// when filePath is empty
func LoadPatternTable(filePath string) (*lexicon.Table, error) {
	if filePath == "" {
		return lexicon.DefaultTable(), nil
	}

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("pattern file does not exist: %s", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	// Determine file format
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return lexicon.ParseYAML(data)
	case ".json":
		return lexicon.ParseJSON(data)
	default:
		// Try YAML first, then JSON
		if table, err := lexicon.ParseYAML(data); err == nil {
			return table, nil
		}
		return lexicon.ParseJSON(data)
	}
}

// EncodePatternTable renders a table as yaml or json
func EncodePatternTable(table *lexicon.Table, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode pattern table: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml", "yml", "":
		return table.EncodeYAML()
	default:
		return nil, fmt.Errorf("unsupported pattern format: %s", format)
	}
}
