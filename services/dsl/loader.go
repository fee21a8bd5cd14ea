package dsl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a strategy definition from JSON or YAML bytes. format is a
// file extension or media hint ("json", "yaml", "yml").
func Parse(raw []byte, format string) (*Strategy, error) {
	var s Strategy
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse strategy json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse strategy yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported strategy format %q", format)
	}
	return &s, nil
}

// LoadFile reads a .json/.yaml/.yml strategy file.
func LoadFile(path string) (*Strategy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}
	return Parse(raw, filepath.Ext(path))
}
