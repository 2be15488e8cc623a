package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/harrison/dora/internal/models"
	"gopkg.in/yaml.v3"
)

// YAMLParser parses catalogs written in YAML. Unknown keys are rejected so
// that typos in a catalog surface at load time.
type YAMLParser struct{}

// NewYAMLParser creates a new YAML parser
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// Parse decodes a single YAML document into a Catalog.
func (p *YAMLParser) Parse(r io.Reader) (*models.Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var catalog models.Catalog
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return &models.Catalog{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &catalog, nil
}
