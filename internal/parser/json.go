package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/harrison/dora/internal/models"
)

// JSONParser parses catalogs exported as JSON.
type JSONParser struct{}

// NewJSONParser creates a new JSON parser
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// Parse decodes a JSON object into a Catalog, rejecting unknown fields.
func (p *JSONParser) Parse(r io.Reader) (*models.Catalog, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var catalog models.Catalog
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return &models.Catalog{}, nil
		}
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &catalog, nil
}
