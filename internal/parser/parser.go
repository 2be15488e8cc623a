// Package parser loads questionnaire catalogs from YAML or JSON files, or
// from a directory of numbered catalog parts.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/harrison/dora/internal/models"
)

// Format represents the format of a catalog file
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatYAML represents a YAML (.yaml, .yml) catalog file
	FormatYAML
	// FormatJSON represents a JSON (.json) catalog file
	FormatJSON
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Parser is the interface that all catalog parsers must implement
type Parser interface {
	Parse(r io.Reader) (*models.Catalog, error)
}

// DetectFormat detects the catalog format from the file extension.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// NewParser creates a new parser instance for the specified format
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatYAML:
		return NewYAMLParser(), nil
	case FormatJSON:
		return NewJSONParser(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
}

// LoadCatalog reads and validates the catalog at path. A directory is
// treated as a split catalog (see ParseDirectory). An empty catalog is
// returned together with models.ErrEmptyCatalog so callers can report it.
func LoadCatalog(path string) (*models.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	var catalog *models.Catalog
	if info.IsDir() {
		catalog, err = ParseDirectory(path)
	} else {
		catalog, err = parseFile(path)
	}
	if err != nil {
		return nil, err
	}

	if err := catalog.Validate(); err != nil {
		if errors.Is(err, models.ErrEmptyCatalog) {
			return catalog, err
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

var partPattern = regexp.MustCompile(`^(\d+)-`)

// IsSplitCatalog reports whether dirname contains numbered catalog parts
// (1-governance.yaml, 2-risk.json, ...).
func IsSplitCatalog(dirname string) bool {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && partPattern.MatchString(entry.Name()) && DetectFormat(entry.Name()) != FormatUnknown {
			return true
		}
	}
	return false
}

// ParseDirectory loads every numbered catalog part in dirname, in numeric
// order, and merges them. Files without a numeric prefix are ignored. The
// result is not validated.
func ParseDirectory(dirname string) (*models.Catalog, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	type part struct {
		index int
		path  string
	}

	var parts []part
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		match := partPattern.FindStringSubmatch(entry.Name())
		if match == nil || DetectFormat(entry.Name()) == FormatUnknown {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		parts = append(parts, part{index, filepath.Join(dirname, entry.Name())})
	}

	sort.SliceStable(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	catalogs := make([]*models.Catalog, 0, len(parts))
	for _, p := range parts {
		c, err := parseFile(p.path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(p.path), err)
		}
		catalogs = append(catalogs, c)
	}

	return MergeCatalogs(catalogs...)
}

// IgnoredFiles lists catalog-format files in dirname that ParseDirectory
// skips because they lack a numeric prefix.
func IgnoredFiles(dirname string) []string {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil
	}
	var ignored []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || DetectFormat(name) == FormatUnknown {
			continue
		}
		if !partPattern.MatchString(name) {
			ignored = append(ignored, name)
		}
	}
	return ignored
}

// MergeCatalogs concatenates categories and questions in argument order.
// Duplicate IDs across parts are an error.
func MergeCatalogs(catalogs ...*models.Catalog) (*models.Catalog, error) {
	merged := &models.Catalog{}
	categories := make(map[string]bool)
	questions := make(map[string]bool)

	for _, c := range catalogs {
		if c == nil {
			continue
		}
		for _, cat := range c.Categories {
			if categories[cat.ID] {
				return nil, fmt.Errorf("duplicate category id across parts: %s", cat.ID)
			}
			categories[cat.ID] = true
			merged.Categories = append(merged.Categories, cat)
		}
		for _, q := range c.Questions {
			if questions[q.ID] {
				return nil, fmt.Errorf("duplicate question id across parts: %s", q.ID)
			}
			questions[q.ID] = true
			merged.Questions = append(merged.Questions, q)
		}
	}
	return merged, nil
}

func parseFile(path string) (*models.Catalog, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unknown file format: %s (supported: .yaml, .yml, .json)", path)
	}

	parser, err := NewParser(format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	catalog, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return catalog, nil
}
