package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// catalogValidate is shared by every Catalog.Validate call.
var catalogValidate = validator.New()

// LocalizedText maps a language code to display text.
type LocalizedText map[Language]string

// In returns the text for lang, falling back to Spanish and then to any
// non-empty translation. Returns "" if the text has no translations.
func (t LocalizedText) In(lang Language) string {
	if s, ok := t[lang]; ok && s != "" {
		return s
	}
	if s, ok := t[LanguageES]; ok && s != "" {
		return s
	}
	for _, l := range SupportedLanguages {
		if s := t[l]; s != "" {
			return s
		}
	}
	return ""
}

// Option is a selectable answer for a question.
type Option struct {
	Value float64       `yaml:"value" json:"value"`
	Label LocalizedText `yaml:"label" json:"label" validate:"required"`
}

// Question is one entry in the ordered questionnaire.
type Question struct {
	ID         string        `yaml:"id" json:"id" validate:"required"`
	CategoryID string        `yaml:"category" json:"category" validate:"required"`
	Prompt     LocalizedText `yaml:"prompt" json:"prompt" validate:"required"`
	Options    []Option      `yaml:"options" json:"options" validate:"required,min=1,dive"`
}

// Category groups questions for scoring and reporting.
type Category struct {
	ID   string        `yaml:"id" json:"id" validate:"required"`
	Name LocalizedText `yaml:"name" json:"name" validate:"required"`
}

// Catalog is the immutable set of categories and questions for a session.
// Category order is the order scores are reported and charted in.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories" validate:"dive"`
	Questions  []Question `yaml:"questions" json:"questions" validate:"dive"`
}

// ErrEmptyCatalog is returned by Validate when the catalog has no questions.
var ErrEmptyCatalog = errors.New("catalog has no questions")

// Validate checks required fields, ID uniqueness and category references.
// An empty catalog is reported with ErrEmptyCatalog so callers can decide
// whether to treat it as fatal.
func (c *Catalog) Validate() error {
	if err := catalogValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	categories := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if categories[cat.ID] {
			return fmt.Errorf("duplicate category id %q", cat.ID)
		}
		categories[cat.ID] = true
	}

	questions := make(map[string]bool, len(c.Questions))
	var unknown []string
	for _, q := range c.Questions {
		if questions[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		questions[q.ID] = true
		if !categories[q.CategoryID] {
			unknown = append(unknown, fmt.Sprintf("%s->%s", q.ID, q.CategoryID))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("questions reference unknown categories: %s", strings.Join(unknown, ", "))
	}

	if len(c.Questions) == 0 {
		return ErrEmptyCatalog
	}
	return nil
}

// HasQuestion reports whether id names a question in the catalog.
func (c *Catalog) HasQuestion(id string) bool {
	for _, q := range c.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// Category returns the category with the given id.
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// QuestionsIn returns the questions belonging to a category, in catalog order.
func (c *Catalog) QuestionsIn(categoryID string) []Question {
	var out []Question
	for _, q := range c.Questions {
		if q.CategoryID == categoryID {
			out = append(out, q)
		}
	}
	return out
}

// OptionLabel returns the label of the option whose value equals v, or ""
// when no option matches.
func (q Question) OptionLabel(v float64, lang Language) string {
	for _, opt := range q.Options {
		if opt.Value == v {
			return opt.Label.In(lang)
		}
	}
	return ""
}

// MaxValue returns the highest option value of the question.
func (q Question) MaxValue() float64 {
	if len(q.Options) == 0 {
		return 0
	}
	highest := q.Options[0].Value
	for _, opt := range q.Options[1:] {
		if opt.Value > highest {
			highest = opt.Value
		}
	}
	return highest
}
