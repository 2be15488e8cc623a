package models

import (
	"fmt"
	"strings"
)

// Language selects which literal strings are passed to collaborators.
type Language string

const (
	LanguageES Language = "es"
	LanguagePT Language = "pt"
)

// SupportedLanguages lists every Language in preference order.
var SupportedLanguages = []Language{LanguageES, LanguagePT}

// ParseLanguage normalizes s into a supported Language.
func ParseLanguage(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range SupportedLanguages {
		if l == lang {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q, must be one of: es, pt", s)
}

// Identity holds the respondent strings supplied at session start.
// They are opaque to the engine apart from placeholder substitution.
type Identity struct {
	UserName            string `json:"user_name" yaml:"user_name"`
	ProviderName        string `json:"provider_name" yaml:"provider_name"`
	FinancialEntityName string `json:"financial_entity_name" yaml:"financial_entity_name"`
}

// Placeholder tokens recognised in question prompts.
const (
	PlaceholderProvider        = "{providerName}"
	PlaceholderFinancialEntity = "{financialEntityName}"
)

// FillPlaceholders substitutes the identity into prompt text. Only the first
// occurrence of each token is replaced; unmatched tokens are left as-is.
func FillPlaceholders(text string, id Identity) string {
	text = strings.Replace(text, PlaceholderProvider, id.ProviderName, 1)
	text = strings.Replace(text, PlaceholderFinancialEntity, id.FinancialEntityName, 1)
	return text
}
