package template

import (
	"regexp"
	"strings"

	"github.com/ynput/ayon-jira/internal/api"
)

// Engine expands %token% placeholders in raw template text.
type Engine struct {
	// Anything between two percent signs is a token, so a marker can never
	// reach either system unresolved.
	placeholderPattern *regexp.Regexp
}

// New creates a new placeholder engine
func New() *Engine {
	return &Engine{
		placeholderPattern: regexp.MustCompile(`%([^%]+)%`),
	}
}

// Resolve replaces every %token% in text with its value from mapping.
//
// All tokens are checked before anything is replaced: if any token is absent
// from mapping or maps to an empty string, Resolve returns a
// *api.MissingPlaceholderError naming every unresolved token and the text is
// not touched.
func (e *Engine) Resolve(text string, mapping map[string]string) (string, error) {
	tokens := e.ExtractTokens(text)

	var missing []string
	for _, token := range tokens {
		if mapping[token] == "" {
			missing = append(missing, token)
		}
	}
	if len(missing) > 0 {
		return "", &api.MissingPlaceholderError{Tokens: missing}
	}

	if len(tokens) == 0 {
		return text, nil
	}

	pairs := make([]string, 0, len(tokens)*2)
	for _, token := range tokens {
		pairs = append(pairs, "%"+token+"%", mapping[token])
	}

	// A single pass keeps substituted values from being scanned again.
	return strings.NewReplacer(pairs...).Replace(text), nil
}

// ExtractTokens returns the distinct placeholder names in text, in order of
// first appearance.
func (e *Engine) ExtractTokens(text string) []string {
	matches := e.placeholderPattern.FindAllStringSubmatch(text, -1)

	seen := make(map[string]bool, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) < 2 || seen[match[1]] {
			continue
		}
		seen[match[1]] = true
		tokens = append(tokens, match[1])
	}

	return tokens
}

// ValidateMapping ensures all placeholders used in text are resolvable.
func (e *Engine) ValidateMapping(text string, mapping map[string]string) error {
	_, err := e.Resolve(text, mapping)
	return err
}
