package contractsteps

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Props maps template placeholder names to substitution values.
type Props map[string]string

// placeholder matches `#[key]`, key cannot contain brackets.
var placeholder = regexp.MustCompile(`#\[([^\[\]]+)\]`)

// ReplaceProps replaces every `#[key]` placeholder in template with props[key].
//
// Placeholders without a value make it fail with *TemplateResolutionError,
// nil or empty props are rejected with ErrEmptyProps.
func ReplaceProps(template string, props Props) (string, error) {
	return replaceProps(template, props, func(v string) string { return v })
}

// ReplaceJSONProps is similar to ReplaceProps, but escapes values as JSON string content.
//
// Use it for templates that put placeholders inside JSON string literals.
func ReplaceJSONProps(template string, props Props) (string, error) {
	return replaceProps(template, props, jsonStringContent)
}

// Placeholders returns distinct placeholder keys of template in order of first appearance.
func Placeholders(template string) []string {
	var (
		keys []string
		seen = map[string]bool{}
	)

	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true

			keys = append(keys, m[1])
		}
	}

	return keys
}

func replaceProps(template string, props Props, escape func(string) string) (string, error) {
	if len(props) == 0 {
		return "", ErrEmptyProps
	}

	var missing []string

	for _, key := range Placeholders(template) {
		if _, ok := props[key]; !ok {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return "", &TemplateResolutionError{Key: missing[0], Keys: missing}
	}

	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		return escape(props[m[2:len(m)-1]])
	}), nil
}

func jsonStringContent(v string) string {
	var b strings.Builder

	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)

	// Encoding a string can not fail.
	_ = enc.Encode(v)

	s := strings.TrimSuffix(b.String(), "\n")

	return s[1 : len(s)-1]
}
