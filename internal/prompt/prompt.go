// Package prompt renders prompt templates for the built-in reasoning
// components. This lives in internal to avoid committing to public API
// stability prematurely.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Render executes a template against data. Templates have access to helper
// funcs:
//
//	join    - join a string slice with a separator
//	bullet  - prefix each line with a bullet marker
//	letters - enumerate items as "a. ...", "b. ..." joined by the separator
func Render(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Funcs(template.FuncMap{
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		"bullet": func(marker string, items []string) string {
			out := make([]string, len(items))
			for i, item := range items {
				out[i] = marker + item
			}
			return strings.Join(out, "\n")
		},
		"letters": func(sep string, items []string) string {
			out := make([]string, len(items))
			for i, item := range items {
				out[i] = fmt.Sprintf("%c. %s", 'a'+(i%26), item)
			}
			return strings.Join(out, sep)
		},
	}).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.String(), nil
}
