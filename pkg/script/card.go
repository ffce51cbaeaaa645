package script

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
	"github.com/goccy/go-json"
)

// Keys rendered in their own section rather than as specific fields.
var reservedFields = map[string]bool{
	"title":       true,
	"description": true,
	"content":     true,
}

func writeCard(w *writer, number string, c domain.Card) {
	w.linef("### %s Card %q", number, c.Title)
	w.linef("- Type: %s", c.Type)
	w.linef("- ID: %s", c.ID)
	if c.Description != "" {
		w.linef("- Description: %s", oneLine(c.Description))
	}
	if c.Content != "" {
		w.linef("- Content: %s", oneLine(c.Content))
	}
	w.blank()

	if fields := specificFields(c); len(fields) > 0 {
		w.line("Specific fields:")
		for _, f := range fields {
			w.linef("- %s: %s", f[0], f[1])
		}
		w.blank()
	}

	if c.Type == domain.CardFiles && len(c.Files) > 0 {
		writeFiles(w, c.Files)
	}
}

// specificFields lists the non-falsy fields of a card. Known schema keys come first in
// schema order, the remaining keys follow sorted.
func specificFields(c domain.Card) [][2]string {
	if len(c.Fields) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(c.Fields))
	var keys []string
	for _, k := range schema.FieldOrder(c.Type) {
		if _, ok := c.Fields[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range c.Fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var out [][2]string
	for _, k := range keys {
		v := c.Fields[k]
		if reservedFields[k] || isFalsy(v) {
			continue
		}
		out = append(out, [2]string{k, formatValue(v)})
	}
	return out
}

// isFalsy reports the values omitted from the specific fields: empty strings, zero
// numbers, false and nil.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case float32:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case int32:
		return x == 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return oneLine(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, formatValue(e))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func writeFiles(w *writer, files []domain.File) {
	w.line("Files:")
	for _, f := range files {
		if f.IsImage() {
			src := f.URL
			if src == "" {
				src = f.Content
			}
			w.linef("- ![%s](%s)", f.Name, src)
			continue
		}
		if f.Content == "" {
			if f.URL != "" {
				w.linef("- [%s](%s)", f.Name, f.URL)
			} else {
				w.linef("- %s (%s)", f.Name, f.Type)
			}
			continue
		}
		w.linef("- %s (%s):", f.Name, f.Type)
		w.line("```")
		w.line(strings.TrimRight(f.Content, "\n"))
		w.line("```")
	}
	w.blank()
}
