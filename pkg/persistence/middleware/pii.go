package middleware

import (
	"fmt"
	"regexp"

	"github.com/goccy/go-json"
)

// Mask is the replacement written over sensitive values.
const Mask = "***"

// Masker replaces the values of JSON object keys matching any of its patterns.
type Masker struct {
	patterns []*regexp.Regexp
}

// NewMasker compiles the key patterns.
func NewMasker(patterns []string) (*Masker, error) {
	m := &Masker{patterns: make([]*regexp.Regexp, len(patterns))}
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		m.patterns[i] = re
	}
	return m, nil
}

// MaskJSON returns a copy of the JSON document with matching keys masked at any depth.
// Documents that are not JSON are returned unchanged.
func (m *Masker) MaskJSON(data []byte) ([]byte, error) {
	if len(m.patterns) == 0 {
		return data, nil
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return data, nil
	}
	return json.Marshal(m.mask(doc))
}

func (m *Masker) mask(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			if m.matches(k) {
				t[k] = Mask
				continue
			}
			t[k] = m.mask(sub)
		}
	case []any:
		for i := range t {
			t[i] = m.mask(t[i])
		}
	}
	return v
}

func (m *Masker) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
