package models

import (
	"sort"
	"strings"
)

// LogoKey is the reserved field holding a logo path instead of display text.
const LogoKey = "logo"

// Field is one key/value pair of a FieldMapping.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// FieldMapping is an ordered set of text substitutions. Keys compare
// case-insensitively because the placeholder derived from a key is its
// upper-cased form.
type FieldMapping struct {
	fields []Field
}

// NewFieldMapping builds a mapping from pairs in order.
func NewFieldMapping(fields ...Field) FieldMapping {
	var m FieldMapping
	for _, f := range fields {
		m.Set(f.Key, f.Value)
	}
	return m
}

// FromMap builds a mapping with keys sorted, since map order is random.
func FromMap(values map[string]string) FieldMapping {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var m FieldMapping
	for _, k := range keys {
		m.Set(k, values[k])
	}
	return m
}

// SplitLogo separates the reserved logo entry from the text substitutions.
func SplitLogo(values map[string]string) (FieldMapping, string) {
	logo := ""
	text := make(map[string]string, len(values))
	for k, v := range values {
		if strings.EqualFold(k, LogoKey) {
			logo = v
			continue
		}
		text[k] = v
	}
	return FromMap(text), logo
}

// Set adds key or replaces the value of an existing key in place.
// The reserved logo key is ignored.
func (m *FieldMapping) Set(key, value string) {
	if key == "" || strings.EqualFold(key, LogoKey) {
		return
	}
	for i := range m.fields {
		if strings.EqualFold(m.fields[i].Key, key) {
			m.fields[i].Value = value
			return
		}
	}
	m.fields = append(m.fields, Field{Key: key, Value: value})
}

// Get returns the value for key.
func (m FieldMapping) Get(key string) (string, bool) {
	for _, f := range m.fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns a copy of the pairs in order.
func (m FieldMapping) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

func (m FieldMapping) Len() int {
	return len(m.fields)
}

// Map returns the pairs as a plain map.
func (m FieldMapping) Map() map[string]string {
	out := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		out[f.Key] = f.Value
	}
	return out
}

// Placeholder returns the bracketed token for key, e.g. "[COMPANY_NAME]".
func Placeholder(key string) string {
	return "[" + strings.ToUpper(key) + "]"
}
