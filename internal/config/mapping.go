package config

import "strings"

// Rule binds one normalized extension to a category.
type Rule struct {
	Extension string
	Category  string
}

// Mapping is an insertion-ordered extension→category table. Order decides
// which rule wins when several extensions are suffixes of the same name.
type Mapping struct {
	rules []Rule
	index map[string]int
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

// NormalizeExtension adds the leading '.' when missing.
func NormalizeExtension(ext string) string {
	if strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// Set binds ext to category. Re-declaring an extension keeps its original
// position and replaces the category.
func (m *Mapping) Set(ext, category string) {
	ext = NormalizeExtension(ext)
	if i, ok := m.index[ext]; ok {
		m.rules[i].Category = category
		return
	}
	m.index[ext] = len(m.rules)
	m.rules = append(m.rules, Rule{Extension: ext, Category: category})
}

// Lookup returns the category bound to exactly ext.
func (m *Mapping) Lookup(ext string) (string, bool) {
	i, ok := m.index[NormalizeExtension(ext)]
	if !ok {
		return "", false
	}
	return m.rules[i].Category, true
}

// Category returns the category of the first rule, in mapping order, whose
// extension ends the file name.
func (m *Mapping) Category(name string) (string, bool) {
	for _, r := range m.rules {
		if strings.HasSuffix(name, r.Extension) {
			return r.Category, true
		}
	}
	return "", false
}

// Rules returns a copy of the rules in order.
func (m *Mapping) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// Categories returns the distinct category names in first-seen order.
func (m *Mapping) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range m.rules {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// Len returns the number of rules.
func (m *Mapping) Len() int {
	return len(m.rules)
}
