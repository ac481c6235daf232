package recommend

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/curesense/curesense/internal/inference"
)

// Result is the aggregated recommendation for one prediction batch. Both
// lists are sorted and free of duplicates.
type Result struct {
	Medications []string `json:"medications"`
	Specialists []string `json:"doctor_types"`
}

type category struct {
	keyword string
	entry   Entry
}

// Mapper resolves disease labels to recommendations. It is immutable after
// construction and safe for concurrent use.
type Mapper struct {
	exact      map[string]Entry
	categories []category
	fallback   Entry
}

// NewMapper indexes c. The catalog should already be validated.
func NewMapper(c *Catalog) *Mapper {
	m := &Mapper{
		exact:      make(map[string]Entry, len(c.Exact)),
		categories: make([]category, 0, len(c.Categories)),
		fallback:   c.Default,
	}
	for _, e := range c.Exact {
		m.exact[normalizeLabel(e.Disease)] = e.Entry
	}
	for _, e := range c.Categories {
		m.categories = append(m.categories, category{keyword: normalizeLabel(e.Keyword), entry: e.Entry})
	}
	return m
}

// Recommend unions the entries for every predicted disease. Confidence is
// not considered. An empty input gives empty, non-nil lists.
func (m *Mapper) Recommend(diseases []inference.Prediction) Result {
	meds := make(map[string]struct{})
	docs := make(map[string]struct{})
	for _, d := range diseases {
		e := m.Resolve(d.Disease)
		for _, v := range e.Medications {
			meds[v] = struct{}{}
		}
		for _, v := range e.Specialists {
			docs[v] = struct{}{}
		}
	}
	return Result{
		Medications: sortedKeys(meds),
		Specialists: sortedKeys(docs),
	}
}

// Resolve returns the entry for one label: the exact match if any, else
// the first category whose keyword occurs in the label, else the default.
func (m *Mapper) Resolve(label string) Entry {
	name := normalizeLabel(label)
	if e, ok := m.exact[name]; ok {
		return e
	}
	for _, c := range m.categories {
		if strings.Contains(name, c.keyword) {
			return c.entry
		}
	}
	return m.fallback
}

func normalizeLabel(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
