package recommend

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Entry is the recommendation attached to a disease or category.
type Entry struct {
	Medications []string `yaml:"medications"`
	Specialists []string `yaml:"specialists"`
}

func (e Entry) empty() bool {
	return len(e.Medications) == 0 && len(e.Specialists) == 0
}

// ExactEntry is keyed by a full disease name.
type ExactEntry struct {
	Disease string `yaml:"disease"`
	Entry   `yaml:",inline"`
}

// CategoryEntry applies to any disease name containing Keyword.
type CategoryEntry struct {
	Keyword string `yaml:"keyword"`
	Entry   `yaml:",inline"`
}

// Catalog is the static recommendation table. Categories are consulted in
// slice order.
type Catalog struct {
	Exact      []ExactEntry    `yaml:"exact"`
	Categories []CategoryEntry `yaml:"categories"`
	Default    Entry           `yaml:"default"`
}

// DefaultCatalog returns the built-in tables.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(builtinCatalog)
}

// LoadCatalog reads a YAML catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects blank keys, duplicate diseases, entries with nothing to
// recommend, and an empty default.
func (c *Catalog) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(c.Exact))
	for i, e := range c.Exact {
		key := normalizeLabel(e.Disease)
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("exact[%d]: disease is empty", i))
		case e.empty():
			errs = append(errs, fmt.Errorf("exact[%d] %q: no medications or specialists", i, e.Disease))
		}
		if _, dup := seen[key]; dup && key != "" {
			errs = append(errs, fmt.Errorf("exact[%d] %q: duplicate disease", i, e.Disease))
		}
		seen[key] = struct{}{}
	}
	for i, e := range c.Categories {
		switch {
		case normalizeLabel(e.Keyword) == "":
			errs = append(errs, fmt.Errorf("categories[%d]: keyword is empty", i))
		case e.empty():
			errs = append(errs, fmt.Errorf("categories[%d] %q: no medications or specialists", i, e.Keyword))
		}
	}
	if len(c.Default.Medications) == 0 || len(c.Default.Specialists) == 0 {
		errs = append(errs, errors.New("default: needs at least one medication and one specialist"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}
