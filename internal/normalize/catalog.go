package normalize

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Kind selects the formatter used for an indicator.
type Kind string

const (
	KindScalar            Kind = "scalar"
	KindCandlestick       Kind = "candlestick"
	KindBandLines         Kind = "bandlines"
	KindSupportResistance Kind = "support_resistance"
	KindPivotHighLow      Kind = "pivot_high_low"
	KindPivotStandard     Kind = "pivot_standard"
)

// View filters level lists.
type View string

const (
	ViewAll        View = "all"
	ViewSupport    View = "support"
	ViewResistance View = "resistance"
	ViewPivot      View = "pivot"
)

// Param is one tunable parameter of an indicator source.
type Param struct {
	Name    string  `yaml:"name" json:"name"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Default float64 `yaml:"default" json:"default"`
}

// Entry is one row definition of the dashboard table.
type Entry struct {
	Key          string   `yaml:"key" json:"key"`
	Label        string   `yaml:"label" json:"label"`
	Source       string   `yaml:"source" json:"source"`
	Kind         Kind     `yaml:"kind" json:"kind"`
	View         View     `yaml:"view" json:"view,omitempty"`
	Fields       []string `yaml:"fields" json:"fields,omitempty"`
	CurrentPrice bool     `yaml:"current_price" json:"current_price,omitempty"`
	Params       []Param  `yaml:"params" json:"params,omitempty"`
}

// Catalog is the fixed, ordered list of indicator rows.
type Catalog struct {
	Entries []Entry `yaml:"indicators" json:"indicators"`

	params map[string][]Param // by source
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		c, err := ParseCatalog(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("normalize: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalog reads a catalog file, or returns the embedded default for "".
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) init() error {
	if len(c.Entries) == 0 {
		return errors.New("catalog has no indicators")
	}
	keys := make(map[string]bool, len(c.Entries))
	c.params = make(map[string][]Param)
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.Key == "" {
			return fmt.Errorf("catalog entry %d: key is required", i)
		}
		if keys[e.Key] {
			return fmt.Errorf("catalog entry %q: duplicate key", e.Key)
		}
		keys[e.Key] = true
		if e.Source == "" {
			e.Source = e.Key
		}
		if e.Label == "" {
			e.Label = e.Key
		}
		if _, ok := formatters[e.Kind]; !ok {
			return fmt.Errorf("catalog entry %q: unknown kind %q", e.Key, e.Kind)
		}
		if e.View == "" {
			e.View = ViewAll
		}
		switch e.View {
		case ViewAll, ViewSupport, ViewResistance:
		case ViewPivot:
			if e.Kind != KindPivotStandard {
				return fmt.Errorf("catalog entry %q: view pivot requires kind %s", e.Key, KindPivotStandard)
			}
		default:
			return fmt.Errorf("catalog entry %q: unknown view %q", e.Key, e.View)
		}
		if len(e.Params) == 0 {
			continue
		}
		if _, dup := c.params[e.Source]; dup {
			return fmt.Errorf("catalog entry %q: params for source %q already declared", e.Key, e.Source)
		}
		for _, p := range e.Params {
			if p.Name == "" {
				return fmt.Errorf("catalog entry %q: param name is required", e.Key)
			}
			if p.Min > p.Max {
				return fmt.Errorf("catalog entry %q: param %s min > max", e.Key, p.Name)
			}
			if p.Default < p.Min || p.Default > p.Max {
				return fmt.Errorf("catalog entry %q: param %s default out of range", e.Key, p.Name)
			}
		}
		c.params[e.Source] = e.Params
	}
	return nil
}

// Entry looks up a row definition by key.
func (c *Catalog) Entry(key string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Sources returns the distinct payload names in catalog order.
func (c *Catalog) Sources() []string {
	seen := make(map[string]bool, len(c.Entries))
	out := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		if !seen[e.Source] {
			seen[e.Source] = true
			out = append(out, e.Source)
		}
	}
	return out
}

// HasSource reports whether any entry reads the payload name.
func (c *Catalog) HasSource(source string) bool {
	for _, e := range c.Entries {
		if e.Source == source {
			return true
		}
	}
	return false
}

// Params returns the settings allow-list for a source.
func (c *Catalog) Params(source string) []Param {
	return c.params[source]
}

// Param looks up a single parameter definition.
func (c *Catalog) Param(source, name string) (Param, bool) {
	for _, p := range c.params[source] {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}
