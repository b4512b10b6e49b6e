// Package catalog loads the fixed questionnaire tables: the canonical item
// bank, item polarity, severity bands and the domain/intervention map.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"divorcerisk/internal/model"
	"divorcerisk/internal/scoring"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ItemCount is the size of the canonical item bank
const ItemCount = 54

// Domain groups canonical features into a relationship dimension with its intervention tasks
type Domain struct {
	Name     string
	Features []string
	Triggers []model.Band
	Tasks    []string
}

// Triggered reports whether band activates this domain's module
func (d Domain) Triggered(band model.Band) bool {
	for _, b := range d.Triggers {
		if b == band {
			return true
		}
	}
	return false
}

// Catalog is the immutable set of lookup tables. Accessors return copies.
type Catalog struct {
	items    []model.CanonicalItem
	index    map[string]int
	polarity scoring.PolarityTable
	bands    scoring.Bands
	domains  []Domain
}

type fileBands struct {
	Thresholds []struct {
		Band  model.Band `yaml:"band"`
		Below float64    `yaml:"below"`
	} `yaml:"thresholds"`
	Top model.Band `yaml:"top"`
}

type fileDomain struct {
	Name     string       `yaml:"name"`
	Features []string     `yaml:"features"`
	Triggers []model.Band `yaml:"triggers"`
	Tasks    []string     `yaml:"tasks"`
}

type file struct {
	Items    []model.CanonicalItem `yaml:"items"`
	Polarity struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	} `yaml:"polarity"`
	Bands   fileBands    `yaml:"bands"`
	Domains []fileDomain `yaml:"domains"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog, parsed once per process
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(catalogYAML)
	})
	return defaultCat, defaultErr
}

// MustDefault is Default for program start-up; it panics on a broken embedded table
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	polarity, err := scoring.NewPolarityTable(f.Polarity.Positive, f.Polarity.Negative)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	c := &Catalog{
		items:    f.Items,
		index:    make(map[string]int, len(f.Items)),
		polarity: polarity,
		bands:    scoring.Bands{Top: f.Bands.Top},
	}
	for _, t := range f.Bands.Thresholds {
		c.bands.Thresholds = append(c.bands.Thresholds, scoring.BandThreshold{Band: t.Band, Below: t.Below})
	}
	for _, d := range f.Domains {
		c.domains = append(c.domains, Domain(d))
	}
	for i, it := range c.items {
		if _, dup := c.index[it.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate item id %s", it.ID)
		}
		c.index[it.ID] = i
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the cross-table invariants
func (c *Catalog) Validate() error {
	if len(c.items) != ItemCount {
		return fmt.Errorf("catalog: expected %d items, got %d", ItemCount, len(c.items))
	}
	for _, it := range c.items {
		if it.ID == "" || it.Text == "" {
			return fmt.Errorf("catalog: item %q is incomplete", it.ID)
		}
	}
	if err := c.bands.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.domains))
	for _, d := range c.domains {
		if seen[d.Name] {
			return fmt.Errorf("catalog: duplicate domain %s", d.Name)
		}
		seen[d.Name] = true
		if len(d.Features) == 0 || len(d.Tasks) == 0 || len(d.Triggers) == 0 {
			return fmt.Errorf("catalog: domain %s is incomplete", d.Name)
		}
		for _, fid := range d.Features {
			if _, ok := c.index[fid]; !ok {
				return fmt.Errorf("catalog: domain %s references unknown feature %s", d.Name, fid)
			}
		}
	}
	return nil
}

// Items returns the canonical items in bank order
func (c *Catalog) Items() []model.CanonicalItem {
	out := make([]model.CanonicalItem, len(c.items))
	copy(out, c.items)
	return out
}

// FeatureIDs returns the item ids in bank order, which is the classifier column order
func (c *Catalog) FeatureIDs() []string {
	out := make([]string, len(c.items))
	for i, it := range c.items {
		out[i] = it.ID
	}
	return out
}

// Item looks up a canonical item by id
func (c *Catalog) Item(id string) (model.CanonicalItem, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.CanonicalItem{}, false
	}
	return c.items[i], true
}

// NewVector returns an all-missing vector over the item bank
func (c *Catalog) NewVector() model.FeatureVector {
	return model.NewFeatureVector(c.FeatureIDs())
}

// Polarity returns the item polarity table
func (c *Catalog) Polarity() scoring.PolarityTable {
	return c.polarity
}

// Bands returns the severity thresholds
func (c *Catalog) Bands() scoring.Bands {
	out := scoring.Bands{Top: c.bands.Top, Thresholds: make([]scoring.BandThreshold, len(c.bands.Thresholds))}
	copy(out.Thresholds, c.bands.Thresholds)
	return out
}

// Domains returns the domains in evaluation order
func (c *Catalog) Domains() []Domain {
	out := make([]Domain, len(c.domains))
	for i, d := range c.domains {
		out[i] = Domain{
			Name:     d.Name,
			Features: append([]string(nil), d.Features...),
			Triggers: append([]model.Band(nil), d.Triggers...),
			Tasks:    append([]string(nil), d.Tasks...),
		}
	}
	return out
}
