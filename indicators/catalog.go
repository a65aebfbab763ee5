// Package indicators holds the immutable indicator reference catalog and the
// population norm tables used to place raw measurements on a [0,1] health scale.
package indicators

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

type Condition string

const (
	Alzheimer   Condition = "alzheimer"
	Depression  Condition = "depression"
	Parkinson   Condition = "parkinson"
	NormalAging Condition = "normal_aging"
	LBD         Condition = "lbd"
	FTD         Condition = "ftd"
)

// Conditions lists every condition the catalog carries a direction for.
var Conditions = []Condition{Alzheimer, Depression, Parkinson, NormalAging, LBD, FTD}

// Direction describes how the raw measurement moves as a condition progresses.
type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Stable Direction = "stable"
	Varies Direction = "varies"
)

// Source is the stream an indicator is extracted from.
type Source string

const (
	SourceText            Source = "text"
	SourceConversation    Source = "conversation"
	SourceAudio           Source = "audio"
	SourceWhisperTemporal Source = "whisper_temporal"
	SourceMicroTask       Source = "micro_task"
	SourceMeta            Source = "meta"
)

type Definition struct {
	ID             string                  `yaml:"id" json:"id"`
	Domain         string                  `yaml:"domain" json:"domain"`
	Name           string                  `yaml:"name" json:"name"`
	Source         Source                  `yaml:"source" json:"source"`
	Evidence       int                     `yaml:"evidence" json:"evidence"`
	Weight         float64                 `yaml:"weight" json:"weight"`
	HigherIsWorse  bool                    `yaml:"higher_is_worse" json:"higher_is_worse"`
	Directions     map[Condition]Direction `yaml:"directions" json:"directions"`
	EarlyDetection []Condition             `yaml:"early_detection" json:"early_detection,omitempty"`
}

func (d Definition) clone() Definition {
	d.Directions = maps.Clone(d.Directions)
	d.EarlyDetection = slices.Clone(d.EarlyDetection)
	return d
}

// Catalog is read-only after Load; every accessor returns copies.
type Catalog struct {
	defs          []Definition
	byID          map[string]int
	domainWeights map[string]float64
	sentinels     map[Condition][]string
}

type catalogFile struct {
	Indicators    []Definition           `yaml:"indicators"`
	DomainWeights map[string]float64     `yaml:"domain_weights"`
	Sentinels     map[Condition][]string `yaml:"sentinels"`
}

//go:embed data/indicators.yaml
var catalogYAML []byte

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := Load(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("indicators: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load decodes and validates a catalog document.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Indicators) == 0 {
		return nil, fmt.Errorf("catalog has no indicators")
	}

	c := &Catalog{
		defs:          make([]Definition, 0, len(f.Indicators)),
		byID:          make(map[string]int, len(f.Indicators)),
		domainWeights: f.DomainWeights,
		sentinels:     f.Sentinels,
	}
	for _, d := range f.Indicators {
		if d.ID == "" {
			return nil, fmt.Errorf("indicator %d has no id", len(c.defs))
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate indicator %s", d.ID)
		}
		if d.Domain == "" {
			return nil, fmt.Errorf("indicator %s has no domain", d.ID)
		}
		for cond, dir := range d.Directions {
			switch dir {
			case Up, Down, Stable, Varies:
			default:
				return nil, fmt.Errorf("indicator %s: unknown direction %q for %s", d.ID, dir, cond)
			}
		}
		c.byID[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	for cond, ids := range c.sentinels {
		for _, id := range ids {
			if _, ok := c.byID[id]; !ok {
				return nil, fmt.Errorf("sentinel %s for %s is not a catalog indicator", id, cond)
			}
		}
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.defs) }

func (c *Catalog) Lookup(id string) (Definition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i].clone(), true
}

// All returns every definition in declaration order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d.clone())
	}
	return out
}

// IDs returns indicator ids in declaration order.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d.ID)
	}
	return out
}

func (c *Catalog) BySource(s Source) []string {
	var out []string
	for _, d := range c.defs {
		if d.Source == s {
			out = append(out, d.ID)
		}
	}
	return out
}

func (c *Catalog) ByDomain(domain string) []string {
	var out []string
	for _, d := range c.defs {
		if d.Domain == domain {
			out = append(out, d.ID)
		}
	}
	return out
}

// Domains returns the distinct domains, sorted.
func (c *Catalog) Domains() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range c.defs {
		if !seen[d.Domain] {
			seen[d.Domain] = true
			out = append(out, d.Domain)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) DomainWeight(domain string) float64 { return c.domainWeights[domain] }

func (c *Catalog) Sentinels(cond Condition) []string { return slices.Clone(c.sentinels[cond]) }

// HigherIsWorse reports whether a rising raw value signals decline for id.
func (c *Catalog) HigherIsWorse(id string) bool {
	i, ok := c.byID[id]
	return ok && c.defs[i].HigherIsWorse
}
