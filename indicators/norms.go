package indicators

import (
	_ "embed"
	"fmt"
	"math"
	"sync"

	"gopkg.in/yaml.v3"
)

// TaskContext selects the population norm table a raw value is compared against.
type TaskContext string

const (
	Conversation   TaskContext = "conversation"
	SustainedVowel TaskContext = "sustained_vowel"
	DDK            TaskContext = "ddk"
	Fluency        TaskContext = "fluency"

	DefaultContext = Conversation
)

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"

	// DefaultGender is used whenever the supplied gender is not exactly Male or Female.
	DefaultGender = Female
)

// ResolveGender maps anything other than the two recognised values to DefaultGender.
func ResolveGender(g Gender) Gender {
	if g == Male || g == Female {
		return g
	}
	return DefaultGender
}

type Stat struct {
	Mean float64 `yaml:"mean" json:"mean"`
	Std  float64 `yaml:"std" json:"std"`
}

// Norm is either a flat Stat or a gender split; a split wins when both halves exist.
type Norm struct {
	Stat   `yaml:",inline"`
	Male   *Stat `yaml:"male,omitempty" json:"male,omitempty"`
	Female *Stat `yaml:"female,omitempty" json:"female,omitempty"`
}

func (n Norm) GenderSplit() bool { return n.Male != nil && n.Female != nil }

// Resolve returns the (mean, std) pair to use for gender g.
func (n Norm) Resolve(g Gender) Stat {
	if !n.GenderSplit() {
		return n.Stat
	}
	if ResolveGender(g) == Male {
		return *n.Male
	}
	return *n.Female
}

type NormTable map[string]Norm

// Norms holds one table per task context.
type Norms struct {
	tables map[TaskContext]NormTable
}

//go:embed data/norms.yaml
var normsYAML []byte

var (
	defaultNormsOnce sync.Once
	defaultNorms     *Norms
)

func DefaultNorms() *Norms {
	defaultNormsOnce.Do(func() {
		n, err := LoadNorms(normsYAML)
		if err != nil {
			panic(fmt.Sprintf("indicators: embedded norms: %v", err))
		}
		defaultNorms = n
	})
	return defaultNorms
}

// LoadNorms decodes a norm document. The conversation table is mandatory since
// every unresolvable context falls back to it.
func LoadNorms(data []byte) (*Norms, error) {
	var tables map[TaskContext]NormTable
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("decode norms: %w", err)
	}
	return NewNorms(tables)
}

func NewNorms(tables map[TaskContext]NormTable) (*Norms, error) {
	if _, ok := tables[DefaultContext]; !ok {
		return nil, fmt.Errorf("norms: missing %s table", DefaultContext)
	}
	out := make(map[TaskContext]NormTable, len(tables))
	for ctx, tbl := range tables {
		cp := make(NormTable, len(tbl))
		for id, n := range tbl {
			if err := checkNorm(n); err != nil {
				return nil, fmt.Errorf("norms %s/%s: %w", ctx, id, err)
			}
			if n.Male != nil {
				m := *n.Male
				n.Male = &m
			}
			if n.Female != nil {
				f := *n.Female
				n.Female = &f
			}
			cp[id] = n
		}
		out[ctx] = cp
	}
	return &Norms{tables: out}, nil
}

func checkNorm(n Norm) error {
	stats := []Stat{n.Stat}
	if n.Male != nil {
		stats = append(stats, *n.Male)
	}
	if n.Female != nil {
		stats = append(stats, *n.Female)
	}
	for _, s := range stats {
		if !finite(s.Mean) || !finite(s.Std) {
			return fmt.Errorf("non-finite mean or std")
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Has reports whether ctx has its own table.
func (n *Norms) Has(ctx TaskContext) bool {
	_, ok := n.tables[ctx]
	return ok
}

// Lookup resolves the table for ctx (falling back to the conversation table)
// and returns the entry for id.
func (n *Norms) Lookup(ctx TaskContext, id string) (Norm, bool) {
	tbl, ok := n.tables[ctx]
	if !ok {
		tbl = n.tables[DefaultContext]
	}
	norm, ok := tbl[id]
	return norm, ok
}
