// Package normalize maps raw measurements onto the [0,1] indicator scale using
// population norms, and owns the table translating extractor feature names
// into indicator ids.
package normalize

import (
	"math"
	"sync"

	"github.com/maastricht-university/vocal-indicators/indicators"
)

// Neutral is returned when the norm carries no discriminative information.
const Neutral = 0.5

type Normalizer struct {
	norms   *indicators.Norms
	catalog *indicators.Catalog
}

func New(catalog *indicators.Catalog, norms *indicators.Norms) *Normalizer {
	return &Normalizer{norms: norms, catalog: catalog}
}

var (
	defaultOnce sync.Once
	defaultNorm *Normalizer
)

// Default uses the embedded catalog and norm tables.
func Default() *Normalizer {
	defaultOnce.Do(func() {
		defaultNorm = New(indicators.Default(), indicators.DefaultNorms())
	})
	return defaultNorm
}

// Normalize scores raw against the population norm for id in ctx.
//
// The result is nil when raw is absent or non-finite, or when the resolved
// table has no entry for id. Otherwise it is
//
//	0.5 + 0.5*tanh((raw-mean)/(2*std))
//
// with the sign of the tanh term flipped for higher-is-worse indicators.
func (n *Normalizer) Normalize(id string, raw *float64, gender indicators.Gender, ctx indicators.TaskContext) *float64 {
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) {
		return nil
	}
	norm, ok := n.norms.Lookup(ctx, id)
	if !ok {
		return nil
	}
	st := norm.Resolve(gender)
	if !(st.Std > 0) {
		return indicators.Score(Neutral)
	}

	t := math.Tanh((*raw - st.Mean) / (2 * st.Std))
	if n.catalog.HigherIsWorse(id) {
		return indicators.Score(clamp01(0.5 - 0.5*t))
	}
	return indicators.Score(clamp01(0.5 + 0.5*t))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
