package normalize

import (
	"math"

	"github.com/maastricht-university/vocal-indicators/indicators"
)

// StatusOK is the only extractor status whose features are trusted.
const StatusOK = "ok"

// Measurements is a flat extractor output: feature name to finite value or nil.
type Measurements map[string]*float64

type sourceKey struct {
	key string
	id  string
}

// sourceKeys translates extractor feature names into indicator ids.
var sourceKeys = []sourceKey{
	{"f0_mean", "ACU_F0_MEAN"},
	{"f0_sd", "ACU_F0_SD"},
	{"f0_range", "ACU_F0_RANGE"},
	{"jitter_local", "ACU_JITTER"},
	{"shimmer_local", "ACU_SHIMMER"},
	{"hnr", "ACU_HNR"},
	{"mfcc2_mean", "ACU_MFCC2"},
	{"cpp", "ACU_CPP"},
	{"spectral_harmonicity", "ACU_SPECTRAL_HARM"},
	{"energy_range", "ACU_ENERGY_RANGE"},
	{"f1f2_ratio", "ACU_F1F2_RATIO"},
	{"ppe", "PDM_PPE"},
	{"rpde", "PDM_RPDE"},
	{"dfa", "PDM_DFA"},
	{"d2", "PDM_D2"},
	{"ddk_rate", "PDM_DDK_RATE"},
	{"ddk_regularity_cv", "PDM_DDK_REG"},
	{"vot", "PDM_VOT"},
	{"monopitch", "PDM_MONOPITCH"},
	{"articulation_rate", "TMP_ARTIC_RATE"},
	{"formant_bandwidth", "ACU_FORMANT_BANDWIDTH"},
	{"spectral_tilt", "ACU_SPECTRAL_TILT"},
	{"voice_breaks", "ACU_VOICE_BREAKS"},
	{"tremor_freq_power", "ACU_TREMOR_FREQ"},
	{"breathiness_h1h2", "ACU_BREATHINESS"},
	{"loudness_decay", "ACU_LOUDNESS_DECAY"},
}

// Mapper turns extractor measurements into the audio part of an indicator vector.
type Mapper struct {
	norm   *Normalizer
	audio  []string
	keyFor map[string]string
}

func NewMapper(catalog *indicators.Catalog, norm *Normalizer) *Mapper {
	keyFor := make(map[string]string, len(sourceKeys))
	for _, sk := range sourceKeys {
		if _, ok := keyFor[sk.id]; !ok {
			keyFor[sk.id] = sk.key
		}
	}

	// Audio-source indicators plus micro-task indicators the extractor also
	// measures (DDK rate and regularity).
	audio := catalog.BySource(indicators.SourceAudio)
	seen := make(map[string]bool, len(audio))
	for _, id := range audio {
		seen[id] = true
	}
	for _, sk := range sourceKeys {
		if _, ok := catalog.Lookup(sk.id); ok && !seen[sk.id] {
			seen[sk.id] = true
			audio = append(audio, sk.id)
		}
	}

	return &Mapper{
		norm:   norm,
		audio:  audio,
		keyFor: keyFor,
	}
}

// SourceKey returns the extractor feature name feeding indicator id.
func (m *Mapper) SourceKey(id string) (string, bool) {
	k, ok := m.keyFor[id]
	return k, ok
}

// AudioIDs returns the indicators a full audio vector carries.
func (m *Mapper) AudioIDs() []string {
	return append([]string(nil), m.audio...)
}

// Derive returns a working copy of raw extended with the derived measurements.
// raw itself is never modified.
func Derive(raw Measurements) Measurements {
	out := make(Measurements, len(raw)+2)
	for k, v := range raw {
		if v == nil {
			out[k] = nil
			continue
		}
		x := *v
		out[k] = &x
	}

	if f1, f2 := out["f1_mean"], out["f2_mean"]; f1 != nil && f2 != nil && *f2 > 0 {
		out["f1f2_ratio"] = indicators.Score(*f1 / *f2)
	}
	if sd, mean := out["f0_sd"], out["f0_mean"]; sd != nil && mean != nil && *mean > 0 {
		out["monopitch"] = indicators.Score(*sd / *mean)
	}
	// Regularity is reported as a coefficient of variation; the indicator wants its complement.
	if cv := out["ddk_regularity_cv"]; cv != nil {
		out["ddk_regularity_cv"] = indicators.Score(1 - *cv)
	}
	return out
}

// Vector normalizes every audio indicator. Indicators with no source key,
// no finite measurement or no norm entry come back nil.
func (m *Mapper) Vector(raw Measurements, gender indicators.Gender, ctx indicators.TaskContext) indicators.Vector {
	work := Derive(raw)
	out := make(indicators.Vector, len(m.audio))
	for _, id := range m.audio {
		key, ok := m.keyFor[id]
		if !ok {
			out[id] = nil
			continue
		}
		v := work[key]
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			out[id] = nil
			continue
		}
		out[id] = m.norm.Normalize(id, v, gender, ctx)
	}
	return out
}

// NullVector is the indeterminate result: every audio indicator nil.
func (m *Mapper) NullVector() indicators.Vector {
	out := make(indicators.Vector, len(m.audio))
	for _, id := range m.audio {
		out[id] = nil
	}
	return out
}

// Map applies the extractor status contract: anything but StatusOK, or a
// missing feature set, degrades to NullVector.
func (m *Mapper) Map(status string, raw Measurements, gender indicators.Gender, ctx indicators.TaskContext) indicators.Vector {
	if status != StatusOK || raw == nil {
		return m.NullVector()
	}
	return m.Vector(raw, gender, ctx)
}
