// Package temporal derives fluency and pause indicators from timed word events.
package temporal

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/maastricht-university/vocal-indicators/indicators"
)

// MinWords is the shortest sequence Derive will look at.
const MinWords = 5

const (
	PauseBeforeNoun   = "TMP_PAUSE_BEFORE_NOUN"
	PauseVariability  = "TMP_PAUSE_VARIABILITY"
	SyllableRateDecay = "TMP_SYLLABLE_RATE_DECAY"
	WordDurationMean  = "TMP_WORD_DURATION_MEAN"
	VoicedRatio       = "TMP_VOICED_RATIO"
)

// IDs lists the indicators Derive can produce.
var IDs = []string{PauseBeforeNoun, PauseVariability, SyllableRateDecay, WordDurationMean, VoicedRatio}

// Word is one aligned word event, times in seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

var functionWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "is", "are", "was", "were", "to", "of", "in",
		"for", "with", "and", "but", "or", "not", "this", "that", "these", "those",
		"le", "la", "les", "de", "du", "des", "un", "une", "et", "ou", "mais",
		"dans", "pour", "avec", "sur", "est", "sont", "il", "elle", "ils", "elles",
		"ce", "cette", "ces",
	} {
		functionWords[w] = struct{}{}
	}
}

// likelyNoun is a length and stop-word heuristic, no tagging involved.
func likelyNoun(text string) bool {
	t := strings.TrimSpace(text)
	if utf8.RuneCountInString(t) <= 4 {
		return false
	}
	_, fn := functionWords[strings.ToLower(t)]
	return !fn
}

// sigmoid maps x onto (0,1) around center; inverted curves fall as x grows.
func sigmoid(x, center, width float64, inverted bool) float64 {
	t := math.Tanh((x - center) / width)
	if inverted {
		return clamp01(0.5 - 0.5*t)
	}
	return clamp01(0.5 + 0.5*t)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Derive computes the temporal indicators words support. Each indicator has
// its own sufficiency rule; one without enough data is left out of the
// result rather than set to nil. Fewer than MinWords events yields an empty
// vector.
//
// Out-of-order or overlapping events are tolerated: negative pauses and
// durations are filtered, not rejected.
func Derive(words []Word) indicators.Vector {
	out := indicators.Vector{}
	if len(words) < MinWords {
		return out
	}

	var nounPauses, gaps []float64
	for i := 1; i < len(words); i++ {
		p := words[i].Start - words[i-1].End
		if p > 0 && likelyNoun(words[i].Text) {
			nounPauses = append(nounPauses, p)
		}
		if p > 0.01 {
			gaps = append(gaps, p)
		}
	}
	if len(nounPauses) > 0 {
		put(out, PauseBeforeNoun, sigmoid(mean(nounPauses), 0.3, 0.2, true))
	}

	if len(gaps) > 2 {
		m := mean(gaps)
		cv := 0.0
		if m > 0 {
			cv = stddev(gaps, m) / m
		}
		put(out, PauseVariability, sigmoid(cv, 0.5, 0.3, true))
	}

	mid := len(words) / 2
	first, second := words[:mid], words[mid:]
	if len(first) > 2 && len(second) > 2 {
		r1, r2 := rate(first), rate(second)
		ratio := 1.0
		if r1 > 0 {
			ratio = r2 / r1
		}
		put(out, SyllableRateDecay, sigmoid(ratio, 0.9, 0.15, false))
	}

	var durations []float64
	total := 0.0
	for _, w := range words {
		if d := w.End - w.Start; d > 0 {
			durations = append(durations, d)
			total += d
		}
	}
	if len(durations) > 0 {
		put(out, WordDurationMean, sigmoid(mean(durations), 0.3, 0.15, true))
	}

	if span := words[len(words)-1].End - words[0].Start; span > 0 {
		put(out, VoicedRatio, sigmoid(total/span, 0.6, 0.15, false))
	}

	return out
}

// rate is events per second over the half's span. A zero span gives +Inf,
// so a collapsed second half reads as no decay and a collapsed first half as
// full decay.
func rate(half []Word) float64 {
	return float64(len(half)) / (half[len(half)-1].End - half[0].Start)
}

func put(v indicators.Vector, id string, s float64) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return
	}
	v[id] = indicators.Score(s)
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// population standard deviation
func stddev(xs []float64, m float64) float64 {
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
