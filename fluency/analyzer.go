// Package fluency scores semantic category-naming (animal fluency) transcripts.
package fluency

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MaxTranscriptRunes bounds the input looked at.
	MaxTranscriptRunes = 100000
	// MaxTokens bounds the scan after normalization.
	MaxTokens = 10000

	// Midpoint is the unique-item count scoring 0.5, the usual impairment cutoff.
	Midpoint = 12.0
	// Steepness is the logistic slope k.
	Steepness = 0.35
)

const punctuation = ".,!?;:()"

// Result describes one category-naming attempt.
type Result struct {
	ItemCount         int     `json:"item_count"`
	UniqueItems       int     `json:"unique_items"`
	EstimatedClusters int     `json:"estimated_clusters"`
	SwitchingRate     float64 `json:"switching_rate"`
	Score             float64 `json:"score"`
}

// Neutral is the result for an empty transcript: unknown, not impaired.
func Neutral() Result {
	return Result{Score: 0.5}
}

// Rounded returns r with the fractional fields rounded to three decimals.
func (r Result) Rounded() Result {
	r.SwitchingRate = round3(r.SwitchingRate)
	r.Score = round3(r.Score)
	return r
}

// Analyze counts distinct animals named in transcript and scores the count.
// The taxonomy is fixed: lang is accepted for the probe record but does not
// change the result.
func Analyze(transcript, lang string) Result {
	if transcript == "" {
		return Neutral()
	}
	lex := Animals
	tokens := tokenize(transcript)

	var found []string
	seen := map[string]bool{}
	for i := 0; i < len(tokens); {
		if i+1 < len(tokens) {
			pair := tokens[i] + " " + tokens[i+1]
			if _, ok := lex.Cluster(pair); ok && !seen[pair] {
				found = append(found, pair)
				seen[pair] = true
				i += 2
				continue
			}
		}
		if _, ok := lex.Cluster(tokens[i]); ok && !seen[tokens[i]] {
			found = append(found, tokens[i])
			seen[tokens[i]] = true
		}
		i++
	}

	clusters := 0
	last := ""
	for _, item := range found {
		c, _ := lex.Cluster(item)
		if c != last {
			clusters++
			last = c
		}
	}

	unique := len(seen)
	switching := 0.0
	if unique > 1 {
		switching = float64(clusters-1) / float64(unique-1)
	}

	return Result{
		ItemCount:         len(found),
		UniqueItems:       unique,
		EstimatedClusters: clusters,
		SwitchingRate:     switching,
		Score:             Score(unique),
	}
}

// Score maps a unique-item count onto [0,1] with a logistic curve centred on
// Midpoint. More items always score higher.
func Score(count int) float64 {
	s := 1 / (1 + math.Exp(-Steepness*(float64(count)-Midpoint)))
	return math.Max(0, math.Min(1, s))
}

func tokenize(transcript string) []string {
	transcript = truncateRunes(transcript, MaxTranscriptRunes)

	// A Caser keeps state, so each call gets its own. Und keeps the folding
	// independent of any locale.
	lower := cases.Lower(language.Und).String(transcript)
	lower = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, lower)

	fields := strings.Fields(lower)
	tokens := make([]string, 0, min(len(fields), MaxTokens))
	for _, f := range fields {
		if len(tokens) == MaxTokens {
			break
		}
		if utf8.RuneCountInString(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
