// Package microtask holds the short diagnostic probes embedded in a
// conversation: their catalog, the scheduler deciding which to run, the
// router scoring their results and the prompts used to introduce them.
package microtask

import (
	"github.com/maastricht-university/vocal-indicators/indicators"
)

// Probe ids.
const (
	SustainedVowel       = "sustained_vowel"
	DDK                  = "ddk"
	CategoryFluency      = "category_fluency"
	DepressionScreen     = "depression_screen"
	AttentionFluctuation = "attention_fluctuation"
	PragmaticProbe       = "pragmatic_probe"
)

const (
	// MaxPerSession caps how many probes one session may carry.
	MaxPerSession = 2
	// UniversalTask is offered to every patient regardless of risk flags.
	UniversalTask = DepressionScreen
	// SemanticFluencyID is the single indicator the fluency probe scores.
	SemanticFluencyID = "MEM_SEMANTIC_FLUENCY"
)

// Cadence is the minimum spacing between two administrations of a probe.
type Cadence string

const (
	Weekly   Cadence = "weekly"
	Biweekly Cadence = "biweekly"
)

// Definition describes one probe. Values handed out by the package are copies.
type Definition struct {
	ID          string                 `json:"id"`
	DurationSec int                    `json:"duration_sec"`
	Targets     []string               `json:"targets"`
	Conditions  []indicators.Condition `json:"conditions"`
	Cadence     Cadence                `json:"cadence"`
	Priority    int                    `json:"priority"`
	Context     indicators.TaskContext `json:"task_context"`
	Description string                 `json:"description"`

	prompts map[string]string
}

// Relevant reports whether c is one of the probe's conditions.
func (d Definition) Relevant(c indicators.Condition) bool {
	for _, x := range d.Conditions {
		if x == c {
			return true
		}
	}
	return false
}

// Targeted reports whether id is one of the probe's target indicators.
func (d Definition) Targeted(id string) bool {
	for _, t := range d.Targets {
		if t == id {
			return true
		}
	}
	return false
}

func (d Definition) clone() Definition {
	d.Targets = append([]string(nil), d.Targets...)
	d.Conditions = append([]indicators.Condition(nil), d.Conditions...)
	return d
}

var catalog = []Definition{
	{
		ID:          SustainedVowel,
		DurationSec: 15,
		Targets:     []string{"PDM_PPE", "PDM_RPDE", "PDM_DFA", "ACU_JITTER", "ACU_SHIMMER", "ACU_HNR", "ACU_CPP", "PDM_D2"},
		Conditions:  []indicators.Condition{indicators.Parkinson},
		Cadence:     Weekly,
		Priority:    1,
		Context:     indicators.SustainedVowel,
		Description: "Sustained phonation task for PD phonatory feature extraction",
		prompts: map[string]string{
			"en": "Can you say 'ahhh' and hold it for me as long as you comfortably can?",
			"fr": "Pouvez-vous dire 'ahhh' et tenir le son aussi longtemps que possible ?",
		},
	},
	{
		ID:          DDK,
		DurationSec: 10,
		Targets:     []string{"PDM_DDK_RATE", "PDM_DDK_REG", "PDM_VOT", "PDM_FESTINATION"},
		Conditions:  []indicators.Condition{indicators.Parkinson},
		Cadence:     Weekly,
		Priority:    2,
		Context:     indicators.DDK,
		Description: "Diadochokinetic task for articulatory assessment",
		prompts: map[string]string{
			"en": "Now try repeating 'pa-ta-ka, pa-ta-ka' as fast and clearly as you can for a few seconds.",
			"fr": "Maintenant, essayez de répéter 'pa-ta-ka, pa-ta-ka' aussi vite et clairement que possible.",
		},
	},
	{
		ID:          CategoryFluency,
		DurationSec: 60,
		Targets:     []string{SemanticFluencyID},
		Conditions:  []indicators.Condition{indicators.Alzheimer, indicators.Parkinson},
		Cadence:     Biweekly,
		Priority:    3,
		Context:     indicators.Fluency,
		Description: "Semantic fluency task for category naming and clustering",
		prompts: map[string]string{
			"en": "Let's play a quick word game — name as many animals as you can think of!",
			"fr": "Jouons à un petit jeu — nommez autant d'animaux que vous pouvez !",
		},
	},
	{
		ID:          DepressionScreen,
		DurationSec: 90,
		Targets:     []string{"AFF_NEG_VALENCE", "AFF_SELF_PRONOUN", "AFF_HEDONIC", "LEX_DEATH_WORDS", "LEX_RUMINATIVE", "AFF_FUTURE_REF"},
		Conditions:  []indicators.Condition{indicators.Depression},
		Cadence:     Weekly,
		Priority:    4,
		Context:     indicators.Conversation,
		Description: "Single-question PHQ-9 style screening",
		prompts: map[string]string{
			"en": "In the last couple of weeks, have you been feeling down, anxious, or less interested in things you usually enjoy? Tell me about how you've been feeling.",
			"fr": "Ces deux dernières semaines, vous êtes-vous senti(e) triste, anxieux(se) ou moins intéressé(e) par les choses que vous aimez habituellement ? Parlez-moi de comment vous vous sentez.",
		},
	},
	{
		ID:          AttentionFluctuation,
		DurationSec: 45,
		Targets:     []string{"EXE_TASK_SWITCHING", "EXE_INHIBITION", "TMP_PAUSE_VARIABILITY"},
		Conditions:  []indicators.Condition{indicators.LBD},
		Cadence:     Weekly,
		Priority:    5,
		Context:     indicators.Conversation,
		Description: "Sustained backward counting, reveals attention lapses",
		prompts: map[string]string{
			"en": "I'm going to say some numbers, and I'd like you to count backwards from 20 to 1. Take your time.",
			"fr": "Je vais vous demander de compter à rebours de 20 à 1. Prenez votre temps.",
		},
	},
	{
		ID:          PragmaticProbe,
		DurationSec: 60,
		Targets:     []string{"PRA_INDIRECT_SPEECH", "PRA_PERSPECTIVE_TAKING", "PRA_HUMOR_IRONY", "EXE_INHIBITION"},
		Conditions:  []indicators.Condition{indicators.FTD},
		Cadence:     Biweekly,
		Priority:    6,
		Context:     indicators.Conversation,
		Description: "Pragmatic reasoning probe for social cognition and indirect speech",
		prompts: map[string]string{
			"en": "I'm going to describe a situation and I'd like to hear what you think. Imagine your neighbor asks to borrow your car, but they've had two accidents this year. What would you say to them?",
			"fr": "Je vais décrire une situation et j'aimerais avoir votre avis. Imaginez que votre voisin vous demande de lui prêter votre voiture, mais il a eu deux accidents cette année. Que lui diriez-vous ?",
		},
	},
}

var byID = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, d := range catalog {
		m[d.ID] = i
	}
	return m
}()

// All returns every probe in declaration order.
func All() []Definition {
	out := make([]Definition, len(catalog))
	for i, d := range catalog {
		out[i] = d.clone()
	}
	return out
}

// IDs returns the probe ids in declaration order.
func IDs() []string {
	out := make([]string, len(catalog))
	for i, d := range catalog {
		out[i] = d.ID
	}
	return out
}

func Lookup(id string) (Definition, bool) {
	i, ok := byID[id]
	if !ok {
		return Definition{}, false
	}
	return catalog[i].clone(), true
}

// Known reports whether id names a probe.
func Known(id string) bool {
	_, ok := byID[id]
	return ok
}

// ContextFor is the task context audio for probe id is normalized under.
// Unknown ids get the default context.
func ContextFor(id string) indicators.TaskContext {
	if i, ok := byID[id]; ok {
		return catalog[i].Context
	}
	return indicators.DefaultContext
}
