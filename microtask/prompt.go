package microtask

import (
	"strings"

	"golang.org/x/text/language"
)

var transitions = map[string][]string{
	"en": {"By the way, ", "Before we continue, ", "I'd like to try something quick — "},
	"fr": {"Au fait, ", "Avant de continuer, ", "J'aimerais essayer quelque chose de rapide — "},
}

// EmbedPrompt returns the wording introducing probe taskID at conversation
// turn, a transition phrase followed by the probe prompt. French tags get the
// French wording, everything else English. Unknown probes yield "".
func EmbedPrompt(taskID, lang string, turn int) string {
	i, ok := byID[taskID]
	if !ok {
		return ""
	}
	code := promptLanguage(lang)
	ts := transitions[code]
	idx := turn % len(ts)
	if idx < 0 {
		idx += len(ts)
	}

	prompt, ok := catalog[i].prompts[code]
	if !ok {
		prompt = catalog[i].prompts["en"]
	}
	return ts[idx] + prompt
}

func promptLanguage(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return "en"
	}
	if base, _ := tag.Base(); base.String() == "fr" {
		return "fr"
	}
	return "en"
}
