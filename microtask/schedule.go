package microtask

import (
	"sort"

	"github.com/maastricht-university/vocal-indicators/indicators"
)

// Completion records that a probe was administered in a period (week number).
type Completion struct {
	TaskID string `json:"task_id"`
	Period int    `json:"period"`
}

// PatientProfile is what the scheduler knows about a patient.
type PatientProfile struct {
	RiskFlags map[indicators.Condition]bool `json:"risk_flags"`
	History   []Completion                  `json:"history"`
}

// Select picks at most MaxPerSession probes for a session in period, most
// urgent first. Probes in completed were already run this session and are
// never offered again. The result is empty, never nil, when nothing qualifies.
func Select(profile PatientProfile, period int, completed []string) []Definition {
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	last := map[string]int{}
	for _, c := range profile.History {
		if prev, ok := last[c.TaskID]; !ok || c.Period > prev {
			last[c.TaskID] = c.Period
		}
	}

	flags := profile.RiskFlags
	candidates := []Definition{}
	for _, d := range catalog {
		if done[d.ID] {
			continue
		}
		if !relevant(d, flags) {
			continue
		}
		if p, ok := last[d.ID]; ok && tooSoon(d.Cadence, p, period) {
			continue
		}
		candidates = append(candidates, d.clone())
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})
	if len(candidates) > MaxPerSession {
		candidates = candidates[:MaxPerSession]
	}
	return candidates
}

// relevant checks each monitored condition on its own path so the fluency
// probe keeps its parkinson route even if its condition list changes.
func relevant(d Definition, flags map[indicators.Condition]bool) bool {
	ok := d.ID == UniversalTask
	if !ok && d.Relevant(indicators.Parkinson) && flags[indicators.Parkinson] {
		ok = true
	}
	if !ok && d.Relevant(indicators.Alzheimer) && flags[indicators.Alzheimer] {
		ok = true
	}
	if !ok && d.Relevant(indicators.LBD) && flags[indicators.LBD] {
		ok = true
	}
	if !ok && d.Relevant(indicators.FTD) && flags[indicators.FTD] {
		ok = true
	}
	if d.ID == CategoryFluency && flags[indicators.Parkinson] {
		ok = true
	}
	return ok
}

// tooSoon applies the cadence limit given the last period the probe ran.
// A weekly probe last run in this period or later is held back.
func tooSoon(c Cadence, last, period int) bool {
	switch c {
	case Weekly:
		return last >= period
	case Biweekly:
		return period-last < 2
	}
	return false
}
