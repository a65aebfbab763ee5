package microtask

import (
	"fmt"
	"time"

	"github.com/maastricht-university/vocal-indicators/fluency"
	"github.com/maastricht-university/vocal-indicators/indicators"
)

// Results is the raw outcome of a probe. Acoustic and text probes fill
// Indicators; the fluency probe reads Transcript and Language.
type Results struct {
	Indicators indicators.Vector `json:"indicators,omitempty"`
	Transcript string            `json:"transcript,omitempty"`
	Language   string            `json:"language,omitempty"`
}

// TaskScoreResult is a scored probe. Error is set only for unknown probes.
type TaskScoreResult struct {
	TaskID    string            `json:"task_id"`
	Scores    indicators.Vector `json:"scores"`
	Metadata  *fluency.Result   `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
}

type Router struct {
	now func() time.Time
}

func NewRouter() *Router {
	return &Router{now: time.Now}
}

// WithClock returns a router stamping results with now.
func (r *Router) WithClock(now func() time.Time) *Router {
	return &Router{now: now}
}

// Score turns res into the scores of probe taskID. It never fails: an
// unknown probe comes back with empty scores and Error set.
func (r *Router) Score(taskID string, res Results) TaskScoreResult {
	out := TaskScoreResult{
		TaskID:    taskID,
		Scores:    indicators.Vector{},
		Timestamp: r.now().UTC(),
	}

	d, ok := Lookup(taskID)
	if !ok {
		out.Error = fmt.Sprintf("unknown task: %s", taskID)
		return out
	}

	if d.ID == CategoryFluency {
		fr := fluency.Analyze(res.Transcript, res.Language)
		out.Scores[SemanticFluencyID] = indicators.Score(fr.Score)
		meta := fr.Rounded()
		out.Metadata = &meta
		return out
	}

	for _, t := range d.Targets {
		v, present := res.Indicators[t]
		if !present {
			continue
		}
		if v == nil {
			out.Scores[t] = nil
			continue
		}
		out.Scores[t] = indicators.Score(*v)
	}
	return out
}
