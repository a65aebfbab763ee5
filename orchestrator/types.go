package orchestrator

import (
	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
)

// ProbeRequest is one recorded probe to analyze.
type ProbeRequest struct {
	SessionID  string // optional; a new one is minted when empty
	PatientID  string
	TaskID     string
	AudioPath  string // optional for text-only probes
	Gender     string
	Language   string
	Transcript string // wins over any ASR transcript
}

// Extractor status as recorded on an outcome.
const (
	ExtractorOK      = "ok"
	ExtractorFailed  = "failed"
	ExtractorSkipped = "skipped"
)

// ProbeOutcome is what RunProbe returns and persists.
type ProbeOutcome struct {
	SessionID       string                    `json:"session_id"`
	PatientHash     string                    `json:"patient_hash,omitempty"`
	TaskID          string                    `json:"task_id"`
	TaskContext     indicators.TaskContext    `json:"task_context"`
	Gender          indicators.Gender         `json:"gender"`
	Language        string                    `json:"language"`
	AudioPath       string                    `json:"audio_path,omitempty"`
	ExtractorStatus string                    `json:"extractor_status"`
	Transcript      string                    `json:"transcript,omitempty"`
	WordCount       int                       `json:"word_count"`
	Vector          indicators.Vector         `json:"vector"`
	Result          microtask.TaskScoreResult `json:"result"`
	Path            string                    `json:"-"`
}
