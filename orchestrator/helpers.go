package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/maastricht-university/vocal-indicators/clients"
	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
	"github.com/maastricht-university/vocal-indicators/temporal"
)

// textTasks are the probes whose indicators come from the text service.
var textTasks = map[string]bool{
	microtask.DepressionScreen:     true,
	microtask.PragmaticProbe:       true,
	microtask.AttentionFluctuation: true,
}

// PatientHash is the only form a patient id is logged or persisted in.
func PatientHash(patientID string) string {
	if patientID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(patientID))
	return hex.EncodeToString(sum[:])[:12]
}

func toWords(in []clients.TransWord) []temporal.Word {
	out := make([]temporal.Word, 0, len(in))
	for _, w := range in {
		out = append(out, temporal.Word{Text: w.Word, Start: w.Start, End: w.End})
	}
	return out
}

// pickWords prefers ASR word timings and falls back to the extractor's own
// whisper pass.
func pickWords(asr *clients.ASRResp, ext *clients.ExtractResp) []temporal.Word {
	if asr != nil {
		if ws := asr.Words(); len(ws) > 0 {
			return toWords(ws)
		}
	}
	if ext != nil && ext.Whisper != nil {
		return toWords(ext.Whisper.Words)
	}
	return nil
}

func pickTranscript(req string, asr *clients.ASRResp, ext *clients.ExtractResp) string {
	if t := strings.TrimSpace(req); t != "" {
		return t
	}
	if asr != nil {
		if t := asr.Transcript(); t != "" {
			return t
		}
	}
	if ext != nil && ext.Whisper != nil {
		return strings.TrimSpace(ext.Whisper.Transcript)
	}
	return ""
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func resolveGender(req, def string) indicators.Gender {
	return indicators.ResolveGender(indicators.Gender(strings.ToLower(orDefault(req, def))))
}

// ErrAudioOutsideData rejects recordings that do not live under paths.data.
var ErrAudioOutsideData = errors.New("audio path is outside the data directory")

// ResolveAudio maps a caller supplied recording path onto the data directory.
// Relative paths are taken from paths.data; symlinks are followed before the
// containment check, so the file must exist.
func (p *Pipeline) ResolveAudio(path string) (string, error) {
	if p.cfg.Paths.Data == "" {
		return "", fmt.Errorf("%w: paths.data is not configured", ErrAudioOutsideData)
	}
	root, err := filepath.Abs(p.cfg.Paths.Data)
	if err != nil {
		return "", err
	}
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return "", fmt.Errorf("data directory: %w", err)
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("audio: %w", err)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrAudioOutsideData
	}
	return resolved, nil
}
