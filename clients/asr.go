package clients

import (
	"context"
	"net/http"
	"strings"
)

type TransWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type TransSeg struct {
	Start float64     `json:"start"`
	End   float64     `json:"end"`
	Text  string      `json:"text"`
	Words []TransWord `json:"words,omitempty"`
}

type ASRResp struct {
	Segments []TransSeg `json:"segments"`
	Language string     `json:"language"`
}

// Words flattens the word timings of every segment in order.
func (r *ASRResp) Words() []TransWord {
	var out []TransWord
	for _, s := range r.Segments {
		out = append(out, s.Words...)
	}
	return out
}

// Transcript joins the segment texts.
func (r *ASRResp) Transcript() string {
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// ASR transcribes the audio at wavPath with word timestamps. language is a
// hint and may be empty.
func (h *HTTP) ASR(ctx context.Context, url, wavPath, language string) (*ASRResp, error) {
	fields := map[string]string{"word_timestamps": "true"}
	if language != "" {
		fields["language"] = language
	}
	body, contentType, err := audioForm(wavPath, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var out ASRResp
	if err := h.do(req, "asr", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
