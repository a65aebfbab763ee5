package clients

import (
	"context"
	"net/http"
	"strconv"
)

// --- Acoustic extractor (/extract) ---
type ExtractReq struct {
	TaskType       string
	Gender         string
	WordTimestamps bool
}

type WhisperBlock struct {
	Transcript string      `json:"transcript"`
	Language   string      `json:"language,omitempty"`
	Words      []TransWord `json:"words"`
}

// ExtractResp is the extractor answer. Only Status "ok" means Features can
// be trusted; the caller decides what to do otherwise.
type ExtractResp struct {
	Status   string              `json:"status"`
	Error    string              `json:"error,omitempty"`
	Features map[string]*float64 `json:"features"`
	Whisper  *WhisperBlock       `json:"whisper,omitempty"`
}

func (h *HTTP) Extract(ctx context.Context, url, wavPath string, in ExtractReq) (*ExtractResp, error) {
	fields := map[string]string{
		"task_type":       in.TaskType,
		"word_timestamps": strconv.FormatBool(in.WordTimestamps),
	}
	if in.Gender != "" {
		fields["gender"] = in.Gender
	}
	body, contentType, err := audioForm(wavPath, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/extract", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var out ExtractResp
	if err := h.do(req, "extract", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
