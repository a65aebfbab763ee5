package clients

import (
	"context"
)

// --- Text indicators (/analyze) ---
type TextReq struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
}

// TextResp carries indicator scores already on the [0,1] scale.
type TextResp struct {
	Indicators map[string]*float64 `json:"indicators"`
}

func (h *HTTP) Text(ctx context.Context, url string, in TextReq) (*TextResp, error) {
	var out TextResp
	if err := h.postJSON(ctx, url+"/analyze", "text", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
