package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/maastricht-university/vocal-indicators/fluency"
	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
	"github.com/maastricht-university/vocal-indicators/normalize"
	"github.com/maastricht-university/vocal-indicators/orchestrator"
	"github.com/maastricht-university/vocal-indicators/temporal"
)

func gender(s string) indicators.Gender {
	return indicators.Gender(strings.ToLower(strings.TrimSpace(s)))
}

func taskContext(s string) indicators.TaskContext {
	if s = strings.TrimSpace(s); s == "" {
		return indicators.DefaultContext
	}
	return indicators.TaskContext(s)
}

// GET /v1/indicators[?source=audio]
func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	defs := s.catalog.All()
	if src := r.URL.Query().Get("source"); src != "" {
		filtered := []indicators.Definition{}
		for _, d := range defs {
			if d.Source == indicators.Source(src) {
				filtered = append(filtered, d)
			}
		}
		defs = filtered
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"indicators": defs})
}

// GET /v1/tasks
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"tasks": microtask.All()})
}

type normalizeRequest struct {
	IndicatorID string   `json:"indicator_id"`
	Value       *float64 `json:"value"`
	Gender      string   `json:"gender"`
	TaskContext string   `json:"task_context"`
}

type normalizeResponse struct {
	IndicatorID string   `json:"indicator_id"`
	Score       *float64 `json:"score"`
}

// POST /v1/normalize
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.IndicatorID == "" {
		s.writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "indicator_id is required")
		return
	}
	s.writeJSON(w, http.StatusOK, normalizeResponse{
		IndicatorID: req.IndicatorID,
		Score:       s.norm.Normalize(req.IndicatorID, req.Value, gender(req.Gender), taskContext(req.TaskContext)),
	})
}

type vectorRequest struct {
	Features    normalize.Measurements `json:"features"`
	Gender      string                 `json:"gender"`
	TaskContext string                 `json:"task_context"`
	Status      string                 `json:"status"`
}

type vectorResponse struct {
	Vector   indicators.Vector `json:"vector"`
	Computed int               `json:"computed"`
}

// POST /v1/vector. An omitted status counts as ok.
func (s *Server) handleVector(w http.ResponseWriter, r *http.Request) {
	var req vectorRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	status := req.Status
	if status == "" {
		status = normalize.StatusOK
	}
	v := s.mapper.Map(status, req.Features, gender(req.Gender), taskContext(req.TaskContext))
	s.writeJSON(w, http.StatusOK, vectorResponse{Vector: v, Computed: v.Computed()})
}

// POST /v1/temporal
func (s *Server) handleTemporal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Words []temporal.Word `json:"words"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	v := temporal.Derive(req.Words)
	s.writeJSON(w, http.StatusOK, vectorResponse{Vector: v, Computed: v.Computed()})
}

// POST /v1/fluency
func (s *Server) handleFluency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
		Language   string `json:"language"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, fluency.Analyze(req.Transcript, req.Language).Rounded())
}

// POST /v1/tasks/{taskID}/score. Unknown probes still answer 200; the result
// carries the error marker.
func (s *Server) handleTaskScore(w http.ResponseWriter, r *http.Request) {
	var res microtask.Results
	if !s.decodeJSON(w, r, &res) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.router.Score(chi.URLParam(r, "taskID"), res))
}

// GET /v1/tasks/{taskID}/prompt?lang=&turn=
func (s *Server) handleTaskPrompt(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if !microtask.Known(taskID) {
		s.writeError(w, http.StatusNotFound, "UNKNOWN_TASK", "unknown task: "+taskID)
		return
	}
	turn, err := queryInt(r, "turn", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_PARAM", "turn must be an integer")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"task_id": taskID,
		"prompt":  microtask.EmbedPrompt(taskID, r.URL.Query().Get("lang"), turn),
	})
}

type scheduleResult struct {
	Period    int                    `json:"period"`
	Completed []string               `json:"completed"`
	Tasks     []microtask.Definition `json:"tasks"`
}

// GET /v1/patients/{patientID}/schedule?period=N&completed=a,b
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	period, err := queryInt(r, "period", 0)
	if err != nil || period < 1 {
		s.writeError(w, http.StatusBadRequest, "INVALID_PARAM", "period must be an integer >= 1")
		return
	}
	completed := queryList(r, "completed")
	tasks, err := s.pipe.Schedule(r.Context(), chi.URLParam(r, "patientID"), period, completed)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scheduleResult{Period: period, Completed: completed, Tasks: tasks})
}

// PUT /v1/patients/{patientID}/risk with a condition to flag object.
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	var flags map[indicators.Condition]bool
	if !s.decodeJSON(w, r, &flags) {
		return
	}
	if err := s.pipe.SetRiskFlags(r.Context(), chi.URLParam(r, "patientID"), flags); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/patients/{patientID}/completions
func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var c microtask.Completion
	if !s.decodeJSON(w, r, &c) {
		return
	}
	if err := s.pipe.Complete(r.Context(), chi.URLParam(r, "patientID"), c.TaskID, c.Period); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

type probeRequest struct {
	SessionID  string `json:"session_id"`
	PatientID  string `json:"patient_id"`
	TaskID     string `json:"task_id"`
	AudioPath  string `json:"audio_path"`
	Gender     string `json:"gender"`
	Language   string `json:"language"`
	Transcript string `json:"transcript"`
}

// POST /v1/probes runs a recorded probe through the full pipeline. The
// recording must already sit under paths.data on the server.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req probeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.TaskID == "" {
		s.writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "task_id is required")
		return
	}
	if req.AudioPath != "" {
		path, err := s.pipe.ResolveAudio(req.AudioPath)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_AUDIO_PATH", err.Error())
			return
		}
		req.AudioPath = path
	}
	out, err := s.pipe.RunProbe(r.Context(), orchestrator.ProbeRequest{
		SessionID:  req.SessionID,
		PatientID:  req.PatientID,
		TaskID:     req.TaskID,
		AudioPath:  req.AudioPath,
		Gender:     req.Gender,
		Language:   req.Language,
		Transcript: req.Transcript,
	})
	if err != nil {
		s.log.WithError(err).WithField("request_id", RequestID(r.Context())).Error("run probe")
		s.writeError(w, http.StatusInternalServerError, "PROBE_FAILED", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}
