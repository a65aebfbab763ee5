// Package orchestrator runs recorded probes through the external services and
// the scoring core, and fronts the history store for scheduling.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/vocal-indicators/clients"
	cfg "github.com/maastricht-university/vocal-indicators/config"
	"github.com/maastricht-university/vocal-indicators/history"
	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
	"github.com/maastricht-university/vocal-indicators/normalize"
	"github.com/maastricht-university/vocal-indicators/temporal"
)

type Pipeline struct {
	cfg    *cfg.Root
	http   *clients.HTTP
	log    logrus.FieldLogger
	mapper *normalize.Mapper
	router *microtask.Router
	store  history.Store
}

func NewPipeline(c *cfg.Root, store history.Store, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		cfg:    c,
		http:   clients.NewHTTP(c.Timeout()),
		log:    log,
		mapper: normalize.NewMapper(indicators.Default(), normalize.Default()),
		router: microtask.NewRouter(),
		store:  store,
	}
}

// RunProbe analyzes one recorded probe. Collaborator failures degrade the
// outcome (null audio vector, no words, no text scores) and are only logged;
// the returned error is reserved for cancellation and persistence failures.
func (p *Pipeline) RunProbe(ctx context.Context, req ProbeRequest) (*ProbeOutcome, error) {
	out := &ProbeOutcome{
		SessionID:       orDefault(req.SessionID, newSessionID()),
		PatientHash:     PatientHash(req.PatientID),
		TaskID:          req.TaskID,
		TaskContext:     microtask.ContextFor(req.TaskID),
		Gender:          resolveGender(req.Gender, p.cfg.Engine.DefaultGender),
		Language:        orDefault(req.Language, p.cfg.Engine.DefaultLanguage),
		AudioPath:       req.AudioPath,
		ExtractorStatus: ExtractorSkipped,
		Vector:          indicators.Vector{},
	}
	log := p.log.WithFields(logrus.Fields{
		"session": out.SessionID,
		"patient": out.PatientHash,
		"task":    req.TaskID,
	})

	if !microtask.Known(req.TaskID) {
		out.Result = p.router.Score(req.TaskID, microtask.Results{})
		log.Warn("unknown task, nothing to analyze")
		return out, nil
	}

	var (
		ext *clients.ExtractResp
		asr *clients.ASRResp
	)
	if req.AudioPath != "" {
		if want := p.cfg.Audio.Format; want != "" && !strings.EqualFold(strings.TrimPrefix(filepath.Ext(req.AudioPath), "."), want) {
			log.WithField("expected", want).Warn("audio format differs from what the extractor expects")
		}
		out.Vector = p.mapper.NullVector()

		g, gctx := errgroup.WithContext(ctx)
		if url := p.cfg.Services.Extractor.URL; url != "" {
			out.ExtractorStatus = ExtractorFailed
			g.Go(func() error {
				r, err := p.http.Extract(gctx, url, req.AudioPath, clients.ExtractReq{
					TaskType:       string(out.TaskContext),
					Gender:         string(out.Gender),
					WordTimestamps: true,
				})
				if err != nil {
					log.WithError(err).Warn("extractor failed, audio indicators left empty")
					return ctx.Err()
				}
				ext = r
				return nil
			})
		} else {
			log.Debug("no extractor configured")
		}
		if url := p.cfg.Services.ASR.URL; url != "" {
			g.Go(func() error {
				r, err := p.http.ASR(gctx, url, req.AudioPath, out.Language)
				if err != nil {
					log.WithError(err).Warn("asr failed, no word timings")
					return ctx.Err()
				}
				asr = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if ext != nil {
			if ext.Status != normalize.StatusOK {
				log.WithFields(logrus.Fields{"status": ext.Status, "error": ext.Error}).Warn("extractor reported failure")
			} else {
				out.ExtractorStatus = ExtractorOK
			}
			out.Vector = p.mapper.Map(ext.Status, normalize.Measurements(ext.Features), out.Gender, out.TaskContext)
		}
	}

	words := pickWords(asr, ext)
	out.WordCount = len(words)
	out.Transcript = pickTranscript(req.Transcript, asr, ext)
	out.Vector.Merge(temporal.Derive(words))

	if textTasks[req.TaskID] && out.Transcript != "" {
		if url := p.cfg.Services.Text.URL; url != "" {
			r, err := p.http.Text(ctx, url, clients.TextReq{Text: out.Transcript, Language: out.Language, TaskID: req.TaskID})
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.WithError(err).Warn("text analysis failed")
			default:
				out.Vector.Merge(indicators.Vector(r.Indicators).Sanitized())
			}
		}
	}

	out.Result = p.router.Score(req.TaskID, microtask.Results{
		Indicators: out.Vector,
		Transcript: out.Transcript,
		Language:   out.Language,
	})

	path, err := persist(p.cfg.Paths.Outputs, out)
	if err != nil {
		return nil, fmt.Errorf("persist outcome: %w", err)
	}
	out.Path = path
	log.WithFields(logrus.Fields{
		"scores":    len(out.Result.Scores),
		"computed":  out.Vector.Computed(),
		"words":     out.WordCount,
		"extractor": out.ExtractorStatus,
		"path":      path,
	}).Info("probe analyzed")
	return out, nil
}

// Schedule picks the probes for a patient's session in period.
func (p *Pipeline) Schedule(ctx context.Context, patientID string, period int, completed []string) ([]microtask.Definition, error) {
	profile, err := p.store.Profile(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	tasks := microtask.Select(profile, period, completed)
	p.log.WithFields(logrus.Fields{
		"patient":   PatientHash(patientID),
		"period":    period,
		"completed": len(completed),
		"selected":  len(tasks),
	}).Debug("schedule")
	return tasks, nil
}

// Complete appends a probe completion to the patient's history.
func (p *Pipeline) Complete(ctx context.Context, patientID, taskID string, period int) error {
	if err := p.store.RecordCompletion(ctx, patientID, taskID, period); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"patient": PatientHash(patientID),
		"task":    taskID,
		"period":  period,
	}).Info("probe completed")
	return nil
}

// SetRiskFlags updates the monitored conditions of a patient.
func (p *Pipeline) SetRiskFlags(ctx context.Context, patientID string, flags map[indicators.Condition]bool) error {
	if err := p.store.SetRiskFlags(ctx, patientID, flags); err != nil {
		return fmt.Errorf("set risk flags: %w", err)
	}
	return nil
}
