// Package httpapi exposes the scoring engine and the scheduler over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
	"github.com/maastricht-university/vocal-indicators/normalize"
	"github.com/maastricht-university/vocal-indicators/orchestrator"
)

type Server struct {
	pipe    *orchestrator.Pipeline
	catalog *indicators.Catalog
	norm    *normalize.Normalizer
	mapper  *normalize.Mapper
	router  *microtask.Router
	log     logrus.FieldLogger
}

func New(pipe *orchestrator.Pipeline, log logrus.FieldLogger) *Server {
	norm := normalize.Default()
	return &Server{
		pipe:    pipe,
		catalog: indicators.Default(),
		norm:    norm,
		mapper:  normalize.NewMapper(indicators.Default(), norm),
		router:  microtask.NewRouter(),
		log:     log,
	}
}

// Handler returns the routed API with request id, access log and panic
// recovery applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/indicators", s.handleIndicators)
		r.Post("/normalize", s.handleNormalize)
		r.Post("/vector", s.handleVector)
		r.Post("/temporal", s.handleTemporal)
		r.Post("/fluency", s.handleFluency)
		r.Post("/probes", s.handleProbe)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleTasks)
			r.Post("/{taskID}/score", s.handleTaskScore)
			r.Get("/{taskID}/prompt", s.handleTaskPrompt)
		})

		r.Route("/patients/{patientID}", func(r chi.Router) {
			r.Get("/schedule", s.handleSchedule)
			r.Put("/risk", s.handleRisk)
			r.Post("/completions", s.handleCompletion)
		})
	})
	return r
}

// Run serves h on port until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, port int, h http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("addr", srv.Addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
